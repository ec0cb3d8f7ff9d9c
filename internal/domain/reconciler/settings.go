package reconciler

import (
	"fmt"

	"github.com/eshaffer321/travel-backoffice/internal/domain/textnorm"
)

// DefaultSettings returns the stock matching table used for airline and visa
// supplier statements.
func DefaultSettings() Settings {
	return Settings{
		ColumnMapping: ColumnMapping{
			Company:  map[string]string{},
			Supplier: map[string]string{},
		},
		MatchingFields: []MatchingField{
			{
				ID:       "booking_reference",
				Label:    "Booking Reference",
				Enabled:  true,
				DataType: DataTypeString,
				Rule:     Rule{Type: RuleExact},
			},
			{
				ID:       "passenger_name",
				Label:    "Passenger Name",
				Enabled:  true,
				DataType: DataTypeString,
				Rule:     Rule{Type: RuleFuzzy, Tolerance: 80},
			},
			{
				ID:       "ticket_number",
				Label:    "Ticket Number",
				Enabled:  false,
				DataType: DataTypeString,
				Rule:     Rule{Type: RuleExact},
			},
			{
				ID:       "travel_date",
				Label:    "Travel Date",
				Enabled:  false,
				DataType: DataTypeString,
				Rule:     Rule{Type: RuleExact},
			},
			{
				ID:       PriceFieldID,
				Label:    "Price",
				Enabled:  true,
				DataType: DataTypeNumber,
				Rule:     Rule{Type: RuleNumericDiff, MaxDiff: 1},
			},
		},
		Aggregation: Aggregation{
			Enabled:               false,
			AggregationKey:        "invoice_number",
			AggregationValueField: PriceFieldID,
		},
	}
}

// Validate reports configuration that the engine would otherwise silently
// degrade around. The engine never calls it; entry points do.
func (s Settings) Validate() error {
	var problems []string
	seen := make(map[string]bool)

	for i, f := range s.MatchingFields {
		name := f.ID
		if name == "" {
			problems = append(problems, fmt.Sprintf("matching field %d has no id", i))
			continue
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("matching field %q is defined twice", name))
		}
		seen[name] = true

		switch f.DataType {
		case DataTypeString, DataTypeNumber:
		default:
			problems = append(problems, fmt.Sprintf("field %q has unknown data type %q", name, f.DataType))
		}

		switch f.Rule.Type {
		case RuleExact:
		case RuleFuzzy:
			if f.DataType != DataTypeString {
				problems = append(problems, fmt.Sprintf("field %q: fuzzy rule requires a string field", name))
			}
			if f.Rule.Tolerance < 0 || f.Rule.Tolerance > 100 {
				problems = append(problems, fmt.Sprintf("field %q: fuzzy tolerance %.2f outside 0..100", name, f.Rule.Tolerance))
			}
		case RuleNumericDiff:
			if f.DataType != DataTypeNumber {
				problems = append(problems, fmt.Sprintf("field %q: numeric_diff rule requires a number field", name))
			}
			if f.Rule.MaxDiff < 0 {
				problems = append(problems, fmt.Sprintf("field %q: max_diff cannot be negative", name))
			}
		default:
			problems = append(problems, fmt.Sprintf("field %q has unknown rule type %q", name, f.Rule.Type))
		}
	}

	if s.Aggregation.Enabled {
		if s.Aggregation.AggregationKey == "" {
			problems = append(problems, "aggregation enabled without an aggregation key")
		}
		if s.Aggregation.AggregationValueField == "" {
			problems = append(problems, "aggregation enabled without a value field")
		}
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

// ValidateFilters checks filter rules for unknown conditions and numeric
// comparisons against non-numeric values.
func ValidateFilters(filters []FilterRule) error {
	var problems []string
	for i, f := range filters {
		if f.Field == "" {
			problems = append(problems, fmt.Sprintf("filter %d has no field", i))
		}
		switch f.Condition {
		case FilterEquals, FilterContains:
		case FilterGreaterThan, FilterLessThan:
			if _, ok := textnorm.ParseNumber(f.Value); !ok {
				problems = append(problems, fmt.Sprintf("filter %d: %s needs a numeric value, got %q", i, f.Condition, f.Value))
			}
		default:
			problems = append(problems, fmt.Sprintf("filter %d has unknown condition %q", i, f.Condition))
		}
	}
	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}
