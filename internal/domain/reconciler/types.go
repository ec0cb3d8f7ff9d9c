package reconciler

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DataType is the value type a matching field is normalised to.
type DataType string

const (
	DataTypeString DataType = "string"
	DataTypeNumber DataType = "number"
)

// RuleType selects how a field is compared between the two sides.
type RuleType string

const (
	RuleExact       RuleType = "exact"
	RuleFuzzy       RuleType = "fuzzy"
	RuleNumericDiff RuleType = "numeric_diff"
)

// PriceFieldID is the field whose numeric difference is reported on every
// reconciled record.
const PriceFieldID = "price"

// Rule configures the comparison for one field. Tolerance applies to fuzzy
// rules (0-100, minimum similarity percentage), MaxDiff to numeric_diff rules.
type Rule struct {
	Type      RuleType `json:"type" yaml:"type"`
	Tolerance float64  `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	MaxDiff   float64  `json:"max_diff,omitempty" yaml:"max_diff,omitempty"`
}

// MatchingField is one column taking part in reconciliation.
type MatchingField struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	DataType DataType `json:"data_type" yaml:"data_type"`
	Rule     Rule     `json:"rule" yaml:"rule"`
}

func (f MatchingField) displayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// ColumnMapping maps raw spreadsheet headers to field ids, per side.
type ColumnMapping struct {
	Company  map[string]string `json:"company" yaml:"company"`
	Supplier map[string]string `json:"supplier" yaml:"supplier"`
}

// Aggregation pre-groups supplier rows that report one line per invoice
// while the company books one line per passenger or segment.
type Aggregation struct {
	Enabled               bool   `json:"enabled" yaml:"enabled"`
	AggregationKey        string `json:"aggregation_key" yaml:"aggregation_key"`
	AggregationValueField string `json:"aggregation_value_field" yaml:"aggregation_value_field"`
}

// Settings is the full reconciliation configuration.
type Settings struct {
	ColumnMapping  ColumnMapping       `json:"column_mapping" yaml:"column_mapping"`
	MatchingFields []MatchingField     `json:"matching_fields" yaml:"matching_fields"`
	Aggregation    Aggregation         `json:"aggregation" yaml:"aggregation"`
	Aliases        map[string][]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// EnabledFields returns the enabled matching fields in configured order.
func (s Settings) EnabledFields() []MatchingField {
	fields := make([]MatchingField, 0, len(s.MatchingFields))
	for _, f := range s.MatchingFields {
		if f.Enabled {
			fields = append(fields, f)
		}
	}
	return fields
}

// FilterCondition is the comparison applied by a FilterRule.
type FilterCondition string

const (
	FilterEquals      FilterCondition = "equals"
	FilterContains    FilterCondition = "contains"
	FilterGreaterThan FilterCondition = "greater_than"
	FilterLessThan    FilterCondition = "less_than"
)

// FilterRule narrows both sides before matching.
type FilterRule struct {
	Field     string          `json:"field" yaml:"field"`
	Condition FilterCondition `json:"condition" yaml:"condition"`
	Value     string          `json:"value" yaml:"value"`
}

// Record is one normalised row: field id to string or float64.
type Record map[string]any

// Str returns the string value of a field, empty when absent.
func (r Record) Str(id string) string {
	if s, ok := r[id].(string); ok {
		return s
	}
	if r[id] == nil {
		return ""
	}
	return fmt.Sprint(r[id])
}

// Num returns the numeric value of a field, zero when absent.
func (r Record) Num(id string) float64 {
	if n, ok := r[id].(float64); ok {
		return n
	}
	return 0
}

// Status classifies a reconciled record.
type Status string

const (
	StatusMatched           Status = "MATCHED"
	StatusPartialMatch      Status = "PARTIAL_MATCH"
	StatusMissingInCompany  Status = "MISSING_IN_COMPANY"
	StatusMissingInSupplier Status = "MISSING_IN_SUPPLIER"
)

// ReconciledRecord is one output row. Fields holds the enabled field values
// of the company record (or the supplier record for MISSING_IN_COMPANY).
type ReconciledRecord struct {
	Status          Status
	Details         []string
	PriceDifference *float64
	Fields          Record
}

// MarshalJSON flattens the field values next to status and details.
func (r ReconciledRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["status"] = r.Status
	details := r.Details
	if details == nil {
		details = []string{}
	}
	out["details"] = details
	if r.PriceDifference != nil {
		out["price_difference"] = *r.PriceDifference
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON so stored runs can be read back.
func (r *ReconciledRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = ReconciledRecord{Fields: Record{}}
	for k, v := range raw {
		switch k {
		case "status":
			s, _ := v.(string)
			r.Status = Status(s)
		case "details":
			items, _ := v.([]any)
			r.Details = make([]string, 0, len(items))
			for _, item := range items {
				r.Details = append(r.Details, fmt.Sprint(item))
			}
		case "price_difference":
			if f, ok := v.(float64); ok {
				r.PriceDifference = &f
			}
		default:
			r.Fields[k] = v
		}
	}
	return nil
}

// Summary aggregates a reconciliation run.
type Summary struct {
	TotalCompanyRecords  int     `json:"total_company_records"`
	TotalSupplierRecords int     `json:"total_supplier_records"`
	Matched              int     `json:"matched"`
	PartialMatch         int     `json:"partial_match"`
	MissingInCompany     int     `json:"missing_in_company"`
	MissingInSupplier    int     `json:"missing_in_supplier"`
	TotalRecords         int     `json:"total_records"`
	TotalPriceDifference float64 `json:"total_price_difference"`
}

// Result is the output of Reconcile.
type Result struct {
	Records []ReconciledRecord `json:"records"`
	Summary Summary            `json:"summary"`
}

// ConfigurationError lists every inconsistency found by Settings.Validate.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid reconciliation settings: " + strings.Join(e.Problems, "; ")
}
