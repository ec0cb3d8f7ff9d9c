package reconciler

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/travel-backoffice/internal/domain/textnorm"
)

// DefaultAliases are the header spellings recognised when a column mapping
// does not name a field explicitly. Matching is case-insensitive.
var DefaultAliases = map[string][]string{
	"booking_reference": {"booking reference", "booking ref", "booking_ref", "pnr", "reference", "ref", "رقم الحجز"},
	"passenger_name":    {"passenger name", "passenger", "pax name", "name", "traveler", "traveller", "اسم المسافر"},
	"ticket_number":     {"ticket number", "ticket no", "ticket", "e-ticket", "eticket", "رقم التذكرة"},
	"travel_date":       {"travel date", "flight date", "departure date", "date", "التاريخ"},
	"route":             {"route", "sector", "itinerary", "الخط"},
	"invoice_number":    {"invoice number", "invoice no", "invoice", "رقم الفاتورة"},
	PriceFieldID:        {"price", "amount", "total", "fare", "net", "net fare", "السعر", "المبلغ"},
}

// normalizeRows turns raw rows into Records holding one value per field.
func normalizeRows(rows []map[string]any, mapping map[string]string, fields []MatchingField, aliases map[string][]string) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, normalizeRow(row, mapping, fields, aliases))
	}
	return records
}

func normalizeRow(row map[string]any, mapping map[string]string, fields []MatchingField, aliases map[string][]string) Record {
	headers := make([]string, 0, len(row))
	for h := range row {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	record := make(Record, len(fields))
	for _, f := range fields {
		raw, found := lookupMapped(row, headers, mapping, f.ID)
		if !found {
			raw, found = lookupAlias(row, headers, mapping, f.ID, candidateHeaders(f, aliases))
		}
		record[f.ID] = coerce(raw, found, f.DataType)
	}
	return record
}

// lookupMapped finds the value of the first header (in sorted order) that the
// column mapping assigns to fieldID.
func lookupMapped(row map[string]any, headers []string, mapping map[string]string, fieldID string) (any, bool) {
	if len(mapping) == 0 {
		return nil, false
	}
	for _, h := range headers {
		if mapping[h] == fieldID {
			return row[h], true
		}
	}
	return nil, false
}

// lookupAlias matches headers against the candidate names. Headers the column
// mapping assigns to another field are never borrowed.
func lookupAlias(row map[string]any, headers []string, mapping map[string]string, fieldID string, candidates []string) (any, bool) {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		for _, h := range headers {
			if owner, mapped := mapping[h]; mapped && owner != fieldID {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(h), c) {
				return row[h], true
			}
		}
	}
	return nil, false
}

func candidateHeaders(f MatchingField, aliases map[string][]string) []string {
	candidates := []string{f.ID, f.Label}
	candidates = append(candidates, aliases[f.ID]...)
	candidates = append(candidates, DefaultAliases[f.ID]...)
	return candidates
}

func coerce(raw any, found bool, dt DataType) any {
	if dt == DataTypeNumber {
		if !found {
			return 0.0
		}
		n, _ := textnorm.ParseNumber(raw)
		return n
	}
	if !found {
		return ""
	}
	return textnorm.String(raw)
}

// normalizationFields returns the enabled matching fields plus any field the
// aggregation step or a filter rule needs. Extra fields keep the data type
// configured for them and default to string otherwise.
func normalizationFields(s Settings, filters []FilterRule) []MatchingField {
	fields := s.EnabledFields()

	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f.ID] = true
	}

	extra := func(id string, dt DataType) {
		if id == "" || present[id] {
			return
		}
		present[id] = true
		field := MatchingField{ID: id, DataType: dt}
		for _, configured := range s.MatchingFields {
			if configured.ID == id {
				field.Label = configured.Label
				if configured.DataType != "" {
					field.DataType = configured.DataType
				}
			}
		}
		fields = append(fields, field)
	}

	if s.Aggregation.Enabled {
		extra(s.Aggregation.AggregationKey, DataTypeString)
		extra(s.Aggregation.AggregationValueField, DataTypeNumber)
	}
	for _, rule := range filters {
		extra(strings.TrimSpace(rule.Field), DataTypeString)
	}
	return fields
}

// aggregate groups records sharing the aggregation key and sums the value
// field. The first record of each group supplies every other field. Records
// with an empty key pass through untouched.
func aggregate(records []Record, agg Aggregation) []Record {
	if !agg.Enabled || agg.AggregationKey == "" || agg.AggregationValueField == "" {
		return records
	}

	out := make([]Record, 0, len(records))
	index := make(map[string]int)
	totals := make(map[int]decimal.Decimal)

	for _, r := range records {
		key := textnorm.Key(r.Str(agg.AggregationKey))
		if key == "" {
			out = append(out, r)
			continue
		}

		value := decimal.NewFromFloat(r.Num(agg.AggregationValueField))
		if i, ok := index[key]; ok {
			totals[i] = totals[i].Add(value)
			continue
		}

		grouped := make(Record, len(r))
		for k, v := range r {
			grouped[k] = v
		}
		out = append(out, grouped)
		index[key] = len(out) - 1
		totals[len(out)-1] = value
	}

	for i, total := range totals {
		out[i][agg.AggregationValueField] = total.InexactFloat64()
	}
	return out
}

// applyFilters keeps the records satisfying every rule.
func applyFilters(records []Record, filters []FilterRule) []Record {
	if len(filters) == 0 {
		return records
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if matchesAll(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(r Record, filters []FilterRule) bool {
	for _, f := range filters {
		if !matchesFilter(r, f) {
			return false
		}
	}
	return true
}

func matchesFilter(r Record, f FilterRule) bool {
	value := r[strings.TrimSpace(f.Field)]

	switch f.Condition {
	case FilterEquals:
		if n, isNum := value.(float64); isNum {
			if want, ok := textnorm.ParseNumber(f.Value); ok {
				return n == want
			}
		}
		return textnorm.EqualFold(textnorm.String(value), f.Value)
	case FilterContains:
		return strings.Contains(textnorm.Fold(textnorm.String(value)), textnorm.Fold(f.Value))
	case FilterGreaterThan, FilterLessThan:
		want, ok := textnorm.ParseNumber(f.Value)
		if !ok {
			return true
		}
		got, _ := textnorm.ParseNumber(value)
		if f.Condition == FilterGreaterThan {
			return got > want
		}
		return got < want
	default:
		return true
	}
}
