// Package reconciler matches company-recorded transactions against the
// statement a supplier sends for the same period.
//
// Each side arrives as raw spreadsheet rows with arbitrary headers. Rows are
// normalised onto the configured matching fields, optionally filtered and
// (supplier side) aggregated, then paired greedily:
//
//   - company rows are visited in input order
//   - the first candidate passing every field exactly wins immediately
//   - otherwise the first candidate passing within tolerance is taken
//   - a paired supplier row is consumed and never matched again
//
// Bad or missing values never fail a run; they default to 0 or "" and show
// up as mismatches.
//
// Example usage:
//
//	r := reconciler.New(reconciler.DefaultSettings())
//	result := r.Reconcile(companyRows, supplierRows, nil)
//	fmt.Println(result.Summary.Matched)
package reconciler

import (
	"github.com/shopspring/decimal"
)

// Reconciler runs statement reconciliations for one settings snapshot.
type Reconciler struct {
	settings Settings
}

// New creates a reconciler for the given settings.
func New(settings Settings) *Reconciler {
	return &Reconciler{settings: settings}
}

// Reconcile is a convenience wrapper around New(settings).Reconcile.
func Reconcile(companyRows, supplierRows []map[string]any, settings Settings, filters []FilterRule) Result {
	return New(settings).Reconcile(companyRows, supplierRows, filters)
}

// candidateMatch is the best supplier row found for one company row.
type candidateMatch struct {
	index     int
	partial   bool
	details   []string
	priceDiff *float64
}

// Reconcile classifies every company and supplier row. Input rows are never
// modified.
func (r *Reconciler) Reconcile(companyRows, supplierRows []map[string]any, filters []FilterRule) Result {
	fields := r.settings.EnabledFields()
	normFields := normalizationFields(r.settings, filters)

	company := normalizeRows(companyRows, r.settings.ColumnMapping.Company, normFields, r.settings.Aliases)
	supplier := normalizeRows(supplierRows, r.settings.ColumnMapping.Supplier, normFields, r.settings.Aliases)

	company = applyFilters(company, filters)
	supplier = applyFilters(supplier, filters)
	supplier = aggregate(supplier, r.settings.Aggregation)

	var (
		matched           []ReconciledRecord
		partial           []ReconciledRecord
		missingInSupplier []ReconciledRecord
	)

	pool := make([]Record, len(supplier))
	copy(pool, supplier)

	for _, c := range company {
		best := findCandidate(c, pool, fields)
		if best == nil {
			missingInSupplier = append(missingInSupplier, project(c, fields, StatusMissingInSupplier, nil, nil))
			continue
		}

		pool = append(pool[:best.index], pool[best.index+1:]...)

		if best.partial {
			partial = append(partial, project(c, fields, StatusPartialMatch, best.details, best.priceDiff))
		} else {
			matched = append(matched, project(c, fields, StatusMatched, best.details, best.priceDiff))
		}
	}

	missingInCompany := make([]ReconciledRecord, 0, len(pool))
	for _, s := range pool {
		missingInCompany = append(missingInCompany, project(s, fields, StatusMissingInCompany, nil, nil))
	}

	records := make([]ReconciledRecord, 0, len(matched)+len(partial)+len(missingInCompany)+len(missingInSupplier))
	records = append(records, matched...)
	records = append(records, partial...)
	records = append(records, missingInCompany...)
	records = append(records, missingInSupplier...)

	totalPriceDiff := decimal.Zero
	for _, rec := range partial {
		if rec.PriceDifference != nil {
			totalPriceDiff = totalPriceDiff.Add(decimal.NewFromFloat(*rec.PriceDifference))
		}
	}

	return Result{
		Records: records,
		Summary: Summary{
			TotalCompanyRecords:  len(company),
			TotalSupplierRecords: len(supplier),
			Matched:              len(matched),
			PartialMatch:         len(partial),
			MissingInCompany:     len(missingInCompany),
			MissingInSupplier:    len(missingInSupplier),
			TotalRecords:         len(records),
			TotalPriceDifference: totalPriceDiff.InexactFloat64(),
		},
	}
}

// findCandidate scans the pool in order. The first exact candidate wins;
// failing that, the first partial candidate is returned.
func findCandidate(c Record, pool []Record, fields []MatchingField) *candidateMatch {
	var firstPartial *candidateMatch

	for i, s := range pool {
		ok, m := evaluateCandidate(c, s, fields)
		if !ok {
			continue
		}
		m.index = i
		if !m.partial {
			return m
		}
		if firstPartial == nil {
			firstPartial = m
		}
	}
	return firstPartial
}

// evaluateCandidate checks every field; any hard failure disqualifies.
func evaluateCandidate(c, s Record, fields []MatchingField) (bool, *candidateMatch) {
	m := &candidateMatch{}
	for _, f := range fields {
		res := evaluateField(f, c, s)
		switch res.outcome {
		case outcomeFail:
			return false, nil
		case outcomePartial:
			m.partial = true
			m.details = append(m.details, res.detail)
		}
		if res.priceDiff != nil {
			m.priceDiff = res.priceDiff
		}
	}
	return true, m
}

// project reduces a record to the enabled fields plus classification.
func project(r Record, fields []MatchingField, status Status, details []string, priceDiff *float64) ReconciledRecord {
	values := make(Record, len(fields))
	for _, f := range fields {
		values[f.ID] = r[f.ID]
	}
	if details == nil {
		details = []string{}
	}
	return ReconciledRecord{
		Status:          status,
		Details:         details,
		PriceDifference: priceDiff,
		Fields:          values,
	}
}
