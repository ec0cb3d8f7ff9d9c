package storage

import (
	"time"

	"github.com/eshaffer321/travel-backoffice/internal/domain/reconciler"
)

// ReconciliationRun is one recorded reconciliation. CompanyRows and
// SupplierRows count the raw input rows; Summary counts what was reconciled.
// Result is nil in listings.
type ReconciliationRun struct {
	ID           string                  `json:"id"`
	CreatedAt    time.Time               `json:"created_at"`
	CompanyRows  int                     `json:"company_rows"`
	SupplierRows int                     `json:"supplier_rows"`
	Filters      []reconciler.FilterRule `json:"filters"`
	Summary      reconciler.Summary      `json:"summary"`
	Result       *reconciler.Result      `json:"result,omitempty"`
}

// reportRow maps the flight_reports table.
type reportRow struct {
	ID         string    `db:"id"`
	FileName   string    `db:"file_name"`
	FlightDate string    `db:"flight_date"`
	Route      string    `db:"route"`
	Document   string    `db:"document"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// runRow maps the reconciliation_runs table.
type runRow struct {
	ID                   string    `db:"id"`
	CreatedAt            time.Time `db:"created_at"`
	CompanyRows          int       `db:"company_rows"`
	SupplierRows         int       `db:"supplier_rows"`
	TotalCompanyRecords  int       `db:"total_company_records"`
	TotalSupplierRecords int       `db:"total_supplier_records"`
	Matched              int       `db:"matched"`
	PartialMatch         int       `db:"partial_match"`
	MissingInCompany     int       `db:"missing_in_company"`
	MissingInSupplier    int       `db:"missing_in_supplier"`
	TotalPriceDifference float64   `db:"total_price_difference"`
	Filters              string    `db:"filters"`
	Result               string    `db:"result"`
}

func (r runRow) summary() reconciler.Summary {
	return reconciler.Summary{
		TotalCompanyRecords:  r.TotalCompanyRecords,
		TotalSupplierRecords: r.TotalSupplierRecords,
		Matched:              r.Matched,
		PartialMatch:         r.PartialMatch,
		MissingInCompany:     r.MissingInCompany,
		MissingInSupplier:    r.MissingInSupplier,
		TotalRecords:         r.Matched + r.PartialMatch + r.MissingInCompany + r.MissingInSupplier,
		TotalPriceDifference: r.TotalPriceDifference,
	}
}
