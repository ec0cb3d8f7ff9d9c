package dto

import (
	"time"

	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/domain/reconciler"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// NewHealthResponse creates a health response for a process started at started.
func NewHealthResponse(started time.Time) HealthResponse {
	now := time.Now()
	return HealthResponse{
		Status:    "ok",
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    now.Sub(started).Truncate(time.Second).String(),
	}
}

// ReportListResponse is returned when listing flight reports.
type ReportListResponse struct {
	Reports []audit.FlightReport `json:"reports"`
	Count   int                  `json:"count"`
}

// NewReportListResponse wraps reports, never returning a null list.
func NewReportListResponse(reports []audit.FlightReport) ReportListResponse {
	if reports == nil {
		reports = []audit.FlightReport{}
	}
	return ReportListResponse{Reports: reports, Count: len(reports)}
}

// AuditResponse is returned by POST /api/audit.
type AuditResponse struct {
	Reports []audit.FlightReport `json:"reports"`
	Summary audit.Summary        `json:"summary"`
}

// ReconciliationRunResponse represents a reconciliation run. Records is
// only filled when a single run is requested or just created.
type ReconciliationRunResponse struct {
	ID           string                        `json:"id"`
	CreatedAt    string                        `json:"created_at"`
	CompanyRows  int                           `json:"company_rows"`
	SupplierRows int                           `json:"supplier_rows"`
	Filters      []reconciler.FilterRule       `json:"filters"`
	Summary      reconciler.Summary            `json:"summary"`
	Records      []reconciler.ReconciledRecord `json:"records,omitempty"`
}

// ReconciliationRunListResponse is returned when listing runs.
type ReconciliationRunListResponse struct {
	Runs  []ReconciliationRunResponse `json:"runs"`
	Count int                         `json:"count"`
}
