package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/domain/textnorm"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/storage"
)

// AuditEngine annotates a full report collection.
type AuditEngine interface {
	Run(reports []audit.FlightReport) []audit.FlightReport
}

// AuditFunc adapts a plain function to AuditEngine.
type AuditFunc func(reports []audit.FlightReport) []audit.FlightReport

// Run calls f.
func (f AuditFunc) Run(reports []audit.FlightReport) []audit.FlightReport {
	return f(reports)
}

// ReportFilter narrows ListReports. Empty fields match everything.
type ReportFilter struct {
	PNR   string
	Route string
}

// AuditService loads flight reports, audits the whole collection and
// persists the annotated copies.
//
// Every write re-audits everything: issues and trip discounts depend on the
// other reports, so one change can move annotations on any report.
type AuditService struct {
	repo   storage.Repository
	engine AuditEngine
	logger *slog.Logger

	// one read-audit-write cycle at a time
	mu sync.Mutex
}

// NewAuditService creates an audit service using the standard engine.
func NewAuditService(repo storage.Repository, logger *slog.Logger) *AuditService {
	return NewAuditServiceWithEngine(repo, AuditFunc(audit.RunAudit), logger)
}

// NewAuditServiceWithEngine creates an audit service with a custom engine.
func NewAuditServiceWithEngine(repo storage.Repository, engine AuditEngine, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{repo: repo, engine: engine, logger: logger}
}

// ListReports returns stored reports matching the filter.
func (s *AuditService) ListReports(ctx context.Context, filter ReportFilter) ([]audit.FlightReport, error) {
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	out := make([]audit.FlightReport, 0, len(reports))
	for _, r := range reports {
		if filter.matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f ReportFilter) matches(r audit.FlightReport) bool {
	if f.Route != "" && textnorm.Key(f.Route) != textnorm.Key(r.Route) {
		return false
	}
	if f.PNR == "" {
		return true
	}
	want := textnorm.Key(f.PNR)
	for _, g := range r.PnrGroups {
		if textnorm.Key(g.BookingReference) == want || textnorm.Key(g.PNR) == want {
			return true
		}
	}
	for _, p := range r.Passengers {
		if textnorm.Key(p.BookingReference) == want {
			return true
		}
	}
	return false
}

// GetReport returns one stored report.
func (s *AuditService) GetReport(ctx context.Context, id string) (*audit.FlightReport, error) {
	report, err := s.repo.GetReport(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return report, nil
}

// RunAudit re-audits every stored report and returns the annotated copies,
// most recent flight first.
func (s *AuditService) RunAudit(ctx context.Context) ([]audit.FlightReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}
	return s.auditAndSave(ctx, reports)
}

// IngestReport stores a new or replaced report and re-audits the collection.
// A missing id is generated.
func (s *AuditService) IngestReport(ctx context.Context, report audit.FlightReport) (*audit.FlightReport, error) {
	if err := validateReport(report); err != nil {
		return nil, err
	}
	if strings.TrimSpace(report.ID) == "" {
		report.ID = uuid.NewString()
	}
	if report.PaxCount == 0 {
		report.PaxCount = len(report.Passengers)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}
	reports = replaceReport(reports, report)

	audited, err := s.auditAndSave(ctx, reports)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ingested flight report", "report_id", report.ID, "route", report.Route, "flight_date", report.FlightDate)
	return findReport(audited, report.ID)
}

// DeleteReport removes a report and re-audits the rest. The removal and the
// re-audited reports are stored together, so a failure leaves the collection
// as it was.
func (s *AuditService) DeleteReport(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reports: %w", err)
	}

	rest := make([]audit.FlightReport, 0, len(reports))
	for _, r := range reports {
		if r.ID != id {
			rest = append(rest, r)
		}
	}
	if len(rest) == len(reports) {
		return fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}

	audited := s.engine.Run(rest)
	if err := s.repo.DeleteReport(ctx, id, audited); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrReportNotFound, id)
		}
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}

	s.logAudit(ctx, audited)
	s.logger.Info("Deleted flight report", "report_id", id)
	return nil
}

// UpdateDiscount sets the manual discount of one report. details wins over
// value; a zero value without details clears the discount. The collection is
// re-audited so the stored annotations stay consistent.
func (s *AuditService) UpdateDiscount(ctx context.Context, reportID string, value float64, notes string, details *audit.ManualDiscount) (*audit.FlightReport, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: discount value cannot be negative", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}

	idx := -1
	for i := range reports {
		if reports[i].ID == reportID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, reportID)
	}

	discount := audit.DiscountFromInput(value, details)
	reports[idx] = audit.ApplyManualDiscount(reports[idx], discount, notes)

	audited, err := s.auditAndSave(ctx, reports)
	if err != nil {
		return nil, err
	}

	updated, err := findReport(audited, reportID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Updated manual discount",
		"report_id", reportID,
		"manual_discount", updated.ManualDiscountValue,
		"net_revenue", updated.FilteredRevenue,
	)
	return updated, nil
}

func (s *AuditService) auditAndSave(ctx context.Context, reports []audit.FlightReport) ([]audit.FlightReport, error) {
	audited := s.engine.Run(reports)
	if err := s.repo.SaveReports(ctx, audited); err != nil {
		return nil, fmt.Errorf("failed to save audited reports: %w", err)
	}
	s.logAudit(ctx, audited)
	return audited, nil
}

func (s *AuditService) logAudit(ctx context.Context, audited []audit.FlightReport) {
	summary := audit.Summarize(audited)
	s.logger.Info("Audit complete",
		"reports", summary.Reports,
		"duplicate_pnr", summary.Issues[audit.IssueDuplicatePNR],
		"duplicate_file", summary.Issues[audit.IssueDuplicateFile],
		"unmatched_return", summary.Issues[audit.IssueUnmatchedReturn],
		"net_revenue", summary.NetRevenue,
	)
	if s.logger.Enabled(ctx, slog.LevelDebug) {
		logged := make(map[string]bool)
		for _, r := range audited {
			for _, issue := range r.Issues {
				if logged[issue.ID] {
					continue
				}
				logged[issue.ID] = true
				s.logger.Debug("Audit issue", "type", issue.Type, "pnr", issue.PNR, "description", issue.Description)
			}
		}
	}
}

func validateReport(r audit.FlightReport) error {
	var problems []string
	if r.TotalRevenue < 0 {
		problems = append(problems, "total_revenue cannot be negative")
	}
	for i, p := range r.Passengers {
		if p.Payable < 0 {
			problems = append(problems, fmt.Sprintf("passenger %d has a negative payable", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func replaceReport(reports []audit.FlightReport, report audit.FlightReport) []audit.FlightReport {
	for i := range reports {
		if reports[i].ID == report.ID {
			reports[i] = report
			return reports
		}
	}
	return append(reports, report)
}

func findReport(reports []audit.FlightReport, id string) (*audit.FlightReport, error) {
	for i := range reports {
		if reports[i].ID == id {
			r := reports[i]
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
}
