package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/domain/reconciler"
)

// Storage provides SQLite database access for flight reports and
// reconciliation data. It implements the Repository interface.
type Storage struct {
	db *sqlx.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(context.Background(), db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

const upsertReport = `
INSERT INTO flight_reports (id, file_name, flight_date, route, document, created_at, updated_at)
VALUES (:id, :file_name, :flight_date, :route, :document, :created_at, :updated_at)
ON CONFLICT(id) DO UPDATE SET
	file_name   = excluded.file_name,
	flight_date = excluded.flight_date,
	route       = excluded.route,
	document    = excluded.document,
	updated_at  = excluded.updated_at`

func toReportRow(report audit.FlightReport, now time.Time) (reportRow, error) {
	doc, err := json.Marshal(report)
	if err != nil {
		return reportRow{}, fmt.Errorf("failed to encode report %s: %w", report.ID, err)
	}
	return reportRow{
		ID:         report.ID,
		FileName:   report.FileName,
		FlightDate: report.FlightDate,
		Route:      report.Route,
		Document:   string(doc),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func fromReportRow(row reportRow) (*audit.FlightReport, error) {
	var report audit.FlightReport
	if err := json.Unmarshal([]byte(row.Document), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", row.ID, err)
	}
	report.ID = row.ID
	return &report, nil
}

// SaveReports writes all reports in one transaction
func (s *Storage) SaveReports(ctx context.Context, reports []audit.FlightReport) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertReports(ctx, tx, reports); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reports: %w", err)
	}
	return nil
}

func upsertReports(ctx context.Context, tx *sqlx.Tx, reports []audit.FlightReport) error {
	if len(reports) == 0 {
		return nil
	}

	stmt, err := tx.PrepareNamedContext(ctx, upsertReport)
	if err != nil {
		return fmt.Errorf("failed to prepare report upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, report := range reports {
		row, err := toReportRow(report, now)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("failed to save report %s: %w", report.ID, err)
		}
	}
	return nil
}

// GetReport retrieves a report by id
func (s *Storage) GetReport(ctx context.Context, id string) (*audit.FlightReport, error) {
	var row reportRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM flight_reports WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return fromReportRow(row)
}

// ListReports returns all reports ordered by flight date, newest first
func (s *Storage) ListReports(ctx context.Context) ([]audit.FlightReport, error) {
	var rows []reportRow
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM flight_reports ORDER BY flight_date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]audit.FlightReport, 0, len(rows))
	for _, row := range rows {
		report, err := fromReportRow(row)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// DeleteReport removes a report by id and writes rest in the same
// transaction. Nothing changes when the id is unknown.
func (s *Storage) DeleteReport(ctx context.Context, id string, rest []audit.FlightReport) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM flight_reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := upsertReports(ctx, tx, rest); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report deletion: %w", err)
	}
	return nil
}

// GetSettings returns the saved reconciliation settings
func (s *Storage) GetSettings(ctx context.Context) (*reconciler.Settings, error) {
	var doc string
	err := s.db.GetContext(ctx, &doc, `SELECT document FROM reconciliation_settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	var settings reconciler.Settings
	if err := json.Unmarshal([]byte(doc), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings replaces the reconciliation settings
func (s *Storage) SaveSettings(ctx context.Context, settings reconciler.Settings) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_settings (id, document, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		string(doc), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// SaveReconciliationRun records a run with its full result
func (s *Storage) SaveReconciliationRun(ctx context.Context, run *ReconciliationRun) error {
	filters := run.Filters
	if filters == nil {
		filters = []reconciler.FilterRule{}
	}
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("failed to encode filters: %w", err)
	}
	result := run.Result
	if result == nil {
		result = &reconciler.Result{Records: []reconciler.ReconciledRecord{}, Summary: run.Summary}
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	row := runRow{
		ID:                   run.ID,
		CreatedAt:            run.CreatedAt,
		CompanyRows:          run.CompanyRows,
		SupplierRows:         run.SupplierRows,
		TotalCompanyRecords:  run.Summary.TotalCompanyRecords,
		TotalSupplierRecords: run.Summary.TotalSupplierRecords,
		Matched:              run.Summary.Matched,
		PartialMatch:         run.Summary.PartialMatch,
		MissingInCompany:     run.Summary.MissingInCompany,
		MissingInSupplier:    run.Summary.MissingInSupplier,
		TotalPriceDifference: run.Summary.TotalPriceDifference,
		Filters:              string(filtersJSON),
		Result:               string(resultJSON),
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO reconciliation_runs
		(id, created_at, company_rows, supplier_rows, total_company_records, total_supplier_records,
		 matched, partial_match, missing_in_company, missing_in_supplier, total_price_difference, filters, result)
		VALUES (:id, :created_at, :company_rows, :supplier_rows, :total_company_records, :total_supplier_records,
		 :matched, :partial_match,
		 :missing_in_company, :missing_in_supplier, :total_price_difference, :filters, :result)`, row)
	if err != nil {
		return fmt.Errorf("failed to save reconciliation run %s: %w", run.ID, err)
	}
	return nil
}

// ListReconciliationRuns returns recent runs without their results
func (s *Storage) ListReconciliationRuns(ctx context.Context, limit int) ([]ReconciliationRun, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, created_at, company_rows, supplier_rows, total_company_records, total_supplier_records,
		       matched, partial_match,
		       missing_in_company, missing_in_supplier, total_price_difference, filters, '' AS result
		FROM reconciliation_runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliation runs: %w", err)
	}

	runs := make([]ReconciliationRun, 0, len(rows))
	for _, row := range rows {
		run, err := fromRunRow(row, false)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, nil
}

// GetReconciliationRun retrieves a run and its result by id
func (s *Storage) GetReconciliationRun(ctx context.Context, id string) (*ReconciliationRun, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM reconciliation_runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reconciliation run %s: %w", id, err)
	}
	return fromRunRow(row, true)
}

func fromRunRow(row runRow, withResult bool) (*ReconciliationRun, error) {
	run := &ReconciliationRun{
		ID:           row.ID,
		CreatedAt:    row.CreatedAt,
		CompanyRows:  row.CompanyRows,
		SupplierRows: row.SupplierRows,
		Summary:      row.summary(),
	}
	if err := json.Unmarshal([]byte(row.Filters), &run.Filters); err != nil {
		return nil, fmt.Errorf("failed to decode filters of run %s: %w", row.ID, err)
	}
	if withResult {
		var result reconciler.Result
		if err := json.Unmarshal([]byte(row.Result), &result); err != nil {
			return nil, fmt.Errorf("failed to decode result of run %s: %w", row.ID, err)
		}
		run.Summary = result.Summary
		run.Result = &result
	}
	return run, nil
}
