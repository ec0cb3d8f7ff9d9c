package storage

import (
	"context"
	"errors"

	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/domain/reconciler"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory)
// and makes testing with mocks straightforward.
type Repository interface {
	ReportRepository
	SettingsRepository
	ReconciliationRunRepository
	Close() error
}

// ReportRepository stores flight reports as JSON documents.
type ReportRepository interface {
	// SaveReports replaces several reports in one transaction
	SaveReports(ctx context.Context, reports []audit.FlightReport) error

	// GetReport returns ErrNotFound for unknown ids
	GetReport(ctx context.Context, id string) (*audit.FlightReport, error)

	// ListReports returns every report, most recent flight first
	ListReports(ctx context.Context) ([]audit.FlightReport, error)

	// DeleteReport removes one report and saves rest atomically. It returns
	// ErrNotFound for unknown ids and then writes nothing.
	DeleteReport(ctx context.Context, id string, rest []audit.FlightReport) error
}

// SettingsRepository holds the single saved reconciliation settings document.
type SettingsRepository interface {
	// GetSettings returns ErrNotFound until settings are saved once
	GetSettings(ctx context.Context) (*reconciler.Settings, error)

	SaveSettings(ctx context.Context, settings reconciler.Settings) error
}

// ReconciliationRunRepository records reconciliation runs.
type ReconciliationRunRepository interface {
	SaveReconciliationRun(ctx context.Context, run *ReconciliationRun) error

	// ListReconciliationRuns returns run headers, newest first, without results
	ListReconciliationRuns(ctx context.Context, limit int) ([]ReconciliationRun, error)

	// GetReconciliationRun returns a run with its full result
	GetReconciliationRun(ctx context.Context, id string) (*ReconciliationRun, error)
}
