package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/travel-backoffice/internal/domain/reconciler"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/storage"
)

// ReconciliationService runs statement reconciliations with the saved
// settings and records every run.
type ReconciliationService struct {
	repo     storage.Repository
	defaults reconciler.Settings
	filters  []reconciler.FilterRule
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconciliationService creates a service. defaults apply until settings
// are saved; defaultFilters apply when a request carries none.
func NewReconciliationService(repo storage.Repository, defaults reconciler.Settings, defaultFilters []reconciler.FilterRule, logger *slog.Logger) *ReconciliationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationService{
		repo:     repo,
		defaults: defaults,
		filters:  defaultFilters,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Settings returns the saved settings, or the defaults when none are saved.
func (s *ReconciliationService) Settings(ctx context.Context) (reconciler.Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return s.defaults, nil
	}
	if err != nil {
		return reconciler.Settings{}, fmt.Errorf("failed to load reconciliation settings: %w", err)
	}
	return *settings, nil
}

// UpdateSettings validates and saves new settings.
func (s *ReconciliationService) UpdateSettings(ctx context.Context, settings reconciler.Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to save reconciliation settings: %w", err)
	}
	s.logger.Info("Saved reconciliation settings", "enabled_fields", len(settings.EnabledFields()))
	return nil
}

// Reconcile matches company rows against supplier rows and records the run.
// nil filters fall back to the configured default filters.
func (s *ReconciliationService) Reconcile(ctx context.Context, companyRows, supplierRows []map[string]any, filters []reconciler.FilterRule) (*storage.ReconciliationRun, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if filters == nil {
		filters = s.filters
	}
	if err := reconciler.ValidateFilters(filters); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	started := s.now()
	result := reconciler.New(settings).Reconcile(companyRows, supplierRows, filters)

	run := &storage.ReconciliationRun{
		ID:           uuid.NewString(),
		CreatedAt:    started,
		CompanyRows:  len(companyRows),
		SupplierRows: len(supplierRows),
		Filters:      filters,
		Summary:      result.Summary,
		Result:       &result,
	}
	if err := s.repo.SaveReconciliationRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record reconciliation run: %w", err)
	}

	sum := result.Summary
	s.logger.Info("Reconciliation complete",
		"run_id", run.ID,
		"matched", sum.Matched,
		"partial_match", sum.PartialMatch,
		"missing_in_company", sum.MissingInCompany,
		"missing_in_supplier", sum.MissingInSupplier,
		"total_price_difference", sum.TotalPriceDifference,
		"duration", s.now().Sub(started),
	)
	return run, nil
}

// Runs lists recent runs without their records.
func (s *ReconciliationService) Runs(ctx context.Context, limit int) ([]storage.ReconciliationRun, error) {
	runs, err := s.repo.ListReconciliationRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliation runs: %w", err)
	}
	return runs, nil
}

// Run returns one recorded run with its records.
func (s *ReconciliationService) Run(ctx context.Context, id string) (*storage.ReconciliationRun, error) {
	run, err := s.repo.GetReconciliationRun(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reconciliation run %s: %w", id, err)
	}
	return run, nil
}
