package cli

import (
	"fmt"
	"log/slog"

	"github.com/eshaffer321/travel-backoffice/internal/application/service"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/config"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/logging"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/storage"
)

// Services bundles the storage and services a command needs.
type Services struct {
	Store  *storage.Storage
	Audits *service.AuditService
	Recon  *service.ReconciliationService
}

// OpenServices opens the configured database and builds both services,
// each with its own system-scoped logger.
func OpenServices(cfg *config.Config, loggingCfg config.LoggingConfig) (*Services, error) {
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return &Services{
		Store:  store,
		Audits: service.NewAuditService(store, logging.NewLoggerWithSystem(loggingCfg, "audit")),
		Recon: service.NewReconciliationService(
			store,
			cfg.ReconciliationSettings(),
			cfg.Reconciliation.Filters,
			logging.NewLoggerWithSystem(loggingCfg, "reconcile"),
		),
	}, nil
}

// Close closes the underlying storage.
func (s *Services) Close() error {
	return s.Store.Close()
}

// LoggingConfig returns the configured logging settings, raised to debug
// when verbose is set.
func LoggingConfig(cfg *config.Config, verbose bool) config.LoggingConfig {
	loggingCfg := cfg.Observability.Logging
	if verbose {
		loggingCfg.Level = "debug"
	}
	return loggingCfg
}

func newLogger(cfg *config.Config, verbose bool, system string) *slog.Logger {
	return logging.NewLoggerWithSystem(LoggingConfig(cfg, verbose), system)
}
