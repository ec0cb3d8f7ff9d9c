package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/domain/reconciler"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	mu       sync.Mutex
	reports  map[string]audit.FlightReport
	settings *reconciler.Settings
	runs     map[string]ReconciliationRun

	// Hooks for test assertions
	SaveReportsCalled  bool
	DeleteReportCalled bool
	LastSavedReports   []audit.FlightReport
	SaveSettingsCalled bool
	SaveRunCalled      bool
	LastSavedRun       *ReconciliationRun

	// Error injection for testing error paths
	SaveReportsErr  error
	GetReportErr    error
	ListReportsErr  error
	DeleteReportErr error
	GetSettingsErr  error
	SaveSettingsErr error
	SaveRunErr      error
	GetRunErr       error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		reports: make(map[string]audit.FlightReport),
		runs:    make(map[string]ReconciliationRun),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveReports saves every report or none
func (m *MockRepository) SaveReports(_ context.Context, reports []audit.FlightReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveReportsCalled = true
	m.LastSavedReports = reports
	if m.SaveReportsErr != nil {
		return m.SaveReportsErr
	}
	for _, r := range reports {
		m.reports[r.ID] = r.Clone()
	}
	return nil
}

// GetReport returns a copy of a stored report
func (m *MockRepository) GetReport(_ context.Context, id string) (*audit.FlightReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetReportErr != nil {
		return nil, m.GetReportErr
	}
	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := r.Clone()
	return &out, nil
}

// ListReports returns copies ordered like the SQLite implementation
func (m *MockRepository) ListReports(_ context.Context) ([]audit.FlightReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListReportsErr != nil {
		return nil, m.ListReportsErr
	}
	out := make([]audit.FlightReport, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FlightDate != out[j].FlightDate {
			return out[i].FlightDate > out[j].FlightDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteReport removes a report and saves rest, or changes nothing
func (m *MockRepository) DeleteReport(_ context.Context, id string, rest []audit.FlightReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteReportCalled = true
	if m.DeleteReportErr != nil {
		return m.DeleteReportErr
	}
	if _, ok := m.reports[id]; !ok {
		return ErrNotFound
	}
	delete(m.reports, id)
	for _, r := range rest {
		m.reports[r.ID] = r.Clone()
	}
	return nil
}

// GetSettings returns the saved settings or ErrNotFound
func (m *MockRepository) GetSettings(_ context.Context) (*reconciler.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetSettingsErr != nil {
		return nil, m.GetSettingsErr
	}
	if m.settings == nil {
		return nil, ErrNotFound
	}
	return copySettings(*m.settings)
}

// SaveSettings stores a copy of the settings
func (m *MockRepository) SaveSettings(_ context.Context, settings reconciler.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveSettingsCalled = true
	if m.SaveSettingsErr != nil {
		return m.SaveSettingsErr
	}
	copied, err := copySettings(settings)
	if err != nil {
		return err
	}
	m.settings = copied
	return nil
}

// SaveReconciliationRun stores a run
func (m *MockRepository) SaveReconciliationRun(_ context.Context, run *ReconciliationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveRunCalled = true
	m.LastSavedRun = run
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	m.runs[run.ID] = *run
	return nil
}

// ListReconciliationRuns returns runs newest first, without results
func (m *MockRepository) ListReconciliationRuns(_ context.Context, limit int) ([]ReconciliationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]ReconciliationRun, 0, len(m.runs))
	for _, run := range m.runs {
		run.Result = nil
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetReconciliationRun returns a stored run
func (m *MockRepository) GetReconciliationRun(_ context.Context, id string) (*ReconciliationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &run, nil
}

// copySettings deep-copies through JSON, the same path the database takes.
func copySettings(s reconciler.Settings) (*reconciler.Settings, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out reconciler.Settings
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
