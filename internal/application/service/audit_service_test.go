package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/logging"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/storage"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Run(reports []audit.FlightReport) []audit.FlightReport {
	args := m.Called(reports)
	return args.Get(0).([]audit.FlightReport)
}

func flight(id, route, date string, passengers ...audit.Passenger) audit.FlightReport {
	total := 0.0
	groups := map[string]int{}
	var pnrs []audit.PnrGroup
	for _, p := range passengers {
		total += p.Payable
		i, ok := groups[p.BookingReference]
		if !ok {
			pnrs = append(pnrs, audit.PnrGroup{BookingReference: p.BookingReference, PNR: p.BookingReference})
			i = len(pnrs) - 1
			groups[p.BookingReference] = i
		}
		pnrs[i].Passengers = append(pnrs[i].Passengers, p)
		pnrs[i].PaxCount++
	}
	return audit.FlightReport{
		ID:           id,
		FileName:     id + ".pdf",
		Route:        route,
		FlightDate:   date,
		FlightTime:   "08:00",
		PaxCount:     len(passengers),
		TotalRevenue: total,
		Passengers:   passengers,
		PnrGroups:    pnrs,
	}
}

func traveler(name, ref string, payable float64) audit.Passenger {
	return audit.Passenger{Name: name, BookingReference: ref, Payable: payable, PassengerType: audit.PassengerAdult}
}

func seed(t *testing.T, repo *storage.MockRepository, reports ...audit.FlightReport) {
	t.Helper()
	require.NoError(t, repo.SaveReports(context.Background(), reports))
	repo.SaveReportsCalled = false
	repo.LastSavedReports = nil
}

func TestAuditService_RunAudit_PersistsAnnotations(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	seed(t, repo,
		flight("A", "BGW-DXB", "2024-01-01", traveler("Ali Hassan", "ABC123", 300)),
		flight("B", "DXB-BGW", "2024-01-05", traveler("Ali Hassan", "ABC123", 300)),
	)
	svc := NewAuditService(repo, logging.Discard())

	// Act
	reports, err := svc.RunAudit(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "B", reports[0].ID, "Most recent flight first")
	assert.True(t, repo.SaveReportsCalled)

	stored, err := repo.GetReport(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, audit.TripReturn, stored.Passengers[0].TripType)
	assert.Equal(t, 300.0, stored.TotalDiscount)
	assert.Equal(t, 0.0, stored.FilteredRevenue)
}

func TestAuditService_RunAudit_UsesEngine(t *testing.T) {
	repo := storage.NewMockRepository()
	seed(t, repo, flight("A", "BGW-DXB", "2024-01-01"))

	engine := &mockEngine{}
	annotated := []audit.FlightReport{{ID: "A", FilteredRevenue: 42}}
	engine.On("Run", mock.MatchedBy(func(in []audit.FlightReport) bool {
		return len(in) == 1 && in[0].ID == "A"
	})).Return(annotated).Once()

	svc := NewAuditServiceWithEngine(repo, engine, logging.Discard())

	reports, err := svc.RunAudit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, annotated, reports)
	assert.Equal(t, annotated, repo.LastSavedReports)
	engine.AssertExpectations(t)
}

func TestAuditService_RunAudit_StorageErrors(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		repo := storage.NewMockRepository()
		repo.ListReportsErr = errors.New("db down")
		svc := NewAuditService(repo, logging.Discard())

		_, err := svc.RunAudit(context.Background())

		assert.ErrorContains(t, err, "db down")
		assert.False(t, repo.SaveReportsCalled)
	})

	t.Run("save", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seed(t, repo, flight("A", "BGW-DXB", "2024-01-01"))
		repo.SaveReportsErr = errors.New("disk full")
		svc := NewAuditService(repo, logging.Discard())

		_, err := svc.RunAudit(context.Background())

		assert.ErrorContains(t, err, "disk full")
	})
}

func TestAuditService_IngestReport(t *testing.T) {
	repo := storage.NewMockRepository()
	seed(t, repo, flight("A", "BGW-IST", "2024-02-01", traveler("Noor", "XYZ999", 100)))
	svc := NewAuditService(repo, logging.Discard())

	incoming := flight("", "BGW-JED", "2024-02-02", traveler("Zaid", "XYZ999", 120))
	incoming.PaxCount = 0

	ingested, err := svc.IngestReport(context.Background(), incoming)

	require.NoError(t, err)
	require.NotEmpty(t, ingested.ID, "An id is generated")
	assert.Equal(t, 1, ingested.PaxCount)
	require.Len(t, ingested.Issues, 1)
	assert.Equal(t, audit.IssueDuplicatePNR, ingested.Issues[0].Type)

	// the existing report picks up the issue as well
	existing, err := repo.GetReport(context.Background(), "A")
	require.NoError(t, err)
	require.Len(t, existing.Issues, 1)
	assert.Equal(t, ingested.Issues[0].ID, existing.Issues[0].ID)
}

func TestAuditService_IngestReport_Invalid(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := NewAuditService(repo, logging.Discard())

	bad := flight("A", "BGW-DXB", "2024-01-01", traveler("Ali", "R1", -5))

	_, err := svc.IngestReport(context.Background(), bad)

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.False(t, repo.SaveReportsCalled)
}

func TestAuditService_UpdateDiscount(t *testing.T) {
	repo := storage.NewMockRepository()
	child := traveler("Kid", "P1", 100)
	child.PassengerType = audit.PassengerChild
	seed(t, repo, flight("A", "BGW-DXB", "2024-01-01",
		traveler("Adult One", "P1", 300),
		traveler("Adult Two", "P1", 300),
		child,
	))
	svc := NewAuditService(repo, logging.Discard())
	ctx := context.Background()

	t.Run("per passenger details win", func(t *testing.T) {
		details := audit.PerPassengerDiscount(audit.PerPassengerRates{Adult: 10, Child: 5})

		updated, err := svc.UpdateDiscount(ctx, "A", 999, "agency promo", &details)

		require.NoError(t, err)
		assert.Equal(t, 25.0, updated.ManualDiscountValue)
		assert.Equal(t, 675.0, updated.FilteredRevenue)
		assert.Equal(t, "agency promo", updated.ManualDiscountNotes)

		stored, err := repo.GetReport(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, 25.0, stored.ManualDiscountValue)
	})

	t.Run("fixed value", func(t *testing.T) {
		updated, err := svc.UpdateDiscount(ctx, "A", 50, "", nil)

		require.NoError(t, err)
		fixed, ok := updated.ManualDiscount.Fixed()
		require.True(t, ok)
		assert.Equal(t, 50.0, fixed)
		assert.Equal(t, 650.0, updated.FilteredRevenue)
	})

	t.Run("zero clears", func(t *testing.T) {
		updated, err := svc.UpdateDiscount(ctx, "A", 0, "", nil)

		require.NoError(t, err)
		assert.Nil(t, updated.ManualDiscount)
		assert.Equal(t, 700.0, updated.FilteredRevenue)
	})

	t.Run("unknown report", func(t *testing.T) {
		_, err := svc.UpdateDiscount(ctx, "missing", 10, "", nil)
		assert.ErrorIs(t, err, ErrReportNotFound)
	})

	t.Run("negative value", func(t *testing.T) {
		_, err := svc.UpdateDiscount(ctx, "A", -1, "", nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestAuditService_DeleteReport_ReauditsRemaining(t *testing.T) {
	repo := storage.NewMockRepository()
	seed(t, repo,
		flight("A", "BGW-DXB", "2024-01-01", traveler("Ali Hassan", "ABC123", 300)),
		flight("B", "DXB-BGW", "2024-01-05", traveler("Ali Hassan", "ABC123", 300)),
	)
	svc := NewAuditService(repo, logging.Discard())
	ctx := context.Background()
	_, err := svc.RunAudit(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteReport(ctx, "A"))

	remaining, err := repo.GetReport(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, audit.TripSingle, remaining.Passengers[0].TripType)
	assert.Empty(t, remaining.Issues)
	assert.Equal(t, 300.0, remaining.FilteredRevenue)

	assert.ErrorIs(t, svc.DeleteReport(ctx, "A"), ErrReportNotFound)
}

func TestAuditService_DeleteReport_FailureKeepsCollection(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	seed(t, repo,
		flight("A", "BGW-DXB", "2024-01-01", traveler("Ali Hassan", "ABC123", 300)),
		flight("B", "DXB-BGW", "2024-01-05", traveler("Ali Hassan", "ABC123", 300)),
	)
	svc := NewAuditService(repo, logging.Discard())
	ctx := context.Background()
	_, err := svc.RunAudit(ctx)
	require.NoError(t, err)
	repo.DeleteReportErr = errors.New("disk full")

	// Act
	err = svc.DeleteReport(ctx, "A")

	// Assert
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReportNotFound)
	assert.True(t, repo.DeleteReportCalled)

	_, err = repo.GetReport(ctx, "A")
	require.NoError(t, err)
	stored, err := repo.GetReport(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, audit.TripReturn, stored.Passengers[0].TripType)
	assert.Equal(t, 0.0, stored.FilteredRevenue)
}

func TestAuditService_DeleteReport_UnknownIDWritesNothing(t *testing.T) {
	repo := storage.NewMockRepository()
	seed(t, repo, flight("A", "BGW-DXB", "2024-01-01", traveler("Ali", "ABC123", 300)))
	svc := NewAuditService(repo, logging.Discard())

	err := svc.DeleteReport(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrReportNotFound)
	assert.False(t, repo.DeleteReportCalled)
	assert.False(t, repo.SaveReportsCalled)
}

func TestAuditService_GetReport_NotFound(t *testing.T) {
	svc := NewAuditService(storage.NewMockRepository(), logging.Discard())

	_, err := svc.GetReport(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestAuditService_ListReports_Filter(t *testing.T) {
	repo := storage.NewMockRepository()
	seed(t, repo,
		flight("A", "BGW-DXB", "2024-01-01", traveler("Ali", "abc123", 300)),
		flight("B", "BGW-IST", "2024-01-02", traveler("Sara", "ZZZ111", 200)),
	)
	svc := NewAuditService(repo, logging.Discard())
	ctx := context.Background()

	all, err := svc.ListReports(ctx, ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byPNR, err := svc.ListReports(ctx, ReportFilter{PNR: "ABC123"})
	require.NoError(t, err)
	require.Len(t, byPNR, 1)
	assert.Equal(t, "A", byPNR[0].ID)

	byRoute, err := svc.ListReports(ctx, ReportFilter{Route: "bgw-ist"})
	require.NoError(t, err)
	require.Len(t, byRoute, 1)
	assert.Equal(t, "B", byRoute[0].ID)
}
