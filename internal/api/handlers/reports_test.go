package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/travel-backoffice/internal/api/dto"
	"github.com/eshaffer321/travel-backoffice/internal/api/handlers"
	"github.com/eshaffer321/travel-backoffice/internal/application/service"
	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/logging"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/storage"
)

func newReportsRouter(repo *storage.MockRepository) chi.Router {
	h := handlers.NewReportsHandler(service.NewAuditService(repo, logging.Discard()), logging.Discard())
	r := chi.NewRouter()
	r.Get("/api/reports", h.List)
	r.Post("/api/reports", h.Create)
	r.Get("/api/reports/{id}", h.Get)
	r.Delete("/api/reports/{id}", h.Delete)
	r.Put("/api/reports/{id}/discount", h.UpdateDiscount)
	r.Post("/api/audit", h.Audit)
	return r
}

func report(id, route, date string, passengers ...audit.Passenger) audit.FlightReport {
	total := 0.0
	for _, p := range passengers {
		total += p.Payable
	}
	return audit.FlightReport{
		ID:           id,
		FileName:     id + ".xlsx",
		FlightDate:   date,
		Route:        route,
		PaxCount:     len(passengers),
		TotalRevenue: total,
		Passengers:   passengers,
	}
}

func adult(name, ref string, payable float64) audit.Passenger {
	return audit.Passenger{Name: name, BookingReference: ref, Payable: payable, PassengerType: audit.PassengerAdult}
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReportsHandler_List(t *testing.T) {
	t.Run("returns empty list", func(t *testing.T) {
		router := newReportsRouter(storage.NewMockRepository())

		rec := do(t, router, http.MethodGet, "/api/reports", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.ReportListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotNil(t, resp.Reports)
		assert.Equal(t, 0, resp.Count)
	})

	t.Run("filters by pnr", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveReports(context.Background(), []audit.FlightReport{report("A", "BGW-DXB", "2024-01-01", adult("Ali", "ABC123", 100))}))
		require.NoError(t, repo.SaveReports(context.Background(), []audit.FlightReport{report("B", "BGW-IST", "2024-01-02", adult("Sara", "XYZ999", 100))}))
		router := newReportsRouter(repo)

		rec := do(t, router, http.MethodGet, "/api/reports?pnr=abc123", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.ReportListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, "A", resp.Reports[0].ID)
	})
}

func TestReportsHandler_Get(t *testing.T) {
	t.Run("returns report", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveReports(context.Background(), []audit.FlightReport{report("A", "BGW-DXB", "2024-01-01")}))
		router := newReportsRouter(repo)

		rec := do(t, router, http.MethodGet, "/api/reports/A", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var got audit.FlightReport
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "BGW-DXB", got.Route)
	})

	t.Run("returns 404 for unknown report", func(t *testing.T) {
		router := newReportsRouter(storage.NewMockRepository())

		rec := do(t, router, http.MethodGet, "/api/reports/missing", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, "not_found", apiErr.Code)
	})
}

func TestReportsHandler_Create(t *testing.T) {
	t.Run("stores and audits the report", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveReports(context.Background(), []audit.FlightReport{report("OUT", "BGW-DXB", "2024-03-01", adult("Ali Hassan", "ABC123", 300))}))
		router := newReportsRouter(repo)

		body := `{
			"file_name": "return.xlsx",
			"flight_date": "2024-03-08",
			"route": "DXB-BGW",
			"total_revenue": 300,
			"passengers": [{"name": "Ali Hassan", "booking_reference": "ABC123", "payable": 300}]
		}`
		rec := do(t, router, http.MethodPost, "/api/reports", body)

		require.Equal(t, http.StatusCreated, rec.Code)
		var got audit.FlightReport
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, 1, got.PaxCount)
		assert.Equal(t, 300.0, got.TotalDiscount)
		assert.Equal(t, 0.0, got.FilteredRevenue)
		require.Len(t, got.Passengers, 1)
		assert.Equal(t, audit.TripReturn, got.Passengers[0].TripType)
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		router := newReportsRouter(storage.NewMockRepository())

		rec := do(t, router, http.MethodPost, "/api/reports", `{"route": "BGW-DXB"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var apiErr dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
		assert.Equal(t, "validation_error", apiErr.Code)
		assert.Contains(t, apiErr.Message, "file_name")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		router := newReportsRouter(storage.NewMockRepository())

		rec := do(t, router, http.MethodPost, "/api/reports", `{not json`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects empty body", func(t *testing.T) {
		router := newReportsRouter(storage.NewMockRepository())

		rec := do(t, router, http.MethodPost, "/api/reports", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReportsHandler_Delete(t *testing.T) {
	repo := storage.NewMockRepository()
	require.NoError(t, repo.SaveReports(context.Background(), []audit.FlightReport{report("A", "BGW-DXB", "2024-01-01")}))
	router := newReportsRouter(repo)

	rec := do(t, router, http.MethodDelete, "/api/reports/A", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/reports/A", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportsHandler_Audit(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	require.NoError(t, repo.SaveReports(context.Background(), []audit.FlightReport{report("A", "BGW-DXB", "2024-01-01", adult("Ali", "ABC123", 200))}))
	require.NoError(t, repo.SaveReports(context.Background(), []audit.FlightReport{report("B", "BGW-IST", "2024-01-02", adult("Ali", "ABC123", 150))}))
	router := newReportsRouter(repo)

	// Act
	rec := do(t, router, http.MethodPost, "/api/audit", "")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.AuditResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Reports, 2)
	assert.Equal(t, 2, resp.Summary.Reports)
	assert.Equal(t, 1, resp.Summary.Issues[audit.IssueUnmatchedReturn])
	assert.Equal(t, 350.0, resp.Summary.TotalRevenue)
	assert.Equal(t, 150.0, resp.Summary.TotalDiscount)
}

func TestReportsHandler_UpdateDiscount(t *testing.T) {
	t.Run("applies fixed discount", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveReports(context.Background(), []audit.FlightReport{report("A", "BGW-DXB", "2024-01-01", adult("Ali", "ABC123", 300))}))
		router := newReportsRouter(repo)

		rec := do(t, router, http.MethodPut, "/api/reports/A/discount", `{"value": 40, "notes": "group deal"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var got audit.FlightReport
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, 40.0, got.ManualDiscountValue)
		assert.Equal(t, 260.0, got.FilteredRevenue)
		assert.Equal(t, "group deal", got.ManualDiscountNotes)
	})

	t.Run("applies per passenger discount", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveReports(context.Background(), []audit.FlightReport{report("A", "BGW-DXB", "2024-01-01",
			adult("Ali", "ABC123", 300), adult("Sara", "ABC123", 300))}))
		router := newReportsRouter(repo)

		body := `{"value": 0, "discount": {"type": "per_passenger", "per_adult": 25}}`
		rec := do(t, router, http.MethodPut, "/api/reports/A/discount", body)

		require.Equal(t, http.StatusOK, rec.Code)
		var got audit.FlightReport
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, 50.0, got.ManualDiscountValue)
		assert.Equal(t, 550.0, got.FilteredRevenue)
	})

	t.Run("rejects negative value", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveReports(context.Background(), []audit.FlightReport{report("A", "BGW-DXB", "2024-01-01")}))
		router := newReportsRouter(repo)

		rec := do(t, router, http.MethodPut, "/api/reports/A/discount", `{"value": -5}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 404 for unknown report", func(t *testing.T) {
		router := newReportsRouter(storage.NewMockRepository())

		rec := do(t, router, http.MethodPut, "/api/reports/missing/discount", `{"value": 10}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
