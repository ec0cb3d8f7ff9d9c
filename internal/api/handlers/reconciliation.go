package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/travel-backoffice/internal/api/dto"
	"github.com/eshaffer321/travel-backoffice/internal/application/service"
	"github.com/eshaffer321/travel-backoffice/internal/domain/reconciler"
	"github.com/eshaffer321/travel-backoffice/internal/infrastructure/storage"
)

// ReconciliationHandler handles statement reconciliation HTTP requests.
type ReconciliationHandler struct {
	*Base
	recon *service.ReconciliationService
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(recon *service.ReconciliationService, logger *slog.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		Base:  NewBase(logger),
		recon: recon,
	}
}

// Reconcile handles POST /api/reconcile.
func (h *ReconciliationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconcileRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	run, err := h.recon.Reconcile(r.Context(), req.CompanyRows, req.SupplierRows, req.FilterRules())
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, toRunResponse(*run))
}

// GetSettings handles GET /api/reconciliation/settings.
func (h *ReconciliationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.recon.Settings(r.Context())
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/reconciliation/settings.
func (h *ReconciliationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings reconciler.Settings
	if !h.DecodeJSON(w, r, &settings) {
		return
	}

	if err := h.recon.UpdateSettings(r.Context(), settings); err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, settings)
}

// ListRuns handles GET /api/reconciliation/runs.
func (h *ReconciliationHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	params := dto.DefaultRunListParams()
	params.Limit = ParseIntParam(r, "limit", params.Limit)

	runs, err := h.recon.Runs(r.Context(), params.Limit)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	response := dto.ReconciliationRunListResponse{
		Runs:  make([]dto.ReconciliationRunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, toRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// GetRun handles GET /api/reconciliation/runs/{id}.
func (h *ReconciliationHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.recon.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toRunResponse(*run))
}

// toRunResponse converts a stored run to an API response.
func toRunResponse(run storage.ReconciliationRun) dto.ReconciliationRunResponse {
	resp := dto.ReconciliationRunResponse{
		ID:           run.ID,
		CreatedAt:    run.CreatedAt.UTC().Format(time.RFC3339),
		CompanyRows:  run.CompanyRows,
		SupplierRows: run.SupplierRows,
		Filters:      run.Filters,
		Summary:      run.Summary,
	}
	if resp.Filters == nil {
		resp.Filters = []reconciler.FilterRule{}
	}
	if run.Result != nil {
		resp.Records = run.Result.Records
	}
	return resp
}
