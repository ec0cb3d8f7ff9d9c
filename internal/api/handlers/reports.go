package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/travel-backoffice/internal/api/dto"
	"github.com/eshaffer321/travel-backoffice/internal/application/service"
	"github.com/eshaffer321/travel-backoffice/internal/domain/audit"
)

// ReportsHandler handles flight report and audit HTTP requests.
type ReportsHandler struct {
	*Base
	audits *service.AuditService
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(audits *service.AuditService, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{
		Base:   NewBase(logger),
		audits: audits,
	}
}

// List handles GET /api/reports - optional ?pnr= and ?route= filters.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	params := dto.ReportListParams{
		PNR:   r.URL.Query().Get("pnr"),
		Route: r.URL.Query().Get("route"),
	}

	reports, err := h.audits.ListReports(r.Context(), service.ReportFilter{PNR: params.PNR, Route: params.Route})
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.NewReportListResponse(reports))
}

// Get handles GET /api/reports/{id}.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("report ID is required"))
		return
	}

	report, err := h.audits.GetReport(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

// Create handles POST /api/reports - stores a report and re-audits.
func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateReportRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	report, err := h.audits.IngestReport(r.Context(), req.ToReport())
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, report)
}

// Delete handles DELETE /api/reports/{id}.
func (h *ReportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.audits.DeleteReport(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Audit handles POST /api/audit - re-runs the audit over every report.
func (h *ReportsHandler) Audit(w http.ResponseWriter, r *http.Request) {
	reports, err := h.audits.RunAudit(r.Context())
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.AuditResponse{
		Reports: reports,
		Summary: audit.Summarize(reports),
	})
}

// UpdateDiscount handles PUT /api/reports/{id}/discount.
func (h *ReportsHandler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateDiscountRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	report, err := h.audits.UpdateDiscount(r.Context(), chi.URLParam(r, "id"), req.Value, req.Notes, req.Discount)
	if err != nil {
		h.WriteServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}
