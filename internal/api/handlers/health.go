package handlers

import (
	"net/http"
	"time"

	"github.com/eshaffer321/travel-backoffice/internal/api/dto"
)

// HealthHandler answers load balancer probes.
type HealthHandler struct {
	*Base
	started time.Time
}

// NewHealthHandler creates a health handler; uptime counts from now.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{Base: NewBase(nil), started: time.Now()}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.WriteJSON(w, http.StatusOK, dto.NewHealthResponse(h.started))
}

// NotFound writes the error envelope for unknown routes.
func (h *HealthHandler) NotFound(w http.ResponseWriter, _ *http.Request) {
	h.WriteError(w, http.StatusNotFound, dto.NotFoundError("route"))
}

// MethodNotAllowed writes the error envelope for a known route hit with the wrong method.
func (h *HealthHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.WriteError(w, http.StatusMethodNotAllowed, dto.MethodNotAllowedError(r.Method))
}
