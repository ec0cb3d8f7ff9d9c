package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eshaffer321/travel-backoffice/internal/api/dto"
	"github.com/eshaffer321/travel-backoffice/internal/application/service"
)

// maxBodyBytes caps request bodies; statement uploads are the largest.
const maxBodyBytes = 16 << 20

// Base provides shared functionality for all handlers.
type Base struct {
	logger *slog.Logger
}

// NewBase creates a new base handler.
func NewBase(logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// WriteServiceError maps service errors to HTTP responses.
func (b *Base) WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("flight report"))
	case errors.Is(err, service.ErrRunNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("reconciliation run"))
	case errors.Is(err, service.ErrInvalidInput):
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	default:
		b.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// DecodeJSON reads and validates a request body. On failure it writes the
// error response and returns false.
func (b *Base) DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		} else {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
		b.WriteError(w, http.StatusBadRequest, dto.BadRequestError(msg))
		return false
	}
	if err := dto.Validate(v); err != nil {
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(dto.ValidationMessage(err)))
		return false
	}
	return true
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
