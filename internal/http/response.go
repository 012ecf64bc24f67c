package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logger"
	"go.uber.org/zap"
)

// Envelope wraps every response body.
type Envelope struct {
	Status    bool        `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Path      string      `json:"path"`
	Method    string      `json:"method"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
}

// responder writes envelopes stamped by its clock.
type responder struct {
	now func() time.Time
}

func newResponder(clock func() time.Time) responder {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return responder{now: clock}
}

func (rs responder) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, r, status, Envelope{
		Status:    true,
		Timestamp: rs.now(),
		Path:      r.URL.Path,
		Method:    r.Method,
		Data:      data,
	})
}

func (rs responder) respondError(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	writeEnvelope(w, r, status, Envelope{
		Status:    false,
		Timestamp: rs.now(),
		Path:      r.URL.Path,
		Method:    r.Method,
		Error:     &ErrorBody{Message: message, Code: status, Kind: kind},
	})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.FromContext(r.Context(), zap.NewNop()).Warn("failed to encode response", zap.Error(err))
	}
}

// handleServiceError maps a service error onto the envelope. Only domain
// errors reach the client verbatim.
func (rs responder) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		rs.respondError(w, r, statusForKind(de.Kind), string(de.Kind), de.Message)
		return
	}

	switch {
	case errors.Is(err, catalog.ErrDirectoryUnavailable):
		rs.respondError(w, r, http.StatusServiceUnavailable, "service_unavailable", "product directory unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		rs.respondError(w, r, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.FromContext(r.Context(), zap.NewNop()).Error("request failed", zap.Error(err))
		rs.respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindValidation,
		domain.KindExpired,
		domain.KindLimitExceeded,
		domain.KindInsufficientInventory,
		domain.KindUnavailable,
		domain.KindEmpty:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reports a client error for malformed or oversized bodies.
func (rs responder) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		rs.respondError(w, r, http.StatusRequestEntityTooLarge, string(domain.KindValidation), "request body too large")
		return false
	}
	rs.respondError(w, r, http.StatusBadRequest, string(domain.KindValidation), "invalid JSON body")
	return false
}
