package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Veraticus/finassist/internal/assistant"
	"github.com/Veraticus/finassist/internal/guardrail"
	"github.com/Veraticus/finassist/internal/query"
	"github.com/go-chi/chi/v5/middleware"
)

type errorResponse struct {
	Error  string           `json:"error"`
	Reason guardrail.Reason `json:"reason,omitempty"`
	Detail string           `json:"detail,omitempty"`
}

// statusFor maps an error to its HTTP status. Anything not recognised is a
// backing store or upstream failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, guardrail.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, query.ErrUnknownTemplate),
		errors.Is(err, query.ErrMissingParams),
		errors.Is(err, query.ErrUnknownMonth),
		errors.Is(err, assistant.ErrEmptyQuestion),
		errors.Is(err, assistant.ErrNotAnExpense),
		errors.Is(err, assistant.ErrSuspiciousAmount):
		return http.StatusBadRequest
	case errors.Is(err, assistant.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, assistant.ErrNoGenerator):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var rejected *guardrail.RejectedError
	if errors.As(err, &rejected) {
		resp.Reason = rejected.Reason
		resp.Detail = rejected.Detail
	}

	attrs := []any{
		"path", r.URL.Path,
		"status", status,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Warn("request rejected", attrs...)
	}
	writeJSON(w, status, resp)
}
