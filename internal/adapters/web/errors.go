package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"garage-portal/internal/app"
	"garage-portal/internal/core"
	"garage-portal/internal/logger"
	"garage-portal/internal/session"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// confirmationResponse is the 409 body asking the operator to confirm an over-delivery.
// Ordered, WouldBeReceived and Message are the server's values, unchanged.
type confirmationResponse struct {
	Error           string            `json:"error"`
	Code            string            `json:"code"`
	Ordered         int               `json:"ordered"`
	WouldBeReceived int               `json:"would_be_received"`
	Message         string            `json:"message"`
	View            app.ReceivingView `json:"view"`
	RequestID       string            `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, status, errorResponse{Error: message, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, resp errorResponse) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps application and API errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve     *core.ValidationError
		apiErr *core.APIError
		loadEr *app.LoadError
	)

	switch {
	case errors.As(err, &ve):
		writeErrorResponse(w, r, http.StatusUnprocessableEntity, errorResponse{Error: ve.Error(), Code: "VALIDATION_FAILED", Field: ve.Field})
	case errors.Is(err, session.ErrExpired):
		writeError(w, r, "session expired, sign in again", "SESSION_EXPIRED", http.StatusUnauthorized)
	case errors.Is(err, session.ErrMissingToken), errors.Is(err, session.ErrInvalidToken):
		writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
	case errors.Is(err, app.ErrSubmitInProgress):
		writeError(w, r, err.Error(), "SUBMIT_IN_PROGRESS", http.StatusConflict)
	case errors.Is(err, app.ErrConfirmationPending):
		writeError(w, r, err.Error(), "CONFIRMATION_PENDING", http.StatusConflict)
	case errors.Is(err, app.ErrNoPendingConfirmation):
		writeError(w, r, err.Error(), "NO_PENDING_CONFIRMATION", http.StatusConflict)
	case errors.Is(err, core.ErrReceivingClosed):
		writeError(w, r, err.Error(), "RECEIVING_CLOSED", http.StatusConflict)
	case errors.As(err, &apiErr) && apiErr.NotFound():
		writeError(w, r, apiErr.Message, "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &loadEr):
		writeErrorResponse(w, r, http.StatusBadGateway, errorResponse{Error: loadEr.Error(), Code: "LOAD_FAILED", Retryable: true})
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		writeError(w, r, apiErr.Message, "API_ERROR", status)
	default:
		l := logger.WithRequestID(requestIDFromContext(r.Context()))
		l.Error().Err(err).Msg("unhandled service error")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
