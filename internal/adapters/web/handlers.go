package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"garage-portal/internal/app"
	"garage-portal/internal/session"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService, the chi router, and the receiving screen store.
type Handler struct {
	svc      app.ApplicationService
	router   chi.Router
	screens  *screenStore
	sessions *session.Parser
	started  time.Time
}

// NewHandler creates and wires the chi router with all routes.
// Background maintenance stops when ctx is cancelled.
func NewHandler(ctx context.Context, svc app.ApplicationService, sessions *session.Parser, allowedOrigins string) http.Handler {
	h := &Handler{
		svc:      svc,
		screens:  newScreenStore(),
		sessions: sessions,
		started:  time.Now(),
	}

	h.screens.startPurge(ctx)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/session", h.me)

		// ── Purchase order receiving ─────────────────────────────────────────
		r.Get("/api/purchase-orders/{id}", h.apiGetPurchaseOrder)
		r.Put("/api/purchase-orders/{id}", h.apiUpdatePurchaseOrder)
		r.Post("/api/purchase-orders/{id}/receive", h.apiReceivePurchaseOrder)
		r.Post("/api/purchase-orders/{id}/receive/confirm", h.apiConfirmReceipt)
	})

	h.router = r
	return r
}

// health returns service status and uptime.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}

	writeJSON(w, response{Status: "ok", Uptime: time.Since(h.started).Round(time.Second).String()})
}

// orderID extracts the {id} URL parameter and writes 400 if it is not a positive integer.
func orderID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid purchase order id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
