package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"garage-portal/internal/session"
)

const authCookie = "auth_token"

// bearerToken returns the operator token from the auth_token cookie or the
// Authorization header, in that order.
func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(authCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// RequireAuth is chi middleware that parses the operator token and injects the
// session into the request context. Returns 401 if the token is absent, invalid or expired.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Parse(bearerToken(r))
		if err != nil {
			if errors.Is(err, session.ErrExpired) {
				writeError(w, r, "session expired, sign in again", "SESSION_EXPIRED", http.StatusUnauthorized)
				return
			}
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
	})
}

// me handles GET /api/session and returns the current operator's identity.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	type meResponse struct {
		UserID    int       `json:"user_id"`
		Username  string    `json:"username"`
		Role      string    `json:"role"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	writeJSON(w, meResponse{
		UserID:    sess.Claims.UserID,
		Username:  sess.Claims.Username,
		Role:      sess.Claims.Role,
		ExpiresAt: sess.ExpiresAt(),
	})
}
