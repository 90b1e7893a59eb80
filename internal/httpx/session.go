package httpx

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/smartrestaurant/backoffice.git/internal/auth"
)

const sessionCookie = "session_id"

// sessionID returns the caller's session id, issuing a fresh cookie when
// none is present.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// RequireAuth gates a route group on an authenticated session.
func RequireAuth(sessions auth.SessionRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(sessionCookie)
			if err != nil || c.Value == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}
			sess, err := sessions.Get(r.Context(), c.Value)
			if err != nil {
				writeErr(w, err)
				return
			}
			if sess.State != auth.StateAuthenticated {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
