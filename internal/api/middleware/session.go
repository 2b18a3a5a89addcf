package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/zatekoja/eventfinder/internal/application/services"
)

const (
	// SessionHeader lets non-browser clients name their session
	SessionHeader = "X-Session-ID"
	sessionCookie = "eventfinder_session"
	maxSessionLen = 64
)

// SessionMiddleware attaches a session id to the request context so search
// analytics can group lookups made by one visitor. Browsers get a cookie.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			if c, err := r.Cookie(sessionCookie); err == nil {
				id = c.Value
			}
		}
		if id == "" || len(id) > maxSessionLen {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(services.WithSessionID(r.Context(), id)))
	})
}
