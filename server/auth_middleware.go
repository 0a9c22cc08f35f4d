package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-book-library/auth/sessions"
	"github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the validated session
	ContextKeySession ContextKey = "session"
)

// RequireSessionAuth is middleware for HTML/HTMX routes that validates the
// session cookie. Requests without a live session are sent to the login page.
func (s *Server) RequireSessionAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(loggedInSessionCookie)
			if err != nil || cookie.Value == "" {
				redirectSuccess(w, r, RouteLogin)
				return
			}

			session, err := s.auth.Validate(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, errors.ErrSessionNotFound) && !errors.Is(err, errors.ErrSessionExpired) && !errors.Is(err, errors.ErrInvalidToken) {
					log.Err(err).Msg("failed to validate session")
				}
				s.clearLoginSessionCookie(w, r)
				redirectSuccess(w, r, RouteLogin)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}

// SessionFromContext returns the session placed by RequireSessionAuth.
func SessionFromContext(ctx context.Context) (*sessions.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(*sessions.Session)
	return session, ok && session != nil
}
