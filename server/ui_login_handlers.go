package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-book-library/auth/sessions"
	"github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/jrsteele09/go-book-library/library"
	"github.com/rs/zerolog/log"
)

// AuthPageData contains data for rendering the login and signup pages
type AuthPageData struct {
	AppName           string
	Error             string
	Email             string // Preserve email on error
	MinPasswordLength int
}

func (s *Server) authPageData(r *http.Request) AuthPageData {
	return AuthPageData{
		AppName:           s.config.GetAppName(),
		Error:             r.URL.Query().Get("error"),
		Email:             r.URL.Query().Get("email"),
		MinPasswordLength: s.config.GetMinPasswordLength(),
	}
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() (http.HandlerFunc, error) {
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if s.hasLiveSession(r) {
			redirectSuccess(w, r, RouteHome)
			return
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := loginTmpl.Execute(w, s.authPageData(r)); err != nil {
			log.Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}, nil
}

// LoginSubmissionHandler processes the login form submission (POST /login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")

		session, err := s.auth.Login(r.Context(), email, password)
		if err != nil {
			if !errors.Is(err, errors.ErrAuth) {
				log.Err(err).Msg("login failed")
			}
			redirectWithError(w, r, RouteLogin, library.MsgLoginFailed, url.Values{"email": {email}})
			return
		}

		s.startBrowserSession(w, r, session, library.MsgLoggedIn)
	}
}

// LogoutHandler ends the session (POST /logout). On failure the user stays
// on the library page with a notice.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		if !ok {
			redirectSuccess(w, r, RouteLogin)
			return
		}

		if err := s.auth.Logout(r.Context(), session.ID); err != nil {
			log.Err(err).Str("session_id", session.ID).Msg("logout failed")
			if vm, _ := s.library.Get(r.Context(), *session); vm != nil {
				_ = vm.Notify(r.Context(), library.ErrorNotice(library.MsgLogoutFailed))
			}
			redirectSuccess(w, r, RouteHome)
			return
		}

		s.clearLoginSessionCookie(w, r)
		redirectSuccess(w, r, RouteLogin)
	}
}

// startBrowserSession sets the session cookie, queues the welcome notice on
// the session's library and sends the browser home.
func (s *Server) startBrowserSession(w http.ResponseWriter, r *http.Request, session *sessions.Session, msg string) {
	s.SetLoginSessionCookie(w, r, session.Token)

	vm, err := s.library.Get(r.Context(), *session)
	if err != nil {
		log.Err(err).Str("session_id", session.ID).Msg("failed to load library")
	}
	if vm != nil {
		_ = vm.Notify(r.Context(), library.SuccessNotice(msg))
	}
	redirectSuccess(w, r, RouteHome)
}

func (s *Server) hasLiveSession(r *http.Request) bool {
	cookie, err := r.Cookie(loggedInSessionCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	_, err = s.auth.Validate(r.Context(), cookie.Value)
	return err == nil
}
