package server

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/jrsteele09/go-book-library/library"
	"github.com/jrsteele09/go-book-library/users"
	"github.com/rs/zerolog/log"
)

// ValidatePasswordHandler checks password strength for the signup form's
// inline hint
func (s *Server) ValidatePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		password := r.FormValue("password")
		w.Header().Set("Content-Type", contentTypeHTML)

		if password == "" {
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := users.ValidatePasswordStrength(password, s.config.GetMinPasswordLength()); err != nil {
			w.Header().Set("HX-Trigger", `{"passwordInvalid": ""}`)
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `<span class="hint hint-error">%s</span>`, html.EscapeString(err.Error()))
			return
		}

		w.Header().Set("HX-Trigger", `{"passwordValid": ""}`)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `<span class="hint hint-ok">Looks good</span>`)
	}
}

// SignupGetHandler renders the signup page (GET /signup)
func (s *Server) SignupGetHandler() (http.HandlerFunc, error) {
	tmpl, err := ParseTemplate("signup.html")
	if err != nil {
		return nil, err
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if s.hasLiveSession(r) {
			redirectSuccess(w, r, RouteHome)
			return
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, s.authPageData(r)); err != nil {
			log.Err(err).Msg("Failed to render signup template")
			http.Error(w, "Failed to render signup page", http.StatusInternalServerError)
		}
	}, nil
}

// SignupPostHandler creates the account and signs it in (POST /signup).
// Every failure shows the same message.
func (s *Server) SignupPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")

		session, err := s.auth.Signup(r.Context(), email, password)
		if err != nil {
			if !errors.Is(err, errors.ErrAuth) {
				log.Err(err).Msg("signup failed")
			}
			redirectWithError(w, r, RouteSignup, library.MsgSignupFailed, url.Values{"email": {email}})
			return
		}

		s.startBrowserSession(w, r, session, library.MsgSignedUp)
	}
}
