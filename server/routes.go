package server

import (
	"net/http"
	"strings"
)

func (s *Server) initRoutes() error {
	libraryPage, err := s.LibraryPageHandler()
	if err != nil {
		return err
	}
	loginPage, err := s.LoginPageUIHandler()
	if err != nil {
		return err
	}
	signupPage, err := s.SignupGetHandler()
	if err != nil {
		return err
	}

	// LIBRARY (session required)
	s.RegisterRouteHandler("GET "+RouteHome+"{$}", ChainMiddleware(libraryPage, s.HTMLMiddleWare(s.RequireSessionAuth())...))
	s.RegisterRouteHandler("POST "+RouteBooks, ChainMiddleware(s.AddBookHandler(), s.HTMLMiddleWare(s.RequireSessionAuth())...))
	s.RegisterRouteHandler("POST "+RouteBookBeginEdit, ChainMiddleware(s.BeginEditHandler(), s.HTMLMiddleWare(s.RequireSessionAuth())...))
	s.RegisterRouteHandler("POST "+RouteBookSubmitEdit, ChainMiddleware(s.SubmitEditHandler(), s.HTMLMiddleWare(s.RequireSessionAuth())...))
	s.RegisterRouteHandler("POST "+RouteBookCancelEdit, ChainMiddleware(s.CancelEditHandler(), s.HTMLMiddleWare(s.RequireSessionAuth())...))
	s.RegisterRouteHandler("POST "+RouteBookDelete, ChainMiddleware(s.DeleteBookHandler(), s.HTMLMiddleWare(s.RequireSessionAuth())...))

	// LOGIN / SIGNUP / LOGOUT
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(loginPage, s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteSignup, ChainMiddleware(signupPage, s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteSignup, ChainMiddleware(s.SignupPostHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.RequireSessionAuth())...))

	// API routes
	s.RegisterRouteHandler("POST "+RouteAPIValidatePassword, ChainMiddleware(s.ValidatePasswordHandler(), s.HTMLMiddleWare()...))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware, s.CompressionMiddleware)...))
	return nil
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError(r.Method, filePath, err)
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
