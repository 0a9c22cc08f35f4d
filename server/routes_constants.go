package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Library
	RouteHome = "/"

	// Auth Routes - Login, Signup & Logout
	RouteLogin  = "/login"
	RouteSignup = "/signup"
	RouteLogout = "/logout"

	// Book Routes
	RouteBooks          = "/books"
	RouteBookBeginEdit  = "/books/{id}/edit"
	RouteBookDelete     = "/books/{id}/delete"
	RouteBookSubmitEdit = "/books/edit"
	RouteBookCancelEdit = "/books/edit/cancel"

	// API Routes
	RouteAPIValidatePassword = "/api/validate-password"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
