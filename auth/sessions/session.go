package sessions

import "time"

// Session is an authenticated user's identity: the signed token handed to the
// browser plus the identifiers every library call is scoped by.
type Session struct {
	ID        string    `json:"id"`         // Unique session identifier (UUID), the token's jti
	Token     string    `json:"token"`      // Signed, opaque to clients
	UserID    string    `json:"user_id"`    // Owner id used to scope book records
	Email     string    `json:"email"`      // Shown in the page header
	CreatedAt time.Time `json:"created_at"` // When the user logged in or signed up
	ExpiresAt time.Time `json:"expires_at"` // Hard expiry, no sliding renewal
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
