package sessions

import (
	"context"
	"time"
)

// Repo defines the interface for session storage operations.
type Repo interface {
	// Upsert creates or updates a session
	Upsert(ctx context.Context, session Session) error

	// Get retrieves a session by ID, errors.ErrSessionNotFound if unknown
	Get(ctx context.Context, sessionID string) (Session, error)

	// Delete removes a session by ID, deleting an unknown session is not an error
	Delete(ctx context.Context, sessionID string) error

	// DeleteExpired removes sessions that expired before now and returns them.
	// Backends that expire entries on their own may return nothing.
	DeleteExpired(ctx context.Context, now time.Time) ([]Session, error)
}
