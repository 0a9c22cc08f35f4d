package users

import (
	"context"
	"time"
)

// UserRepo stores accounts. Create fails with errors.ErrEmailTaken when the
// email is already registered; lookups of unknown users fail with
// errors.ErrNotFound.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}
