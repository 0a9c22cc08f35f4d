// Package boltrepo persists accounts in BoltDB next to the document store.
package boltrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/jrsteele09/go-book-library/users"
)

var (
	userBucket  = []byte("users")
	emailBucket = []byte("user_emails")
)

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	db *bolt.DB
}

// New creates the buckets it needs on an open database.
func New(db *bolt.DB) (*UserRepo, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{userBucket, emailBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket: %s", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &UserRepo{db: db}, nil
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		emails := tx.Bucket(emailBucket)
		if emails.Get([]byte(user.Email)) != nil {
			return errors.ErrEmailTaken
		}
		if user.ID == "" {
			user.ID = uuid.New().String()
		}

		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		if err := tx.Bucket(userBucket).Put([]byte(user.ID), data); err != nil {
			return err
		}
		return emails.Put([]byte(user.Email), []byte(user.ID))
	})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *users.User
	err := r.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(emailBucket).Get([]byte(email))
		if id == nil {
			return errors.ErrNotFound
		}
		var err error
		user, err = get(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *users.User
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		user, err = get(tx, []byte(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		user, err := get(tx, []byte(id))
		if err != nil {
			return err
		}
		user.LastLogin = at

		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return tx.Bucket(userBucket).Put([]byte(id), data)
	})
}

func get(tx *bolt.Tx, id []byte) (*users.User, error) {
	data := tx.Bucket(userBucket).Get(id)
	if data == nil {
		return nil, errors.ErrNotFound
	}
	user := &users.User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, err
	}
	return user, nil
}
