// Package boltstore is a docstore.Store persisted in a single BoltDB file.
// Each collection is a bucket; documents are JSON encoded under their ID.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-book-library/docstore"
	"github.com/jrsteele09/go-book-library/internal/errors"
)

var _ docstore.Store = (*Store)(nil)

type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database file. timeout bounds the wait for the
// file lock held by another process.
func Open(path string, timeout time.Duration) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("[boltstore Open] create folder: %w", err)
		}
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("[boltstore Open] %s: %w", path, err)
	}
	return New(db), nil
}

// New wraps an already open database. The store takes ownership of it.
func New(db *bolt.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying database so other repositories can share the file.
func (s *Store) DB() *bolt.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores fields under a new time-ordered ID so that cursor order
// follows insertion order.
func (s *Store) Insert(ctx context.Context, collection string, fields docstore.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("[boltstore Insert] generate id: %w", err)
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("[boltstore Insert] encode: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return b.Put([]byte(id.String()), data)
	})
	if err != nil {
		return "", errors.Wrapf(err, "[boltstore Insert] %s", collection)
	}
	return id.String(), nil
}

func (s *Store) Query(ctx context.Context, collection string, where ...docstore.Condition) ([]docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snapshots := make([]docstore.Snapshot, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		for id, data := c.First(); id != nil; id, data = c.Next() {
			var doc docstore.Document
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("decode %s: %w", id, err)
			}
			if docstore.Matches(doc, where...) {
				snapshots = append(snapshots, docstore.Snapshot{ID: string(id), Fields: doc})
			}
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, errors.Wrapf(err, "[boltstore Query] %s", collection)
	}
	return snapshots, nil
}

func (s *Store) UpdateFields(ctx context.Context, collection, id string, fields docstore.Document, preconditions ...docstore.Condition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return errors.ErrNotFound
		}
		data := b.Get([]byte(id))
		if data == nil {
			return errors.ErrNotFound
		}

		var doc docstore.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode %s: %w", id, err)
		}
		if !docstore.Matches(doc, preconditions...) {
			return errors.ErrNotFound
		}
		for k, v := range fields {
			doc[k] = v
		}

		updated, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return b.Put([]byte(id), updated)
	})
	return errors.Wrapf(err, "[boltstore UpdateFields] %s/%s", collection, id)
}

func (s *Store) Delete(ctx context.Context, collection, id string, preconditions ...docstore.Condition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(id))
		if data == nil {
			return nil
		}
		if len(preconditions) > 0 {
			var doc docstore.Document
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("decode %s: %w", id, err)
			}
			if !docstore.Matches(doc, preconditions...) {
				return errors.ErrNotFound
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return b.Delete([]byte(id))
	})
	return errors.Wrapf(err, "[boltstore Delete] %s/%s", collection, id)
}
