package fakestore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-book-library/docstore"
	"github.com/jrsteele09/go-book-library/internal/errors"
)

var _ docstore.Store = (*FakeStore)(nil)

type Op string

const (
	OpInsert Op = "insert"
	OpQuery  Op = "query"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type collection struct {
	order []string
	docs  map[string]docstore.Document
}

// FakeStore is an in-memory docstore.Store. Failures can be injected per
// operation and every call is counted, which lets tests assert that no remote
// call was made.
type FakeStore struct {
	collections map[string]*collection
	failures    map[Op]error
	calls       map[Op]int
	lock        sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		collections: make(map[string]*collection),
		failures:    make(map[Op]error),
		calls:       make(map[Op]int),
	}
}

// Fail makes every following call of op return err until cleared with a nil err.
func (fs *FakeStore) Fail(op Op, err error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err == nil {
		delete(fs.failures, op)
		return
	}
	fs.failures[op] = err
}

// Calls returns how many times op was invoked, including failed calls.
func (fs *FakeStore) Calls(op Op) int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.calls[op]
}

func (fs *FakeStore) begin(ctx context.Context, op Op) error {
	fs.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return fs.failures[op]
}

func (fs *FakeStore) Insert(ctx context.Context, name string, fields docstore.Document) (string, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err := fs.begin(ctx, OpInsert); err != nil {
		return "", err
	}
	c, ok := fs.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]docstore.Document)}
		fs.collections[name] = c
	}

	id := uuid.New().String()
	c.order = append(c.order, id)
	c.docs[id] = fields.Clone()
	return id, nil
}

func (fs *FakeStore) Query(ctx context.Context, name string, where ...docstore.Condition) ([]docstore.Snapshot, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err := fs.begin(ctx, OpQuery); err != nil {
		return nil, err
	}
	snapshots := make([]docstore.Snapshot, 0)
	c, ok := fs.collections[name]
	if !ok {
		return snapshots, nil
	}
	for _, id := range c.order {
		doc := c.docs[id]
		if docstore.Matches(doc, where...) {
			snapshots = append(snapshots, docstore.Snapshot{ID: id, Fields: doc.Clone()})
		}
	}
	return snapshots, nil
}

func (fs *FakeStore) UpdateFields(ctx context.Context, name, id string, fields docstore.Document, preconditions ...docstore.Condition) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err := fs.begin(ctx, OpUpdate); err != nil {
		return err
	}
	c, ok := fs.collections[name]
	if !ok {
		return errors.ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok || !docstore.Matches(doc, preconditions...) {
		return errors.ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (fs *FakeStore) Delete(ctx context.Context, name, id string, preconditions ...docstore.Condition) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err := fs.begin(ctx, OpDelete); err != nil {
		return err
	}
	c, ok := fs.collections[name]
	if !ok {
		return nil
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil
	}
	if !docstore.Matches(doc, preconditions...) {
		return errors.ErrNotFound
	}

	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (fs *FakeStore) Close() error {
	return nil
}
