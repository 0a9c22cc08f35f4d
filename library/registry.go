package library

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-book-library/auth"
	"github.com/jrsteele09/go-book-library/auth/sessions"
	"github.com/rs/zerolog/log"
)

type registryEntry struct {
	vm        *ViewModel
	expiresAt time.Time
}

// Registry keeps one view-model per live session. It follows the identity
// provider's session events: a started session gets a freshly loaded
// view-model, an ended one is cleared and dropped. Sessions that end without
// an event (a backend that expires them silently) are dropped by Sweep.
type Registry struct {
	records Records
	nowTime func() time.Time
	lock    sync.Mutex
	models  map[string]registryEntry
}

type RegistryOption func(*Registry)

// WithRegistryNowTime sets the clock used by Get and Sweep (primarily for testing)
func WithRegistryNowTime(nowFunc func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.nowTime = nowFunc
	}
}

func NewRegistry(records Records, options ...RegistryOption) *Registry {
	r := &Registry{
		records: records,
		nowTime: time.Now,
		models:  make(map[string]registryEntry),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// HandleSessionEvent is an auth.SessionListener.
func (r *Registry) HandleSessionEvent(ctx context.Context, event auth.SessionEvent) {
	switch event.Type {
	case auth.SessionStarted:
		if _, err := r.Get(ctx, event.Session); err != nil {
			log.Err(err).Str("session_id", event.Session.ID).Msg("failed to load library for new session")
		}
	case auth.SessionEnded:
		r.drop(ctx, event.Session.ID)
	}
}

// Get returns the session's view-model, creating and loading it when the
// session has none yet (for example a session restored from Redis after a
// restart). A failed initial load still returns the view-model. An expired
// session gets a view-model that is not kept.
func (r *Registry) Get(ctx context.Context, session sessions.Session) (*ViewModel, error) {
	r.lock.Lock()
	entry, ok := r.models[session.ID]
	if !ok {
		entry = registryEntry{vm: NewViewModel(r.records), expiresAt: session.ExpiresAt}
		if session.ExpiresAt.IsZero() || !session.Expired(r.nowTime()) {
			r.models[session.ID] = entry
		}
	}
	r.lock.Unlock()

	if ok {
		return entry.vm, nil
	}
	return entry.vm, entry.vm.SessionChanged(ctx, &session)
}

// Sweep clears and drops the view-models of sessions that expired by now,
// returning how many were dropped.
func (r *Registry) Sweep(ctx context.Context) int {
	now := r.nowTime()
	r.lock.Lock()
	var expired []*ViewModel
	for id, entry := range r.models {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			expired = append(expired, entry.vm)
			delete(r.models, id)
		}
	}
	r.lock.Unlock()

	for _, vm := range expired {
		_ = vm.SessionChanged(context.WithoutCancel(ctx), nil)
	}
	return len(expired)
}

func (r *Registry) drop(ctx context.Context, sessionID string) {
	r.lock.Lock()
	entry, ok := r.models[sessionID]
	delete(r.models, sessionID)
	r.lock.Unlock()
	if ok {
		_ = entry.vm.SessionChanged(context.WithoutCancel(ctx), nil)
	}
}

// Len is the number of live view-models.
func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.models)
}
