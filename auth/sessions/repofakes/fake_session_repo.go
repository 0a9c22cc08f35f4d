package fakesessionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-book-library/auth/sessions"
	"github.com/jrsteele09/go-book-library/internal/errors"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	sessions map[string]sessions.Session
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]sessions.Session),
	}
}

func (sr *FakeSessionRepo) Upsert(_ context.Context, session sessions.Session) error {
	if session.ID == "" {
		return errors.Wrapf(errors.ErrSessionNotFound, "sessionID is required")
	}
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.sessions[session.ID] = session
	return nil
}

func (sr *FakeSessionRepo) Get(_ context.Context, sessionID string) (sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	session, ok := sr.sessions[sessionID]
	if !ok {
		return sessions.Session{}, errors.ErrSessionNotFound
	}
	return session, nil
}

func (sr *FakeSessionRepo) Delete(_ context.Context, sessionID string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	delete(sr.sessions, sessionID)
	return nil
}

func (sr *FakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) ([]sessions.Session, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	var expired []sessions.Session
	for id, session := range sr.sessions {
		if session.Expired(now) {
			expired = append(expired, session)
			delete(sr.sessions, id)
		}
	}
	return expired, nil
}
