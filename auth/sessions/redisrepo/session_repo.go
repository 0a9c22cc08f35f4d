// Package redisrepo keeps sessions in Redis so they survive restarts and can be
// shared by several server processes. Entries expire with the session.
package redisrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jrsteele09/go-book-library/auth/sessions"
	"github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "library:session:"

// Interface is the subset of the Redis client the repo needs.
type Interface interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

var _ sessions.Repo = (*SessionRepo)(nil)

type SessionRepo struct {
	client  Interface
	nowTime func() time.Time
}

func New(client Interface) *SessionRepo {
	return &SessionRepo{client: client, nowTime: time.Now}
}

// Ping checks connectivity, used at startup.
func (r *SessionRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *SessionRepo) Upsert(ctx context.Context, session sessions.Session) error {
	if session.ID == "" {
		return errors.Wrapf(errors.ErrSessionNotFound, "sessionID is required")
	}
	ttl := session.ExpiresAt.Sub(r.nowTime())
	if ttl <= 0 {
		return errors.ErrSessionExpired
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("[redisrepo Upsert] encode: %w", err)
	}
	if err := r.client.Set(ctx, key(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("[redisrepo Upsert] %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (sessions.Session, error) {
	val, err := r.client.Get(ctx, key(sessionID)).Result()
	if err == redis.Nil {
		return sessions.Session{}, errors.ErrSessionNotFound
	}
	if err != nil {
		return sessions.Session{}, fmt.Errorf("[redisrepo Get] %w", err)
	}

	var session sessions.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return sessions.Session{}, fmt.Errorf("[redisrepo Get] decode: %w", err)
	}
	return session, nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("[redisrepo Delete] %w", err)
	}
	return nil
}

// DeleteExpired is a no-op, Redis drops keys when their TTL elapses.
func (r *SessionRepo) DeleteExpired(context.Context, time.Time) ([]sessions.Session, error) {
	return nil, nil
}
