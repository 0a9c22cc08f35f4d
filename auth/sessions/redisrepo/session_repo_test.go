package redisrepo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-book-library/auth/sessions"
	"github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*SessionRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client), mr
}

func TestSessionRepo_RoundTrip(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Ping(ctx))

	now := time.Now().UTC().Truncate(time.Second)
	s := sessions.Session{
		ID:        "s1",
		Token:     "tok",
		UserID:    "u1",
		Email:     "reader@example.com",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, repo.Upsert(ctx, s))
	require.True(t, mr.Exists(keyPrefix+"s1"))
	require.InDelta(t, time.Hour.Seconds(), mr.TTL(keyPrefix+"s1").Seconds(), 5)

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, s.UserID, got.UserID)
	require.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestSessionRepo_ExpiresWithTTL(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sessions.Session{ID: "s1", ExpiresAt: time.Now().Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, "s1")
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	expired, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Empty(t, expired)
}

func TestSessionRepo_RejectsExpired(t *testing.T) {
	repo, _ := setupRepo(t)

	err := repo.Upsert(context.Background(), sessions.Session{ID: "s1", ExpiresAt: time.Now().Add(-time.Second)})
	require.ErrorIs(t, err, errors.ErrSessionExpired)
}

func TestSessionRepo_BackendDown(t *testing.T) {
	repo, mr := setupRepo(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "s1")
	require.Error(t, err)
	require.NotErrorIs(t, err, errors.ErrSessionNotFound)
}
