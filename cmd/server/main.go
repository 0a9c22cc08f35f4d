package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-book-library/auth"
	"github.com/jrsteele09/go-book-library/auth/sessions"
	"github.com/jrsteele09/go-book-library/auth/sessions/redisrepo"
	fakesessionrepo "github.com/jrsteele09/go-book-library/auth/sessions/repofakes"
	"github.com/jrsteele09/go-book-library/docstore"
	"github.com/jrsteele09/go-book-library/docstore/boltstore"
	"github.com/jrsteele09/go-book-library/docstore/fakestore"
	"github.com/jrsteele09/go-book-library/internal/config"
	"github.com/jrsteele09/go-book-library/library"
	"github.com/jrsteele09/go-book-library/server"
	"github.com/jrsteele09/go-book-library/users"
	"github.com/jrsteele09/go-book-library/users/boltrepo"
	fakeuserrepo "github.com/jrsteele09/go-book-library/users/repofake"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const sessionPurgeInterval = time.Minute

func main() {
	c := config.New()
	setupLogging(c.GetEnv())

	if err := run(c); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, userRepo, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeQuietly("document store", store)

	sessionRepo, closeSessions, err := openSessions(ctx, c)
	if err != nil {
		return err
	}
	defer closeQuietly("session store", closeSessions)

	authService, err := auth.NewAuthorizationService(auth.Repos{Users: userRepo, Sessions: sessionRepo}, c)
	if err != nil {
		return fmt.Errorf("[run] %w", err)
	}
	registry := library.NewRegistry(library.NewRepository(store))

	handler, err := server.New(c, authService, registry)
	if err != nil {
		return fmt.Errorf("[run] %w", err)
	}

	httpServer := &http.Server{
		Addr:         c.GetPort(),
		Handler:      handler,
		ReadTimeout:  c.GetReadTimeout(),
		WriteTimeout: c.GetWriteTimeout(),
	}

	go purgeExpiredSessions(ctx, authService, registry)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	return shutdown(httpServer, c.GetShutdownTimeout())
}

// openStore returns the document store and the user repository that shares
// its backend.
func openStore(c config.StoreConfig) (docstore.Store, users.UserRepo, error) {
	switch c.GetStoreType() {
	case config.StoreMemory:
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return fakestore.NewFakeStore(), fakeuserrepo.NewFakeUserRepo(), nil
	default:
		store, err := boltstore.Open(c.GetBoltFile(), c.GetBoltTimeout())
		if err != nil {
			return nil, nil, err
		}
		userRepo, err := boltrepo.New(store.DB())
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		log.Info().Str("file", c.GetBoltFile()).Msg("Using bolt store")
		return store, userRepo, nil
	}
}

// openSessions uses Redis when an address is configured and process memory
// otherwise.
func openSessions(ctx context.Context, c config.StoreConfig) (sessions.Repo, io.Closer, error) {
	if c.GetRedisAddr() == "" {
		log.Warn().Msg("REDIS_ADDR not set, sessions are kept in memory")
		return fakesessionrepo.NewFakeSessionRepo(), closerFunc(func() error { return nil }), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.GetRedisAddr(),
		Password: c.GetRedisPassword(),
		DB:       c.GetRedisDB(),
	})
	repo := redisrepo.New(client)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := repo.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("[openSessions] redis %s: %w", c.GetRedisAddr(), err)
	}
	log.Info().Str("addr", c.GetRedisAddr()).Msg("Using redis sessions")
	return repo, client, nil
}

// purgeExpiredSessions ends expired sessions in the session repo and drops
// view-models whose session expired without an event (Redis expires keys
// silently).
func purgeExpiredSessions(ctx context.Context, authService *auth.AuthorizationService, registry *library.Registry) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := authService.PurgeExpired(ctx)
			if err != nil {
				log.Err(err).Msg("Failed to purge expired sessions")
			}
			dropped := registry.Sweep(ctx)
			if n > 0 || dropped > 0 {
				log.Debug().Int("sessions", n).Int("view_models", dropped).Msg("Purged expired sessions")
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func closeQuietly(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Err(err).Str("name", name).Msg("Failed to close")
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
