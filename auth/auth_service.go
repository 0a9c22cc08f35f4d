package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-book-library/auth/sessions"
	"github.com/jrsteele09/go-book-library/internal/config"
	liberrors "github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/jrsteele09/go-book-library/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SessionEventType says whether a session became available or went away.
type SessionEventType int

const (
	SessionStarted SessionEventType = iota
	SessionEnded
)

// SessionEvent is delivered to subscribers on login, signup, logout and expiry.
type SessionEvent struct {
	Type    SessionEventType
	Session sessions.Session
}

// SessionListener receives session change notifications. Listeners run
// synchronously on the goroutine that caused the change.
type SessionListener func(ctx context.Context, event SessionEvent)

// Repos holds all repository dependencies for the AuthorizationService
type Repos struct {
	Users    users.UserRepo // Repository for accounts
	Sessions sessions.Repo  // Repository for live sessions
}

// AuthorizationService is the identity provider: it creates accounts, checks
// credentials and owns the lifecycle of sessions.
type AuthorizationService struct {
	repos             Repos
	secret            []byte
	maxAge            time.Duration
	minPasswordLength int
	nowTime           func() time.Time // nowTime function (injectable for testing)

	listenersLock sync.RWMutex
	listeners     []SessionListener
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
func NewAuthorizationService(repos Repos, cfg config.SecurityConfig, options ...AuthorizationServiceOption) (*AuthorizationService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewAuthorizationService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewAuthorizationService] Sessions repo is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewAuthorizationService] security config is required")
	}
	secret := cfg.GetSessionSecret()
	if len(secret) == 0 {
		return nil, errors.New("[NewAuthorizationService] session secret is required")
	}

	as := &AuthorizationService{
		repos:             repos,
		secret:            secret,
		maxAge:            cfg.GetMaxSessionAge(),
		minPasswordLength: cfg.GetMinPasswordLength(),
		nowTime:           time.Now,
	}
	for _, opt := range options {
		opt(as)
	}
	return as, nil
}

// Subscribe registers a listener for session changes.
func (as *AuthorizationService) Subscribe(listener SessionListener) {
	as.listenersLock.Lock()
	defer as.listenersLock.Unlock()
	as.listeners = append(as.listeners, listener)
}

func (as *AuthorizationService) publish(ctx context.Context, event SessionEvent) {
	as.listenersLock.RLock()
	listeners := make([]SessionListener, len(as.listeners))
	copy(listeners, as.listeners)
	as.listenersLock.RUnlock()

	for _, l := range listeners {
		l(ctx, event)
	}
}

// Signup creates an account and logs it in.
func (as *AuthorizationService) Signup(ctx context.Context, email, password string) (*sessions.Session, error) {
	email = users.NormaliseEmail(email)
	if err := users.ValidateEmail(email); err != nil {
		return nil, errors.Wrap(liberrors.ErrInvalidEmail, err.Error())
	}
	if err := users.ValidatePasswordStrength(password, as.minPasswordLength); err != nil {
		return nil, errors.Wrap(liberrors.ErrWeakPassword, err.Error())
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[Signup] failed to hash password")
	}
	now := as.nowTime()
	user := &users.User{
		Email:        email,
		PasswordHash: hash,
		DateJoined:   now,
		LastLogin:    now,
	}
	if err := as.repos.Users.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[Signup] failed to create user")
	}

	return as.startSession(ctx, user)
}

// Login checks the credentials and starts a session. Unknown email and wrong
// password both fail with ErrInvalidCredentials.
func (as *AuthorizationService) Login(ctx context.Context, email, password string) (*sessions.Session, error) {
	user, err := as.repos.Users.GetByEmail(ctx, users.NormaliseEmail(email))
	if err != nil {
		if errors.Is(err, liberrors.ErrNotFound) {
			return nil, liberrors.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "[Login] failed to get user")
	}
	if !user.CheckPassword(password) {
		return nil, liberrors.ErrInvalidCredentials
	}

	if err := as.repos.Users.SetLastLogin(ctx, user.ID, as.nowTime()); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}
	return as.startSession(ctx, user)
}

func (as *AuthorizationService) startSession(ctx context.Context, user *users.User) (*sessions.Session, error) {
	now := as.nowTime()
	session := sessions.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: as.newExpiry(now),
	}
	token, err := as.signToken(session)
	if err != nil {
		return nil, err
	}
	session.Token = token

	if err := as.repos.Sessions.Upsert(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[startSession] failed to store session")
	}
	as.publish(ctx, SessionEvent{Type: SessionStarted, Session: session})
	return &session, nil
}

// Validate resolves a session token to its live session. Expired sessions
// are removed and reported to subscribers as ended.
func (as *AuthorizationService) Validate(ctx context.Context, token string) (*sessions.Session, error) {
	claims, err := as.parseToken(token)
	if err != nil {
		if errors.Is(err, liberrors.ErrSessionExpired) && claims != nil {
			as.endSession(ctx, claims.session())
		}
		return nil, err
	}

	session, err := as.repos.Sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, liberrors.ErrSessionNotFound) {
			// Already gone from the repo (expired by TTL or ended elsewhere).
			as.publish(ctx, SessionEvent{Type: SessionEnded, Session: claims.session()})
		}
		return nil, err
	}
	if session.Token != token || session.UserID != claims.Subject {
		return nil, liberrors.ErrInvalidToken
	}
	if session.Expired(as.nowTime()) {
		as.endSession(ctx, session)
		return nil, liberrors.ErrSessionExpired
	}
	return &session, nil
}

// Logout ends the session. Logging out an unknown session is not an error.
func (as *AuthorizationService) Logout(ctx context.Context, sessionID string) error {
	session, err := as.repos.Sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, liberrors.ErrSessionNotFound) {
			return nil
		}
		return errors.Wrap(err, "[Logout] failed to get session")
	}
	if err := as.repos.Sessions.Delete(ctx, sessionID); err != nil {
		return errors.Wrap(err, "[Logout] failed to delete session")
	}
	as.publish(ctx, SessionEvent{Type: SessionEnded, Session: session})
	return nil
}

// PurgeExpired removes expired sessions and notifies subscribers.
func (as *AuthorizationService) PurgeExpired(ctx context.Context) (int, error) {
	expired, err := as.repos.Sessions.DeleteExpired(ctx, as.nowTime())
	if err != nil {
		return 0, errors.Wrap(err, "[PurgeExpired] failed to delete expired sessions")
	}
	for _, s := range expired {
		as.publish(ctx, SessionEvent{Type: SessionEnded, Session: s})
	}
	return len(expired), nil
}

// endSession removes the session and tells subscribers. A session the repo
// no longer holds is still reported, using what the caller knows about it.
func (as *AuthorizationService) endSession(ctx context.Context, known sessions.Session) {
	session, err := as.repos.Sessions.Get(ctx, known.ID)
	if err != nil {
		if errors.Is(err, liberrors.ErrSessionNotFound) {
			as.publish(ctx, SessionEvent{Type: SessionEnded, Session: known})
		}
		return
	}
	if err := as.repos.Sessions.Delete(ctx, session.ID); err != nil {
		log.Err(err).Str("session_id", session.ID).Msg("failed to delete expired session")
		return
	}
	as.publish(ctx, SessionEvent{Type: SessionEnded, Session: session})
}
