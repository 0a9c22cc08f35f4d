package auth

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-book-library/auth/sessions"
	liberrors "github.com/jrsteele09/go-book-library/internal/errors"
	"github.com/pkg/errors"
)

const tokenIssuer = "go-book-library"

// sessionClaims are carried by the session cookie. The token is opaque to the
// browser; the session ID inside it is looked up on every request so logout
// takes effect immediately.
type sessionClaims struct {
	jwtlib.RegisteredClaims
}

func (as *AuthorizationService) signToken(s sessions.Session) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   s.UserID,
			ID:        s.ID,
			IssuedAt:  jwtlib.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwtlib.NewNumericDate(s.ExpiresAt),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(as.secret)
	if err != nil {
		return "", errors.Wrap(err, "[signToken] failed to sign session token")
	}
	return signed, nil
}

// parseToken verifies signature, issuer and expiry and returns the claims.
func (as *AuthorizationService) parseToken(raw string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(*jwtlib.Token) (any, error) {
		return as.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(tokenIssuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(as.nowTime),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return claims, liberrors.ErrSessionExpired
		}
		return nil, errors.Wrap(liberrors.ErrInvalidToken, err.Error())
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, liberrors.ErrInvalidToken
	}
	return claims, nil
}

// session is what the token alone says about its session.
func (c *sessionClaims) session() sessions.Session {
	s := sessions.Session{ID: c.ID, UserID: c.Subject}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	if c.IssuedAt != nil {
		s.CreatedAt = c.IssuedAt.Time
	}
	return s
}

func (as *AuthorizationService) newExpiry(now time.Time) time.Time {
	return now.Add(as.maxAge)
}
