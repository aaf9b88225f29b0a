// Package auth provides the GitHub OAuth flow, JWT session tokens, and the
// middleware that turns a request cookie into an explicit Session value.
//
// SESSION MODEL:
// The server is stateless. After the OAuth callback, everything a request
// needs to know about its caller — the internal user ID and the GitHub
// access token — lives inside a signed HS256 JWT stored in an HttpOnly
// cookie. Validating the signature is the only check; no session store, no
// DB lookup. The GitHub access token rides along in a private claim because
// the README proxy and repository listing call GitHub on the user's behalf.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated caller's identity, passed explicitly into
// every service call. The zero value is an anonymous session.
type Session struct {
	UserID      string // internal user ID (xid), empty for anonymous callers
	AccessToken string // GitHub OAuth access token, empty for anonymous callers
}

// Authenticated reports whether the session belongs to a signed-in user.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The same
// secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. "sub" holds the internal user ID; "ght" is a
// private claim carrying the GitHub access token so server-side GitHub
// calls can be made without persisting the token anywhere.
type claims struct {
	jwt.RegisteredClaims
	GitHubToken string `json:"ght,omitempty"`
}

// SessionLifetime is how long an issued session cookie stays valid. After
// expiry the user goes through the OAuth redirect again.
const SessionLifetime = 24 * time.Hour

// Generate creates and signs a new session JWT for the given user.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key signs and
// verifies, which is all a single-server deployment needs.
func (s *TokenService) Generate(sess Session) (string, error) {
	return s.GenerateWithDuration(sess, SessionLifetime)
}

// GenerateWithDuration creates a session token with a custom expiry.
// Used in tests to exercise expired-token handling.
func (s *TokenService) GenerateWithDuration(sess Session, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    "sunhaksan",
		},
		GitHubToken: sess.AccessToken,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the Session it
// encodes.
//
// The jwt library checks the signature, expiry, and issuer. Passing
// jwt.WithValidMethods pins the algorithm to HS256 — without it a token
// claiming a different algorithm could slip through (the classic algorithm
// confusion attack).
func (s *TokenService) Validate(tokenStr string) (Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer("sunhaksan"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, fmt.Errorf("auth: token expired")
		}
		return Session{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Session{}, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return Session{}, fmt.Errorf("auth: token has no subject")
	}

	return Session{UserID: c.Subject, AccessToken: c.GitHubToken}, nil
}
