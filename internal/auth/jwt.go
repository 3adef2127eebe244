// Package auth provides session tokens, password hashing, and the HTTP
// middleware that guards the song endpoints.
//
// SESSION FLOW:
//  1. POST /api/auth/login verifies the credentials and issues a JWT
//  2. The client stores it and sends `Authorization: Bearer <jwt>` on
//     every song request
//  3. RequireAuth validates the token and puts the identity (user id +
//     email) into the request context before any handler runs
//
// The token is stateless — nothing is persisted server-side. The signature
// (HMAC-SHA256 over header+payload) is what prevents tampering; expiry and
// issuer are validated on every request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "walkonsongs"

// Identity is what a validated session token proves: who the caller is.
type Identity struct {
	UserID string
	Email  string
}

// TokenService signs and validates session JWTs.
//
// It holds the HMAC secret and the token lifetime. The same secret must be
// used for signing and verifying — rotate it and every session dies, which
// is an acceptable trade for a stateless design.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret should be at least
// 32 bytes of random data in production (JWT_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload: the registered claims (sub = user id, exp,
// iat, iss) plus the account email, so protected handlers know both
// without a DB lookup.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given identity.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.generate(id, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry. Used by tests
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	return s.generate(id, d)
}

func (s *TokenService) generate(id Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token string and returns the
// identity it carries.
//
// The jwt library checks the signature and expiry; we additionally pin the
// algorithm (jwt.WithValidMethods — prevents algorithm-confusion attacks)
// and the issuer (tokens minted by other apps sharing the secret are
// rejected).
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
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
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	return Identity{UserID: c.Subject, Email: c.Email}, nil
}
