// Package signer issues and verifies the JWT tokens of the service.
//
// Access and refresh tokens are signed with independent secrets, and the
// token kind travels inside the signed payload. Verification checks both:
// a token signed with the wrong secret fails cryptographically, and even
// if the secrets were ever shared the kind claim still rejects an access
// token presented as a refresh token.
package signer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 24 * time.Hour
)

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Type  string `json:"type"`
}

// Signer config with sensible defaults
type Config struct {
	// Secrets to sign token payloads, scoped per token kind
	// Both required to be set
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Signer struct {
	accessSecret  []byte
	refreshSecret []byte

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Signer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("both access and refresh secrets must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Signer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		alg:           jwt.GetSigningMethod(cfg.Alg),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

// TTL returns the configured lifetime for the token kind
func (s *Signer) TTL(kind models.TokenKind) time.Duration {
	if kind == models.TokenKindRefresh {
		return s.refreshTTL
	}
	return s.accessTTL
}

// Issue signs a new token of the given kind for the user
// The returned ExpiresAt is computed from the local clock and has to match
// the exp claim inside the token itself
func (s *Signer) Issue(userID uuid.UUID, email string, kind models.TokenKind) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(s.TTL(kind))

	token := jwt.NewWithClaims(
		s.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   userID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Email: email,
			Type:  string(kind),
		},
	)

	signed, err := token.SignedString(s.secret(kind))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing %s token. Err: %w", kind, err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks the signature and expiry against the secret of the expected
// kind, then asserts the kind claim inside the payload
// Errors: apperrors.ErrTokenExpired, apperrors.ErrTokenInvalid,
// apperrors.ErrTokenKindMismatch
func (s *Signer) Verify(tokenString string, kind models.TokenKind) (Claims, error) {
	claims := Claims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (any, error) { return s.secret(kind), nil },
		jwt.WithValidMethods([]string{s.alg.Alg()}),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return claims, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	default:
		return claims, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	// Kind is re-checked after cryptographic verification on purpose
	if claims.Type != string(kind) {
		return claims, fmt.Errorf("%w: expected %q got %q", apperrors.ErrTokenKindMismatch, kind, claims.Type)
	}

	return claims, nil
}

// UserID parses the subject claim back to uuid
func (c Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject claim: %w", apperrors.ErrTokenInvalid, err)
	}
	return id, nil
}

func (s *Signer) secret(kind models.TokenKind) []byte {
	if kind == models.TokenKindRefresh {
		return s.refreshSecret
	}
	return s.accessSecret
}
