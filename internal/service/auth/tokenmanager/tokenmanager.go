// Package tokenmanager orchestrates the token signer and the token cache
// into the token lifecycle: issue a pair on login, validate and refresh,
// revoke on logout.
package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
	"github.com/nkiryanov/identity/internal/service/auth/signer"
)

// TokenCache tracks live refresh tokens and the revocation denylist
// Implemented by tokencache.Cache
type TokenCache interface {
	// Save issued refresh token, overwrite semantic for the same pair
	SaveRefreshToken(ctx context.Context, userID string, token string, ttl time.Duration) error

	// Return saved value or empty string if the token is not known
	// Store unavailability must be an error, not an empty result
	GetRefreshToken(ctx context.Context, userID string, token string) (string, error)

	// Explicit invalidation on logout or rotation
	DeleteRefreshToken(ctx context.Context, userID string, token string) error

	// Deny the token until it would expire anyway
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

// Token manager config with sensible defaults
type Config struct {
	// Secrets to sign token payloads, scoped per kind
	// Required to be set
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// RotateRefresh makes Refresh issue and persist a new refresh token on
	// every use, deleting the presented one. Off by default: the default
	// flow only re-issues the access token.
	RotateRefresh bool
}

type TokenManager struct {
	signer *signer.Signer
	cache  TokenCache
	rotate bool
}

func New(cfg Config, cache TokenCache) (*TokenManager, error) {
	if cache == nil {
		return nil, errors.New("token cache must not be nil")
	}

	s, err := signer.New(signer.Config{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		Alg:           cfg.Alg,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating signer. Err: %w", err)
	}

	return &TokenManager{
		signer: s,
		cache:  cache,
		rotate: cfg.RotateRefresh,
	}, nil
}

// GeneratePair issues access and refresh tokens for the user and persists
// the refresh token in the cache for its whole lifetime
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair

	access, err := m.signer.Issue(user.ID, user.Email, models.TokenKindAccess)
	if err != nil {
		return pair, err
	}

	refresh, err := m.signer.Issue(user.ID, user.Email, models.TokenKindRefresh)
	if err != nil {
		return pair, err
	}

	err = m.cache.SaveRefreshToken(ctx, user.ID.String(), refresh.Value, m.signer.TTL(models.TokenKindRefresh))
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh validates the refresh token and issues a fresh access token.
// The cache entry is the authority: a structurally valid token that is not
// cached is rejected with apperrors.ErrRefreshTokenNotRecognized.
// In rotation mode the presented token is replaced with a newly issued one.
func (m *TokenManager) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	var pair models.TokenPair

	claims, err := m.signer.Verify(refreshToken, models.TokenKindRefresh)
	if err != nil {
		return pair, err
	}

	userID := claims.Subject

	stored, err := m.cache.GetRefreshToken(ctx, userID, refreshToken)
	if err != nil {
		return pair, fmt.Errorf("error while reading refresh token. Err: %w", err)
	}
	if stored == "" {
		return pair, apperrors.ErrRefreshTokenNotRecognized
	}

	id, err := claims.UserID()
	if err != nil {
		return pair, err
	}

	access, err := m.signer.Issue(id, claims.Email, models.TokenKindAccess)
	if err != nil {
		return pair, err
	}

	// Default mode: the presented refresh token stays live in the cache and
	// is echoed back with the expiry from its own claims
	refresh := models.IssuedToken{Value: refreshToken, ExpiresAt: claims.ExpiresAt.Time}

	if m.rotate {
		refresh, err = m.signer.Issue(id, claims.Email, models.TokenKindRefresh)
		if err != nil {
			return pair, err
		}

		if err := m.cache.DeleteRefreshToken(ctx, userID, refreshToken); err != nil {
			return pair, fmt.Errorf("error while deleting rotated token. Err: %w", err)
		}
		if err := m.cache.SaveRefreshToken(ctx, userID, refresh.Value, m.signer.TTL(models.TokenKindRefresh)); err != nil {
			return pair, fmt.Errorf("error while saving rotated token. Err: %w", err)
		}
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// RevokeRefresh drops the refresh token from the cache and denies it for
// its remaining validity
func (m *TokenManager) RevokeRefresh(ctx context.Context, refreshToken string) error {
	claims, err := m.signer.Verify(refreshToken, models.TokenKindRefresh)
	if err != nil {
		return err
	}

	if err := m.cache.DeleteRefreshToken(ctx, claims.Subject, refreshToken); err != nil {
		return fmt.Errorf("error while deleting refresh token. Err: %w", err)
	}

	return m.blacklist(ctx, refreshToken, claims.ExpiresAt.Time)
}

// RevokeAccess denies the access token for its remaining validity
func (m *TokenManager) RevokeAccess(ctx context.Context, accessToken string) error {
	claims, err := m.signer.Verify(accessToken, models.TokenKindAccess)
	if err != nil {
		return err
	}

	return m.blacklist(ctx, accessToken, claims.ExpiresAt.Time)
}

// ParseAccess verifies the access token and checks it against the denylist
// Returns the verified claims
func (m *TokenManager) ParseAccess(ctx context.Context, accessToken string) (signer.Claims, error) {
	claims, err := m.signer.Verify(accessToken, models.TokenKindAccess)
	if err != nil {
		return claims, err
	}

	blacklisted, err := m.cache.IsTokenBlacklisted(ctx, accessToken)
	if err != nil {
		// Cache outage fails closed, not open
		return claims, fmt.Errorf("error while checking denylist. Err: %w", err)
	}
	if blacklisted {
		return claims, apperrors.ErrTokenInvalid
	}

	return claims, nil
}

func (m *TokenManager) blacklist(ctx context.Context, token string, expiresAt time.Time) error {
	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		return nil
	}

	if err := m.cache.AddToBlacklist(ctx, token, remaining); err != nil {
		return fmt.Errorf("error while blacklisting token. Err: %w", err)
	}

	return nil
}
