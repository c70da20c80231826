package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
	"github.com/nkiryanov/identity/internal/repository"
	"github.com/nkiryanov/identity/internal/service/auth/signer"
	"github.com/nkiryanov/identity/internal/validate"
)

// TokenManager issues, validates and revokes token pairs
// Implemented by tokenmanager.TokenManager
type TokenManager interface {
	GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	RevokeRefresh(ctx context.Context, refreshToken string) error
	RevokeAccess(ctx context.Context, accessToken string) error
	ParseAccess(ctx context.Context, accessToken string) (signer.Claims, error)
}

type Config struct {
	// Hasher to use during user registration or login process
	// Bcrypt with default cost is used if not set
	Hasher PasswordHasher
}

// Auth service: sign up, sign in, refresh, logout and profile updates
type AuthService struct {
	token    TokenManager
	hasher   PasswordHasher
	userRepo repository.UserRepo

	// Hash of a throwaway password, compared against when the user is not
	// found so both login failures stay in the same latency class
	dummyHash string
}

func NewService(cfg Config, tokenManager TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	if tokenManager == nil || userRepo == nil {
		return nil, errors.New("token manager and user repo must not be nil")
	}

	dummyHash, err := hasher.Hash("dummy-password-to-equalize-timing")
	if err != nil {
		return nil, fmt.Errorf("hasher is not usable. Err: %w", err)
	}

	return &AuthService{
		token:     tokenManager,
		hasher:    hasher,
		userRepo:  userRepo,
		dummyHash: dummyHash,
	}, nil
}

// SignUp registers a new user and returns the created record
// The email existence check here is best effort: two concurrent sign ups
// may both pass it, the unique constraint in the storage rejects the second
func (s *AuthService) SignUp(ctx context.Context, name string, email string, password string) (models.User, error) {
	var user models.User

	if err := validate.SignUpInput(name, email, password); err != nil {
		return user, err
	}

	_, err := s.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return user, apperrors.ErrEmailAlreadyExists
	case errors.Is(err, apperrors.ErrUserNotFound):
	default:
		return user, fmt.Errorf("can't check email. Err: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err = s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Name:           name,
		Email:          email,
		HashedPassword: hash,
	})
	if err != nil {
		return user, err
	}

	return user, nil
}

// SignIn verifies the credentials and issues a token pair
// "no such user" and "wrong password" are indistinguishable on purpose
func (s *AuthService) SignIn(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Burn the same hashing time as the happy path would
		_ = s.hasher.Compare(s.dummyHash, password)
		return user, pair, apperrors.ErrInvalidCredentials
	case err != nil:
		return user, pair, fmt.Errorf("can't lookup user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return user, pair, apperrors.ErrInvalidCredentials
	}

	pair, err = s.token.GeneratePair(ctx, user)
	if err != nil {
		return user, pair, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return user, pair, nil
}

// Refresh exchanges a live refresh token for a fresh access token
// (and a fresh refresh token when rotation mode is on)
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	return s.token.Refresh(ctx, refreshToken)
}

// Logout revokes the refresh token and, when provided, the access token
func (s *AuthService) Logout(ctx context.Context, refreshToken string, accessToken string) error {
	if err := s.token.RevokeRefresh(ctx, refreshToken); err != nil {
		return err
	}

	if accessToken == "" {
		return nil
	}

	err := s.token.RevokeAccess(ctx, accessToken)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrTokenExpired), errors.Is(err, apperrors.ErrTokenInvalid):
		// Access token already unusable, nothing to deny
		return nil
	default:
		return err
	}
}

// Authenticate resolves a bearer access token into the user it belongs to
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (models.User, error) {
	var user models.User

	claims, err := s.token.ParseAccess(ctx, accessToken)
	if err != nil {
		return user, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return user, err
	}

	return s.userRepo.GetUserByID(ctx, userID)
}

// UpdateProfile changes name and, or email of the user
// Empty fields keep their current values
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, name string, email string) (models.User, error) {
	var user models.User

	if name != "" {
		if err := validate.Name(name); err != nil {
			return user, err
		}
	}
	if email != "" {
		if err := validate.Email(email); err != nil {
			return user, err
		}
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return user, err
	}

	return s.userRepo.UpdateUser(ctx, user.WithUpdatedProfile(name, email))
}

// UpdatePassword replaces the user password with a new one
// The new password must differ from the current one
func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error {
	if err := validate.Password(password); err != nil {
		return err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err == nil {
		return apperrors.ErrSamePassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	_, err = s.userRepo.UpdateUser(ctx, user.WithUpdatedPassword(hash))
	return err
}

// DeleteUser removes the user record
func (s *AuthService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.userRepo.DeleteUser(ctx, userID)
}
