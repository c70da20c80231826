package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/nkiryanov/identity/internal/models"
)

type CreateUserParams struct {
	Name           string
	Email          string
	HashedPassword string
}

// User repository interface
type UserRepo interface {
	// Create user
	// Email uniqueness is enforced by the storage itself, application level
	// checks alone are not enough under concurrency
	// If user with email exists already has to return apperrors.ErrEmailAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Persist changed name, email, password hash and updated_at
	// If user not found must return apperrors.ErrUserNotFound
	UpdateUser(ctx context.Context, user models.User) (models.User, error)

	// Delete user by id
	// If user not found must return apperrors.ErrUserNotFound
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// Storage aggregates repositories over one db connection or transaction
type Storage interface {
	User() UserRepo

	// Run fn within single db transaction
	InTx(ctx context.Context, fn func(s Storage) error) error
}
