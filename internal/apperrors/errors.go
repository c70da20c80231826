package apperrors

import (
	"errors"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")

	// Login failures are intentionally indistinguishable
	// "no such user" and "wrong password" both map here
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrTokenInvalid      = errors.New("token is invalid")
	ErrTokenExpired      = errors.New("token is expired")
	ErrTokenKindMismatch = errors.New("token kind mismatch")

	// Signature valid but the token is not in the cache:
	// revoked, rotated out or never issued by us
	ErrRefreshTokenNotRecognized = errors.New("refresh token not recognized")

	ErrSamePassword = errors.New("new password must differ from the current one")
)
