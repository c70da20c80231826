package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/handlers/middleware"
	"github.com/nkiryanov/identity/internal/logger"
	"github.com/nkiryanov/identity/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(as authService, logger logger.Logger) http.Handler {
	authMiddleware := middleware.AuthMiddleware(as)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	apiauth := http.NewServeMux()
	apiauth.Handle("POST /signup", handleSignUp(as, logger))
	apiauth.Handle("POST /signin", handleSignIn(as, logger))
	apiauth.Handle("POST /refresh", handleTokenRefresh(as, logger))
	apiauth.Handle("POST /logout", withAuth(handleLogout(as, logger)))

	apiusers := http.NewServeMux()
	apiusers.Handle("GET /me", withAuth(handleUserMe()))
	apiusers.Handle("PUT /{id}", withAuth(handleUpdateUser(as, logger)))
	apiusers.Handle("PATCH /{id}/password", withAuth(handleUpdatePassword(as, logger)))
	apiusers.Handle("DELETE /{id}", withAuth(handleDeleteUser(as, logger)))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))
	root.Handle("/api/users/", http.StripPrefix("/api/users", apiusers))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user with name, email and password
	// Has to return apperrors.ErrEmailAlreadyExists if email is taken
	SignUp(ctx context.Context, name string, email string, password string) (models.User, error)

	// Check credentials and issue a token pair
	// Has to return apperrors.ErrInvalidCredentials on any credential
	// failure, without telling which check failed
	SignIn(ctx context.Context, email string, password string) (models.User, models.TokenPair, error)

	// Issue a fresh access token for a live refresh token
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)

	// Revoke the refresh token and blacklist the access token if given
	Logout(ctx context.Context, refreshToken string, accessToken string) error

	// Resolve an access token to the user it was issued for
	Authenticate(ctx context.Context, accessToken string) (models.User, error)

	// Update name or email, empty fields keep current values
	UpdateProfile(ctx context.Context, userID uuid.UUID, name string, email string) (models.User, error)

	// Replace user password
	// Has to return apperrors.ErrSamePassword if it matches the current one
	UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error

	// Remove the user account
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}
