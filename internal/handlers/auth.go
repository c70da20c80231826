package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/handlers/middleware"
	"github.com/nkiryanov/identity/internal/handlers/render"
	"github.com/nkiryanov/identity/internal/logger"
	"github.com/nkiryanov/identity/internal/models"
	"github.com/nkiryanov/identity/internal/validate"
)

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

func newTokenResponse(t models.IssuedToken) tokenResponse {
	return tokenResponse{Token: t.Value, ExpiresIn: t.ExpiresAt.Unix()}
}

// renderTokenError maps token errors to responses
// Internal token error kinds are logged but flattened to one generic
// message so callers can't probe which check failed
func renderTokenError(w http.ResponseWriter, l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrTokenInvalid),
		errors.Is(err, apperrors.ErrTokenKindMismatch),
		errors.Is(err, apperrors.ErrRefreshTokenNotRecognized):
		l.Info("refresh token rejected", "error", err.Error())
		render.ServiceError(w, "Refresh token invalid or expired", http.StatusUnauthorized)
	default:
		l.Error("token operation failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// renderFieldErrors renders domain validation errors if err is one
// Returns false if err is something else
func renderFieldErrors(w http.ResponseWriter, err error) bool {
	var fieldErrs validate.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return false
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field] = fe.Message
	}
	render.ValidationFields(w, fields)
	return true
}

func handleSignUp(as authService, l logger.Logger) http.Handler {
	type request struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		ID        uuid.UUID `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"createdAt"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := as.SignUp(r.Context(), data.Name, data.Email, data.Password)
		if err != nil {
			switch {
			case renderFieldErrors(w, err):
			case errors.Is(err, apperrors.ErrEmailAlreadyExists):
				render.ServiceError(w, "User with this email already exists", http.StatusConflict)
			default:
				l.Error("sign up failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, response{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		}, http.StatusCreated)
	})
}

func handleSignIn(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		ID           uuid.UUID     `json:"id"`
		Name         string        `json:"name"`
		Email        string        `json:"email"`
		AccessToken  tokenResponse `json:"accessToken"`
		RefreshToken tokenResponse `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, pair, err := as.SignIn(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				// One generic message for both unknown email and wrong password
				render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
			default:
				l.Error("sign in failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			AccessToken:  newTokenResponse(pair.Access),
			RefreshToken: newTokenResponse(pair.Refresh),
		})
	})
}

func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type response struct {
		AccessToken tokenResponse `json:"accessToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := as.Refresh(r.Context(), data.RefreshToken)
		if err != nil {
			renderTokenError(w, l, err)
			return
		}

		render.JSON(w, response{AccessToken: newTokenResponse(pair.Access)})
	})
}

func handleLogout(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		// Access token is optional on logout: revoke it too when presented
		err = as.Logout(r.Context(), data.RefreshToken, middleware.BearerToken(r))
		if err != nil {
			renderTokenError(w, l, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
