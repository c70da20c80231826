package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/handlers/render"
	"github.com/nkiryanov/identity/internal/handlers/userctx"
	"github.com/nkiryanov/identity/internal/logger"
	"github.com/nkiryanov/identity/internal/models"
)

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// pathUser checks the authenticated user is the one addressed by the
// path "id". Users may manage their own account only.
func pathUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return models.User{}, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
		return models.User{}, false
	}

	if id != user.ID {
		render.ServiceError(w, "Forbidden", http.StatusForbidden)
		return models.User{}, false
	}

	return user, true
}

func handleUserMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		render.JSON(w, newUserResponse(user))
	})
}

func handleUpdateUser(as authService, l logger.Logger) http.Handler {
	type request struct {
		Name  string `json:"name" validate:"omitempty,username"`
		Email string `json:"email" validate:"omitempty,email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := pathUser(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := as.UpdateProfile(r.Context(), user.ID, data.Name, data.Email)
		if err != nil {
			switch {
			case renderFieldErrors(w, err):
			case errors.Is(err, apperrors.ErrEmailAlreadyExists):
				render.ServiceError(w, "User with this email already exists", http.StatusConflict)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				l.Error("profile update failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, newUserResponse(updated))
	})
}

func handleUpdatePassword(as authService, l logger.Logger) http.Handler {
	type request struct {
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := pathUser(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = as.UpdatePassword(r.Context(), user.ID, data.Password)
		if err != nil {
			switch {
			case renderFieldErrors(w, err):
			case errors.Is(err, apperrors.ErrSamePassword):
				render.ServiceError(w, "New password must differ from the current one", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				l.Error("password update failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

func handleDeleteUser(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := pathUser(w, r)
		if !ok {
			return
		}

		err := as.DeleteUser(r.Context(), user.ID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				l.Error("user delete failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
