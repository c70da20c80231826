package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nkiryanov/identity/internal/handlers/render"
	"github.com/nkiryanov/identity/internal/handlers/userctx"
	"github.com/nkiryanov/identity/internal/models"
)

type authService interface {
	// Resolve bearer access token into the user it belongs to
	Authenticate(ctx context.Context, accessToken string) (models.User, error)
}

// BearerToken extracts the access token from the Authorization header
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := as.Authenticate(r.Context(), token)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.NewContext(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
