package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/identity/internal/logger"
	"github.com/nkiryanov/identity/internal/models"
	"github.com/nkiryanov/identity/internal/repository/postgres"
	"github.com/nkiryanov/identity/internal/service/auth"
	"github.com/nkiryanov/identity/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/identity/internal/testutil"
	"github.com/nkiryanov/identity/internal/tokencache"
)

func Test_Handlers(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	rd := testutil.StartRedisContainer(t)
	t.Cleanup(rd.Terminate)

	// Run http server with production AuthService attached
	// Rollback db transaction when the test stops
	withServer := func(t *testing.T, fn func(url string, s *auth.AuthService)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			userRepo := &postgres.UserRepo{DB: tx}

			tokenManager, err := tokenmanager.New(
				tokenmanager.Config{
					AccessSecret:  "test-access-secret",
					RefreshSecret: "test-refresh-secret",
				},
				tokencache.New(rd.Client),
			)
			require.NoError(t, err, "token manager should be created without errors")

			s, err := auth.NewService(auth.Config{Hasher: auth.BcryptHasher{Cost: 6}}, tokenManager, userRepo)
			require.NoError(t, err, "auth service could't be started")

			srv := httptest.NewServer(NewRouter(s, logger.NewNoOpLogger()))
			defer srv.Close()

			fn(srv.URL, s)
		})
	}

	// Issue request with optional bearer token and return response with read body
	do := func(t *testing.T, method string, url string, token string, body string) (*http.Response, string) {
		t.Helper()

		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}

		req, err := http.NewRequest(method, url, reader)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		return resp, string(data)
	}

	// Register a user and sign it in, returns the user and its token pair
	signedInUser := func(t *testing.T, s *auth.AuthService) (models.User, models.TokenPair) {
		t.Helper()

		user, err := s.SignUp(t.Context(), "John Doe", "john@example.com", "Valid1Pass!")
		require.NoError(t, err)

		_, pair, err := s.SignIn(t.Context(), "john@example.com", "Valid1Pass!")
		require.NoError(t, err)

		return user, pair
	}

	t.Run("signup ok", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			data := `{"name": "John Doe", "email": "john@example.com", "password": "Valid1Pass!"}`

			resp, body := do(t, http.MethodPost, url+"/api/auth/signup", "", data)

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, `"id"`)
			require.Contains(t, body, `"John Doe"`)
			require.Contains(t, body, `"john@example.com"`)
			require.Contains(t, body, `"createdAt"`)
			require.NotContains(t, body, "password", "password must never appear in responses")
		})
	})

	t.Run("signup duplicate email", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			_, err := s.SignUp(t.Context(), "John Doe", "john@example.com", "Valid1Pass!")
			require.NoError(t, err)

			data := `{"name": "Jane Doe", "email": "john@example.com", "password": "Other1Pass!"}`
			resp, body := do(t, http.MethodPost, url+"/api/auth/signup", "", data)

			require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "User with this email already exists"
				}`, body)
		})
	})

	t.Run("signup weak password", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			data := `{"name": "John Doe", "email": "john@example.com", "password": "weak"}`

			resp, body := do(t, http.MethodPost, url+"/api/auth/signup", "", data)

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, "validation_failed")
			require.Contains(t, body, "password")
		})
	})

	t.Run("signin ok", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			_, err := s.SignUp(t.Context(), "John Doe", "john@example.com", "Valid1Pass!")
			require.NoError(t, err)

			data := `{"email": "john@example.com", "password": "Valid1Pass!"}`
			resp, body := do(t, http.MethodPost, url+"/api/auth/signin", "", data)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, `"accessToken"`)
			require.Contains(t, body, `"refreshToken"`)
			require.Contains(t, body, `"expiresIn"`)
		})
	})

	t.Run("signin failures look the same", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			_, err := s.SignUp(t.Context(), "John Doe", "john@example.com", "Valid1Pass!")
			require.NoError(t, err)

			wrongPassword := `{"email": "john@example.com", "password": "Wrong1Pass!"}`
			unknownEmail := `{"email": "nobody@example.com", "password": "Valid1Pass!"}`

			respWrong, bodyWrong := do(t, http.MethodPost, url+"/api/auth/signin", "", wrongPassword)
			respUnknown, bodyUnknown := do(t, http.MethodPost, url+"/api/auth/signin", "", unknownEmail)

			require.Equal(t, http.StatusUnauthorized, respWrong.StatusCode)
			require.Equal(t, http.StatusUnauthorized, respUnknown.StatusCode)
			require.JSONEq(t, bodyWrong, bodyUnknown, "bodies must not reveal which check failed")
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Invalid email or password"
				}`, bodyWrong)
		})
	})

	t.Run("refresh ok", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			_, pair := signedInUser(t, s)

			data := fmt.Sprintf(`{"refreshToken": %q}`, pair.Refresh.Value)
			resp, body := do(t, http.MethodPost, url+"/api/auth/refresh", "", data)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, `"accessToken"`)
		})
	})

	t.Run("refresh with garbage token", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			data := `{"refreshToken": "not-even-a-jwt"}`

			resp, body := do(t, http.MethodPost, url+"/api/auth/refresh", "", data)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Refresh token invalid or expired"
				}`, body)
		})
	})

	t.Run("logout revokes tokens", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			_, pair := signedInUser(t, s)

			data := fmt.Sprintf(`{"refreshToken": %q}`, pair.Refresh.Value)
			resp, body := do(t, http.MethodPost, url+"/api/auth/logout", pair.Access.Value, data)
			require.Equalf(t, http.StatusNoContent, resp.StatusCode, "not expected code. Body: %s", body)

			// Refresh token must be dead after logout
			resp, _ = do(t, http.MethodPost, url+"/api/auth/refresh", "", data)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			// Access token is blacklisted as well
			resp, _ = do(t, http.MethodGet, url+"/api/users/me", pair.Access.Value, "")
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	})

	t.Run("me requires token", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			resp, body := do(t, http.MethodGet, url+"/api/users/me", "", "")

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("me ok", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			user, pair := signedInUser(t, s)

			resp, body := do(t, http.MethodGet, url+"/api/users/me", pair.Access.Value, "")

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, user.ID.String())
			require.Contains(t, body, `"john@example.com"`)
		})
	})

	t.Run("update profile ok", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			user, pair := signedInUser(t, s)

			data := `{"name": "Johnny Doe"}`
			resp, body := do(t, http.MethodPut, url+"/api/users/"+user.ID.String(), pair.Access.Value, data)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, `"Johnny Doe"`)
			require.Contains(t, body, `"john@example.com"`, "email should be unchanged")
		})
	})

	t.Run("update someone else forbidden", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			_, pair := signedInUser(t, s)
			other, err := s.SignUp(t.Context(), "Jane Doe", "jane@example.com", "Valid1Pass!")
			require.NoError(t, err)

			data := `{"name": "Hacked Name"}`
			resp, body := do(t, http.MethodPut, url+"/api/users/"+other.ID.String(), pair.Access.Value, data)

			require.Equalf(t, http.StatusForbidden, resp.StatusCode, "not expected code. Body: %s", body)
		})
	})

	t.Run("update password and sign in with it", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			user, pair := signedInUser(t, s)

			data := `{"password": "Another1Pass!"}`
			resp, body := do(t, http.MethodPatch, url+"/api/users/"+user.ID.String()+"/password", pair.Access.Value, data)
			require.Equalf(t, http.StatusNoContent, resp.StatusCode, "not expected code. Body: %s", body)

			_, _, err := s.SignIn(t.Context(), "john@example.com", "Another1Pass!")
			require.NoError(t, err, "new password should work")
		})
	})

	t.Run("update password to the same one", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			user, pair := signedInUser(t, s)

			data := `{"password": "Valid1Pass!"}`
			resp, body := do(t, http.MethodPatch, url+"/api/users/"+user.ID.String()+"/password", pair.Access.Value, data)

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "New password must differ from the current one"
				}`, body)
		})
	})

	t.Run("delete user", func(t *testing.T) {
		withServer(t, func(url string, s *auth.AuthService) {
			user, pair := signedInUser(t, s)

			resp, body := do(t, http.MethodDelete, url+"/api/users/"+user.ID.String(), pair.Access.Value, "")
			require.Equalf(t, http.StatusNoContent, resp.StatusCode, "not expected code. Body: %s", body)

			// Deleted user can't be resolved from its access token anymore
			resp, _ = do(t, http.MethodGet, url+"/api/users/me", pair.Access.Value, "")
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	})
}
