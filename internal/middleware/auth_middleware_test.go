package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
)

type stubTokenProvider struct {
	validateAccessToken func(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
}

func (s *stubTokenProvider) GenerateAccessToken(username string) (string, error)  { return "", nil }
func (s *stubTokenProvider) GenerateRefreshToken(username string) (string, error) { return "", nil }
func (s *stubTokenProvider) Parse(tokenString string) (*dto.AuthClaims, error)    { return nil, nil }
func (s *stubTokenProvider) ValidateAccessToken(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	return s.validateAccessToken(ctx, tokenString)
}
func (s *stubTokenProvider) ValidateRefreshToken(tokenString string) (*dto.AuthClaims, error) {
	return nil, nil
}
func (s *stubTokenProvider) BlacklistAccessToken(ctx context.Context, tokenString string) error {
	return nil
}
func (s *stubTokenProvider) AccessTokenTTL() time.Duration  { return time.Minute }
func (s *stubTokenProvider) RefreshTokenTTL() time.Duration { return time.Hour }

type stubAuthService struct {
	getUserByUsername func(ctx context.Context, username string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	return nil, nil
}
func (s *stubAuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	return nil, nil
}
func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	return nil, nil
}
func (s *stubAuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return nil
}
func (s *stubAuthService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUserByUsername(ctx, username)
}

func claimsFor(username string) *dto.AuthClaims {
	return &dto.AuthClaims{
		TokenType:        "access",
		RegisteredClaims: jwt.RegisteredClaims{Subject: username},
	}
}

func memberUser() *domain.User {
	return &domain.User{
		ID:       "user-1",
		Username: "alice",
		Role:     domain.RoleUser,
		Enabled:  true,
	}
}

func newGuardedApp(provider *stubTokenProvider, auth *stubAuthService, extra ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	handlers := []fiber.Handler{Protected(provider, auth)}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		return c.JSON(fiber.Map{
			"username": user.Username,
			"token":    CurrentAccessToken(c),
		})
	})
	app.Get("/guarded", handlers...)
	return app
}

func requestGuarded(t *testing.T, app *fiber.App, authHeader string) (*http.Response, ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if authHeader != "" {
		req.Header.Set(AuthorizationHeader, authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var body ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc", ExtractBearerToken("Bearer abc"))
	assert.Empty(t, ExtractBearerToken(""))
	assert.Empty(t, ExtractBearerToken("Basic abc"))
	assert.Empty(t, ExtractBearerToken("bearer abc"))
}

func TestProtected(t *testing.T) {
	t.Run("MissingHeaderIsRejected", func(t *testing.T) {
		provider := &stubTokenProvider{validateAccessToken: func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
			t.Error("token must not be validated without a header")
			return nil, nil
		}}
		auth := &stubAuthService{}
		app := newGuardedApp(provider, auth)

		resp, body := requestGuarded(t, app, "")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, string(domain.CodeNotAuthenticated), body.ErrorCode)
	})

	t.Run("NonBearerSchemeIsRejected", func(t *testing.T) {
		provider := &stubTokenProvider{validateAccessToken: func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
			t.Error("token must not be validated without a bearer scheme")
			return nil, nil
		}}
		app := newGuardedApp(provider, &stubAuthService{})

		resp, _ := requestGuarded(t, app, "Basic dXNlcjpwYXNz")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("InvalidTokenIsRejected", func(t *testing.T) {
		provider := &stubTokenProvider{validateAccessToken: func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
			return nil, domain.NewInvalidTokenError(assert.AnError)
		}}
		app := newGuardedApp(provider, &stubAuthService{})

		resp, body := requestGuarded(t, app, "Bearer bad-token")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, string(domain.CodeInvalidToken), body.ErrorCode)
	})

	t.Run("UnknownSubjectIsRejected", func(t *testing.T) {
		provider := &stubTokenProvider{validateAccessToken: func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
			return claimsFor("ghost"), nil
		}}
		auth := &stubAuthService{getUserByUsername: func(ctx context.Context, username string) (*domain.User, error) {
			return nil, nil
		}}
		app := newGuardedApp(provider, auth)

		resp, body := requestGuarded(t, app, "Bearer token")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, string(domain.CodeNotAuthenticated), body.ErrorCode)
	})

	t.Run("DisabledAccountIsForbidden", func(t *testing.T) {
		provider := &stubTokenProvider{validateAccessToken: func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
			return claimsFor("alice"), nil
		}}
		auth := &stubAuthService{getUserByUsername: func(ctx context.Context, username string) (*domain.User, error) {
			user := memberUser()
			user.Enabled = false
			return user, nil
		}}
		app := newGuardedApp(provider, auth)

		resp, body := requestGuarded(t, app, "Bearer token")

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, string(domain.CodeForbidden), body.ErrorCode)
	})

	t.Run("ValidTokenStoresPrincipalInLocals", func(t *testing.T) {
		provider := &stubTokenProvider{validateAccessToken: func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
			assert.Equal(t, "good-token", tokenString)
			return claimsFor("alice"), nil
		}}
		auth := &stubAuthService{getUserByUsername: func(ctx context.Context, username string) (*domain.User, error) {
			assert.Equal(t, "alice", username)
			return memberUser(), nil
		}}
		app := newGuardedApp(provider, auth)

		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.Header.Set(AuthorizationHeader, "Bearer good-token")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "good-token", body["token"])
	})
}

func TestAdminOnly(t *testing.T) {
	appFor := func(user *domain.User) *fiber.App {
		provider := &stubTokenProvider{validateAccessToken: func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
			return claimsFor(user.Username), nil
		}}
		auth := &stubAuthService{getUserByUsername: func(ctx context.Context, username string) (*domain.User, error) {
			return user, nil
		}}
		return newGuardedApp(provider, auth, AdminOnly())
	}

	t.Run("MemberIsForbidden", func(t *testing.T) {
		resp, body := requestGuarded(t, appFor(memberUser()), "Bearer token")

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, string(domain.CodeForbidden), body.ErrorCode)
	})

	t.Run("AdminPasses", func(t *testing.T) {
		admin := memberUser()
		admin.Role = domain.RoleAdmin

		resp, _ := requestGuarded(t, appFor(admin), "Bearer token")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("UnauthenticatedRequestIsRejected", func(t *testing.T) {
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		app.Get("/admin", AdminOnly(), func(c *fiber.Ctx) error {
			return c.SendString("ok")
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
