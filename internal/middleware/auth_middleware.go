package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"quizapp/internal/domain"
	"quizapp/internal/logger"
	"quizapp/internal/service"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	UserKey             = "currentUser" // Key for storing the *domain.User in fiber.Ctx locals
	AccessTokenKey      = "accessToken" // Key for storing the raw bearer token in fiber.Ctx locals
)

// ExtractBearerToken pulls the token out of an Authorization header value.
// Returns the empty string when the header is absent or not a Bearer scheme.
func ExtractBearerToken(header string) string {
	if !strings.HasPrefix(header, BearerSchema) {
		return ""
	}
	return strings.TrimPrefix(header, BearerSchema)
}

// Protected requires a valid, non-blacklisted access token. The resolved
// account is stored in the request locals for handlers downstream.
func Protected(tokenProvider service.TokenProvider, authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ExtractBearerToken(c.Get(AuthorizationHeader))
		if tokenString == "" {
			return domain.NewNotAuthenticatedError("Missing or malformed Authorization header")
		}

		claims, err := tokenProvider.ValidateAccessToken(c.Context(), tokenString)
		if err != nil {
			return err
		}

		user, err := authService.GetUserByUsername(c.Context(), claims.Subject)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.NewNotAuthenticatedError("Unknown subject")
		}
		if !user.Enabled {
			return domain.NewForbiddenError("Account is disabled")
		}

		c.Locals(UserKey, user)
		c.Locals(AccessTokenKey, tokenString)

		return c.Next()
	}
}

// AdminOnly requires the authenticated user to hold the administrator role.
// Must run after Protected.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return domain.NewNotAuthenticatedError("Authentication required")
		}
		if !user.IsAdmin() {
			logger.Get().Warn("admin route rejected",
				zap.String("username", user.Username), zap.String("path", c.Path()))
			return domain.NewForbiddenError("Administrator role required")
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user from the request locals, or
// nil on unauthenticated requests.
func CurrentUser(c *fiber.Ctx) *domain.User {
	if user, ok := c.Locals(UserKey).(*domain.User); ok {
		return user
	}
	return nil
}

// CurrentAccessToken returns the raw bearer token of the request.
func CurrentAccessToken(c *fiber.Ctx) string {
	if token, ok := c.Locals(AccessTokenKey).(string); ok {
		return token
	}
	return ""
}
