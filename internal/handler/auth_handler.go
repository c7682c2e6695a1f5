package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"quizapp/internal/config"
	"quizapp/internal/domain"
	"quizapp/internal/dto"
	"quizapp/internal/middleware"
	"quizapp/internal/service"
	"quizapp/internal/validation"
)

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	authService service.AuthService
	appConfig   *config.Config
}

func NewAuthHandler(authService service.AuthService, appConfig *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		appConfig:   appConfig,
	}
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Expires:  time.Now().Add(h.appConfig.JWT.RefreshTTL),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
		Path:     "/",
	})
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
		Path:     "/",
	})
}

// Register creates a new account.
// @Summary Register a new user
// @Description Creates an account with the USER role.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration payload"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} middleware.ErrorResponse "Validation failure or duplicate username/email"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewBadRequestError("Invalid request body")
	}
	if err := validation.ValidateRegisterRequest(req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login verifies credentials and issues a token pair. The refresh token is
// additionally set as an HTTP-only cookie.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} middleware.ErrorResponse "Invalid credentials"
// @Failure 403 {object} middleware.ErrorResponse "Account disabled"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewBadRequestError("Invalid request body")
	}
	if err := validation.ValidateLoginRequest(req); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.Context(), req)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, resp.RefreshToken)
	return c.JSON(resp)
}

// Refresh rotates the refresh token. The token is read from the cookie,
// falling back to the request body for clients that do not use cookies.
// @Summary Refresh the token pair
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} middleware.ErrorResponse "Revoked or mismatched token"
// @Failure 401 {object} middleware.ErrorResponse "Invalid or expired token"
// @Failure 429 {object} middleware.ErrorResponse "Too many refresh requests"
// @Router /api/auth/token/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(refreshCookieName)
	if refreshToken == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.BodyParser(&body); err == nil {
			refreshToken = body.RefreshToken
		}
	}
	if refreshToken == "" {
		return domain.NewNotAuthenticatedError("Refresh token is missing")
	}

	resp, err := h.authService.Refresh(c.Context(), refreshToken)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, resp.RefreshToken)
	return c.JSON(resp)
}

// Logout blacklists the access token, revokes the refresh tokens of the
// subject and clears the cookie.
// @Summary Log out
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} middleware.ErrorResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	accessToken := middleware.CurrentAccessToken(c)
	if accessToken == "" {
		accessToken = middleware.ExtractBearerToken(c.Get(middleware.AuthorizationHeader))
	}
	if accessToken == "" {
		return domain.NewNotAuthenticatedError("Missing or malformed Authorization header")
	}
	refreshToken := c.Cookies(refreshCookieName)

	if err := h.authService.Logout(c.Context(), accessToken, refreshToken); err != nil {
		return err
	}

	h.clearRefreshCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}
