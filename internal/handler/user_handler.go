package handler

import (
	"github.com/gofiber/fiber/v2"

	"quizapp/internal/domain"
	"quizapp/internal/middleware"
	"quizapp/internal/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Profile returns the authenticated account.
// @Summary Get my profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Router /api/users/me [get]
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	resp, err := h.userService.GetProfile(c.Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Stats returns the caller's attempt statistics.
// @Summary Get my attempt statistics
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserStats
// @Router /api/users/me/stats [get]
func (h *UserHandler) Stats(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	stats, err := h.userService.GetStats(c.Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// DeleteMe removes the caller's account and attempt history.
// @Summary Delete my account
// @Tags users
// @Security BearerAuth
// @Success 204
// @Router /api/users/me [delete]
func (h *UserHandler) DeleteMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := h.userService.DeleteAccount(c.Context(), user.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListUsers returns every account.
// @Summary List all users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.UserResponse
// @Router /api/admin/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// ListAdmins returns every administrator account.
// @Summary List administrators
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.UserResponse
// @Router /api/admin/users/admins [get]
func (h *UserHandler) ListAdmins(c *fiber.Ctx) error {
	users, err := h.userService.ListAdmins(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// UserDetails returns every account with its attempt statistics.
// @Summary List users with attempt statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.UserDetails
// @Router /api/admin/users/details [get]
func (h *UserHandler) UserDetails(c *fiber.Ctx) error {
	details, err := h.userService.ListUserDetails(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(details)
}

// GetUser returns one account by username.
// @Summary Get a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/admin/users/{username} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.userService.GetUser(c.Context(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// UpdateUserStatus enables or disables an account. A disabled account's
// tokens stop working on the next middleware check.
// @Summary Enable or disable a user
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Param request body object{enabled=bool} true "New status"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/admin/users/{username}/status [patch]
func (h *UserHandler) UpdateUserStatus(c *fiber.Ctx) error {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil || body.Enabled == nil {
		return domain.NewBadRequestError("Request body requires an enabled flag")
	}

	user, err := h.userService.SetUserStatus(c.Context(), c.Params("username"), *body.Enabled)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// DeleteUser removes an account and its attempt history.
// @Summary Delete a user
// @Tags admin
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/admin/users/{username} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.userService.DeleteByUsername(c.Context(), c.Params("username")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
