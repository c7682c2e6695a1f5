package handler

import (
	"github.com/gofiber/fiber/v2"

	"quizapp/internal/service"
)

type LeaderboardHandler struct {
	leaderboardService service.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// Global returns the best completed score per user across all quizzes.
// @Summary Global leaderboard
// @Tags leaderboard
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of rows" default(10)
// @Success 200 {array} dto.LeaderboardEntry
// @Router /api/leaderboard [get]
func (h *LeaderboardHandler) Global(c *fiber.Ctx) error {
	entries, err := h.leaderboardService.Global(c.Context(), c.QueryInt("limit", 10))
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

// ByQuiz returns the best completed score per user on one quiz.
// @Summary Per-quiz leaderboard
// @Tags leaderboard
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz id"
// @Param limit query int false "Number of rows" default(10)
// @Success 200 {array} dto.LeaderboardEntry
// @Router /api/leaderboard/quiz/{quizId} [get]
func (h *LeaderboardHandler) ByQuiz(c *fiber.Ctx) error {
	entries, err := h.leaderboardService.ByQuiz(c.Context(), c.Params("quizId"), c.QueryInt("limit", 10))
	if err != nil {
		return err
	}
	return c.JSON(entries)
}
