package handler

import (
	"github.com/gofiber/fiber/v2"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
	"quizapp/internal/middleware"
	"quizapp/internal/service"
	"quizapp/internal/validation"
)

type AttemptHandler struct {
	attemptService service.AttemptService
}

func NewAttemptHandler(attemptService service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

func parseQuizIDBody(c *fiber.Ctx) (string, error) {
	var req dto.StartAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return "", domain.NewBadRequestError("Invalid request body")
	}
	if err := validation.ValidateStartAttemptRequest(req); err != nil {
		return "", err
	}
	return req.QuizID, nil
}

// Start opens a new attempt on a quiz.
// @Summary Start a quiz attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StartAttemptRequest true "Quiz id"
// @Success 200 {object} dto.AttemptEnvelope
// @Failure 400 {object} middleware.ErrorResponse "An attempt is already in progress"
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/attempts/start [post]
func (h *AttemptHandler) Start(c *fiber.Ctx) error {
	quizID, err := parseQuizIDBody(c)
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	envelope, err := h.attemptService.Start(c.Context(), user.ID, quizID)
	if err != nil {
		return err
	}
	return c.JSON(envelope)
}

// Resume returns the in-progress attempt on a quiz.
// @Summary Resume an attempt
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz id"
// @Success 200 {object} dto.AttemptEnvelope
// @Failure 404 {object} middleware.ErrorResponse "No active attempt"
// @Router /api/attempts/resume/{quizId} [get]
func (h *AttemptHandler) Resume(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	envelope, err := h.attemptService.Resume(c.Context(), user.ID, c.Params("quizId"))
	if err != nil {
		return err
	}
	return c.JSON(envelope)
}

// StartOrResume returns the in-progress attempt or starts a new one.
// @Summary Start or resume an attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StartAttemptRequest true "Quiz id"
// @Success 200 {object} dto.AttemptEnvelope
// @Router /api/attempts/start-or-resume [post]
func (h *AttemptHandler) StartOrResume(c *fiber.Ctx) error {
	quizID, err := parseQuizIDBody(c)
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	envelope, err := h.attemptService.StartOrResume(c.Context(), user.ID, quizID)
	if err != nil {
		return err
	}
	return c.JSON(envelope)
}

// End abandons the in-progress attempt without grading it.
// @Summary End the active attempt on a quiz
// @Tags attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StartAttemptRequest true "Quiz id"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} middleware.ErrorResponse "No active attempt"
// @Router /api/attempts/end [post]
func (h *AttemptHandler) End(c *fiber.Ctx) error {
	quizID, err := parseQuizIDBody(c)
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	if _, err := h.attemptService.Abandon(c.Context(), user.ID, quizID); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "The active attempt for the quiz has been ended"})
}

// EndAndStart abandons the active attempt, if any, and starts a fresh one.
// @Summary End the active attempt and start a new one
// @Tags attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StartAttemptRequest true "Quiz id"
// @Success 200 {object} dto.QuizAttemptResponse
// @Router /api/attempts/end-and-start [post]
func (h *AttemptHandler) EndAndStart(c *fiber.Ctx) error {
	quizID, err := parseQuizIDBody(c)
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	attempt, err := h.attemptService.EndAndStart(c.Context(), user.ID, quizID)
	if err != nil {
		return err
	}
	return c.JSON(attempt)
}

// Submit grades the answer sheet and completes the attempt.
// @Summary Submit an attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "Attempt id"
// @Param request body dto.Submission true "Answer sheet"
// @Success 200 {object} dto.QuizResult
// @Failure 400 {object} middleware.ErrorResponse "Attempt not in progress or malformed answers"
// @Failure 403 {object} middleware.ErrorResponse "Attempt belongs to another user"
// @Router /api/attempts/{attemptId}/submit [post]
func (h *AttemptHandler) Submit(c *fiber.Ctx) error {
	var sub dto.Submission
	if err := c.BodyParser(&sub); err != nil {
		return domain.NewBadRequestError("Invalid request body")
	}
	if err := validation.ValidateSubmission(sub); err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	result, err := h.attemptService.Submit(c.Context(), user.ID, c.Params("attemptId"), sub)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// ListMine returns the caller's attempt history, newest first.
// @Summary List my attempts
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.QuizAttemptResponse
// @Router /api/attempts/user [get]
func (h *AttemptHandler) ListMine(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	attempts, err := h.attemptService.ListMine(c.Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(attempts)
}

// ListMineByQuiz returns the caller's attempt history on one quiz.
// @Summary List my attempts on a quiz
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz id"
// @Success 200 {array} dto.QuizAttemptResponse
// @Router /api/attempts/user/quiz/{quizId} [get]
func (h *AttemptHandler) ListMineByQuiz(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	attempts, err := h.attemptService.ListMineByQuiz(c.Context(), user.ID, c.Params("quizId"))
	if err != nil {
		return err
	}
	return c.JSON(attempts)
}

// GetMine returns one attempt with its recorded answers.
// @Summary Get one of my attempts
// @Tags attempts
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "Attempt id"
// @Success 200 {object} dto.DetailedAttempt
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/attempts/user/{attemptId} [get]
func (h *AttemptHandler) GetMine(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	attempt, err := h.attemptService.GetMine(c.Context(), user, c.Params("attemptId"))
	if err != nil {
		return err
	}
	return c.JSON(attempt)
}

// DeleteMany removes the named attempts. Registered before the
// single-delete route so "bulk" is not taken for an attempt id.
// @Summary Delete several of my attempts
// @Tags attempts
// @Accept json
// @Security BearerAuth
// @Param request body dto.DeleteAttemptsRequest true "Attempt ids"
// @Success 204
// @Router /api/attempts/user/bulk [delete]
func (h *AttemptHandler) DeleteMany(c *fiber.Ctx) error {
	var req dto.DeleteAttemptsRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewBadRequestError("Invalid request body")
	}

	user := middleware.CurrentUser(c)
	if err := h.attemptService.DeleteManyMine(c.Context(), user, req.AttemptIDs); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteAll removes the caller's whole attempt history.
// @Summary Delete all my attempts
// @Tags attempts
// @Security BearerAuth
// @Success 204
// @Router /api/attempts/user [delete]
func (h *AttemptHandler) DeleteAll(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := h.attemptService.DeleteAllMine(c.Context(), user.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteOne removes a single attempt.
// @Summary Delete one of my attempts
// @Tags attempts
// @Security BearerAuth
// @Param attemptId path string true "Attempt id"
// @Success 204
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/attempts/user/{attemptId} [delete]
func (h *AttemptHandler) DeleteOne(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := h.attemptService.DeleteMine(c.Context(), user, c.Params("attemptId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
