package handler

import (
	"github.com/gofiber/fiber/v2"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
	"quizapp/internal/middleware"
	"quizapp/internal/service"
	"quizapp/internal/validation"
)

type QuizHandler struct {
	quizService service.QuizService
}

func NewQuizHandler(quizService service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// ListQuizzes returns published quizzes; administrators see everything.
// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.QuizResponse
// @Router /api/quizzes [get]
func (h *QuizHandler) ListQuizzes(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user != nil && user.IsAdmin() {
		quizzes, err := h.quizService.ListAll(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(quizzes)
	}
	quizzes, err := h.quizService.ListPublished(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(quizzes)
}

// GetQuiz returns the full quiz. Correct options are only revealed to
// administrators.
// @Summary Get a quiz with its questions
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz id"
// @Success 200 {object} dto.QuizResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/quizzes/{quizId} [get]
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	quiz, err := h.quizService.GetQuiz(c.Context(), c.Params("quizId"), middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(quiz)
}

// CreateQuiz creates a quiz header.
// @Summary Create a quiz
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateQuizRequest true "Quiz payload"
// @Success 200 {object} dto.QuizResponse
// @Router /api/quizzes/create [post]
func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	var req dto.CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewBadRequestError("Invalid request body")
	}
	if err := validation.ValidateQuizRequest(req); err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	quiz, err := h.quizService.CreateQuiz(c.Context(), req, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(quiz)
}

// UpdateQuiz rewrites the quiz header.
// @Summary Update a quiz
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz id"
// @Param request body dto.CreateQuizRequest true "Quiz payload"
// @Success 200 {object} dto.QuizResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/quizzes/{quizId} [put]
func (h *QuizHandler) UpdateQuiz(c *fiber.Ctx) error {
	var req dto.CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewBadRequestError("Invalid request body")
	}
	if err := validation.ValidateQuizRequest(req); err != nil {
		return err
	}

	quiz, err := h.quizService.UpdateQuiz(c.Context(), c.Params("quizId"), req)
	if err != nil {
		return err
	}
	return c.JSON(quiz)
}

// DeleteQuiz removes a quiz and everything hanging off it.
// @Summary Delete a quiz
// @Tags admin
// @Security BearerAuth
// @Param quizId path string true "Quiz id"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/quizzes/{quizId} [delete]
func (h *QuizHandler) DeleteQuiz(c *fiber.Ctx) error {
	if err := h.quizService.DeleteQuiz(c.Context(), c.Params("quizId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListQuestions returns the questions of a quiz. Correct options are only
// revealed to administrators.
// @Summary List the questions of a quiz
// @Tags quizzes
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz id"
// @Success 200 {array} dto.QuestionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /api/quizzes/{quizId}/questions [get]
func (h *QuizHandler) ListQuestions(c *fiber.Ctx) error {
	questions, err := h.quizService.GetQuestions(c.Context(), c.Params("quizId"), middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(questions)
}

// AddQuestion appends a question to a quiz.
// @Summary Add a question
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz id"
// @Param request body dto.QuestionRequest true "Question payload"
// @Success 200 {object} dto.QuestionResponse
// @Router /api/quizzes/{quizId}/questions/add [post]
func (h *QuizHandler) AddQuestion(c *fiber.Ctx) error {
	var req dto.QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewBadRequestError("Invalid request body")
	}
	if err := validation.ValidateQuestionRequest(req); err != nil {
		return err
	}

	question, err := h.quizService.AddQuestion(c.Context(), c.Params("quizId"), req)
	if err != nil {
		return err
	}
	return c.JSON(question)
}

// UpdateQuestion rewrites a question and replaces its options.
// @Summary Update a question
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quizId path string true "Quiz id"
// @Param questionId path string true "Question id"
// @Param request body dto.QuestionRequest true "Question payload"
// @Success 200 {object} dto.QuestionResponse
// @Router /api/quizzes/{quizId}/questions/{questionId} [put]
func (h *QuizHandler) UpdateQuestion(c *fiber.Ctx) error {
	var req dto.QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewBadRequestError("Invalid request body")
	}
	if err := validation.ValidateQuestionRequest(req); err != nil {
		return err
	}

	question, err := h.quizService.UpdateQuestion(c.Context(), c.Params("questionId"), req)
	if err != nil {
		return err
	}
	return c.JSON(question)
}

// DeleteQuestion removes a question.
// @Summary Delete a question
// @Tags admin
// @Security BearerAuth
// @Param quizId path string true "Quiz id"
// @Param questionId path string true "Question id"
// @Success 204
// @Router /api/quizzes/{quizId}/questions/{questionId} [delete]
func (h *QuizHandler) DeleteQuestion(c *fiber.Ctx) error {
	if err := h.quizService.DeleteQuestion(c.Context(), c.Params("questionId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
