package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
)

func TestValidateRegisterRequest(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		err := ValidateRegisterRequest(dto.RegisterRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "s3cret",
		})
		assert.NoError(t, err)
	})

	t.Run("CollectsAllFailures", func(t *testing.T) {
		err := ValidateRegisterRequest(dto.RegisterRequest{
			Username: "al",
			Email:    "not-an-email",
			Password: "",
		})

		var errs domain.ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Len(t, errs, 3)
	})

	t.Run("OverlongUsername", func(t *testing.T) {
		err := ValidateRegisterRequest(dto.RegisterRequest{
			Username: strings.Repeat("a", 51),
			Email:    "alice@example.com",
			Password: "s3cret",
		})
		assert.Error(t, err)
	})
}

func TestValidateSubmission(t *testing.T) {
	t.Run("NoAnswersIsRejected", func(t *testing.T) {
		err := ValidateSubmission(dto.Submission{})
		assert.Error(t, err)
	})

	t.Run("EmptySelectionIsADeliberateBlank", func(t *testing.T) {
		err := ValidateSubmission(dto.Submission{Answers: []dto.AnswerSubmission{
			{QuestionID: "q-1", SelectedOptionIDs: nil},
		}})
		assert.NoError(t, err)
	})

	t.Run("DuplicateQuestion", func(t *testing.T) {
		err := ValidateSubmission(dto.Submission{Answers: []dto.AnswerSubmission{
			{QuestionID: "q-1"},
			{QuestionID: "q-1"},
		}})
		assert.Error(t, err)
	})

	t.Run("MissingQuestionID", func(t *testing.T) {
		err := ValidateSubmission(dto.Submission{Answers: []dto.AnswerSubmission{
			{QuestionID: "  "},
		}})
		assert.Error(t, err)
	})
}

func TestValidateQuizRequest(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		err := ValidateQuizRequest(dto.CreateQuizRequest{Title: "Go Basics", Difficulty: "EASY"})
		assert.NoError(t, err)
	})

	t.Run("UnknownDifficulty", func(t *testing.T) {
		err := ValidateQuizRequest(dto.CreateQuizRequest{Title: "Go Basics", Difficulty: "IMPOSSIBLE"})
		assert.Error(t, err)
	})

	t.Run("NegativeTimeLimit", func(t *testing.T) {
		err := ValidateQuizRequest(dto.CreateQuizRequest{Title: "Go Basics", TimeLimitMinutes: -1})
		assert.Error(t, err)
	})
}

func TestValidateQuestionRequest(t *testing.T) {
	t.Run("UnknownType", func(t *testing.T) {
		err := ValidateQuestionRequest(dto.QuestionRequest{Text: "Pick", QuestionType: "ESSAY"})
		assert.Error(t, err)
	})

	t.Run("BlankOptionText", func(t *testing.T) {
		err := ValidateQuestionRequest(dto.QuestionRequest{
			Text:         "Pick",
			QuestionType: string(domain.QuestionSingleChoice),
			Options:      []dto.OptionRequest{{Text: " "}},
		})
		assert.Error(t, err)
	})
}
