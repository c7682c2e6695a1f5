package dto

import (
	"time"

	"quizapp/internal/domain"
)

// OptionResponse is the outward view of an answer option. IsCorrect is only
// populated on detail views for quiz authors and admins.
type OptionResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

// QuestionResponse is the outward view of a question.
type QuestionResponse struct {
	ID           string           `json:"id"`
	Text         string           `json:"text"`
	QuestionType string           `json:"questionType"`
	Difficulty   string           `json:"difficulty,omitempty"`
	Explanation  string           `json:"explanation,omitempty"`
	Options      []OptionResponse `json:"options"`
}

// QuizResponse is the outward view of a quiz, with or without questions
// depending on the endpoint.
type QuizResponse struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description,omitempty"`
	TimeLimitMinutes int                `json:"timeLimitMinutes"`
	IsPublished      bool               `json:"isPublished"`
	Difficulty       string             `json:"difficulty"`
	CreatedBy        string             `json:"createdBy,omitempty"`
	Questions        []QuestionResponse `json:"questions,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// CreateQuizRequest is the payload for quiz creation and update.
type CreateQuizRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	TimeLimitMinutes int    `json:"timeLimitMinutes"`
	IsPublished      bool   `json:"isPublished"`
	Difficulty       string `json:"difficulty"`
}

// OptionRequest is one option inside a question payload.
type OptionRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// QuestionRequest is the payload for adding or updating a question.
type QuestionRequest struct {
	Text         string          `json:"text"`
	QuestionType string          `json:"questionType"`
	Difficulty   string          `json:"difficulty"`
	Explanation  string          `json:"explanation"`
	Options      []OptionRequest `json:"options"`
}

// OptionResponseFromDomain maps an option, hiding correctness unless asked.
func OptionResponseFromDomain(o domain.Option, revealAnswers bool) OptionResponse {
	resp := OptionResponse{
		ID:   o.ID,
		Text: o.Text,
	}
	if revealAnswers {
		correct := o.IsCorrect
		resp.IsCorrect = &correct
	}
	return resp
}

// QuestionResponseFromDomain maps a question and its options.
func QuestionResponseFromDomain(q domain.Question, revealAnswers bool) QuestionResponse {
	options := make([]OptionResponse, 0, len(q.Options))
	for _, o := range q.Options {
		options = append(options, OptionResponseFromDomain(o, revealAnswers))
	}
	resp := QuestionResponse{
		ID:           q.ID,
		Text:         q.Text,
		QuestionType: string(q.QuestionType),
		Difficulty:   string(q.Difficulty),
		Options:      options,
	}
	if revealAnswers {
		resp.Explanation = q.Explanation
	}
	return resp
}

// QuizResponseFromDomain maps a quiz aggregate. When includeQuestions is
// false the questions are omitted entirely.
func QuizResponseFromDomain(qz *domain.Quiz, includeQuestions, revealAnswers bool) QuizResponse {
	resp := QuizResponse{
		ID:               qz.ID,
		Title:            qz.Title,
		Description:      qz.Description,
		TimeLimitMinutes: qz.TimeLimitMinutes,
		IsPublished:      qz.IsPublished,
		Difficulty:       string(qz.Difficulty),
		CreatedBy:        qz.CreatedBy,
		CreatedAt:        qz.CreatedAt,
	}
	if includeQuestions {
		questions := make([]QuestionResponse, 0, len(qz.Questions))
		for _, q := range qz.Questions {
			questions = append(questions, QuestionResponseFromDomain(q, revealAnswers))
		}
		resp.Questions = questions
	}
	return resp
}
