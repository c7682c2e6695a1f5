package dto

import (
	"time"

	"quizapp/internal/domain"
)

// StartAttemptRequest starts (or resumes) an attempt on a quiz.
type StartAttemptRequest struct {
	QuizID string `json:"quizId"`
}

// AnswerSubmission is the selection for one question.
type AnswerSubmission struct {
	QuestionID        string   `json:"questionId"`
	SelectedOptionIDs []string `json:"selectedOptionIds"`
}

// Submission is the full answer sheet handed in at the end of an attempt.
type Submission struct {
	Answers []AnswerSubmission `json:"answers"`
}

// DeleteAttemptsRequest names the attempts to delete in bulk.
type DeleteAttemptsRequest struct {
	AttemptIDs []string `json:"attemptIds"`
}

// QuizAttemptResponse is the outward view of an attempt.
type QuizAttemptResponse struct {
	ID               string     `json:"id"`
	QuizID           string     `json:"quizId"`
	UserID           string     `json:"userId"`
	StartedAt        time.Time  `json:"startedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	Score            int        `json:"score"`
	TimeTakenSeconds int        `json:"timeTakenSeconds"`
	Status           string     `json:"status"`
}

// AttemptEnvelope pairs a live attempt with the quiz being taken. The quiz
// view never reveals correct options.
type AttemptEnvelope struct {
	Attempt QuizAttemptResponse `json:"attempt"`
	Quiz    QuizResponse        `json:"quiz"`
}

// QuestionResult is the per-question outcome inside a quiz result.
type QuestionResult struct {
	QuestionID        string   `json:"questionId"`
	QuestionText      string   `json:"questionText"`
	SelectedOptionIDs []string `json:"selectedOptionIds"`
	CorrectOptionIDs  []string `json:"correctOptionIds"`
	IsCorrect         bool     `json:"isCorrect"`
	Explanation       string   `json:"explanation,omitempty"`
}

// QuizResult is the graded outcome of a submitted attempt.
type QuizResult struct {
	AttemptID        string           `json:"attemptId"`
	QuizID           string           `json:"quizId"`
	QuizTitle        string           `json:"quizTitle"`
	Score            int              `json:"score"`
	MaxPossibleScore int              `json:"maxPossibleScore"`
	Percentage       float64          `json:"percentage"`
	TimeTakenSeconds int              `json:"timeTakenSeconds"`
	CompletedAt      time.Time        `json:"completedAt"`
	QuestionResults  []QuestionResult `json:"questionResults"`
}

// DetailedAttempt is an attempt together with its recorded answers.
type DetailedAttempt struct {
	QuizAttemptResponse
	QuizTitle string             `json:"quizTitle,omitempty"`
	Answers   []AnswerSubmission `json:"answers"`
}

// UserStats summarizes a user's attempt history.
type UserStats struct {
	TotalAttempts int     `json:"totalAttempts"`
	AverageScore  float64 `json:"averageScore"`
}

// QuizAttemptResponseFromDomain maps an attempt to its outward view.
func QuizAttemptResponseFromDomain(a *domain.QuizAttempt) QuizAttemptResponse {
	return QuizAttemptResponse{
		ID:               a.ID,
		QuizID:           a.QuizID,
		UserID:           a.UserID,
		StartedAt:        a.StartedAt,
		CompletedAt:      a.CompletedAt,
		Score:            a.Score,
		TimeTakenSeconds: a.TimeTakenSeconds,
		Status:           string(a.Status),
	}
}

// DetailedAttemptFromDomain maps an attempt and its answers.
func DetailedAttemptFromDomain(a *domain.QuizAttempt, quizTitle string) DetailedAttempt {
	answers := make([]AnswerSubmission, 0, len(a.Answers))
	for _, ua := range a.Answers {
		answers = append(answers, AnswerSubmission{
			QuestionID:        ua.QuestionID,
			SelectedOptionIDs: ua.SelectedOptionIDs,
		})
	}
	return DetailedAttempt{
		QuizAttemptResponse: QuizAttemptResponseFromDomain(a),
		QuizTitle:           quizTitle,
		Answers:             answers,
	}
}
