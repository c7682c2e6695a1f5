package domain

import (
	"time"
)

// AttemptStatus is the lifecycle state of a quiz attempt. COMPLETED and
// ABANDONED are terminal.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptCompleted  AttemptStatus = "COMPLETED"
	AttemptAbandoned  AttemptStatus = "ABANDONED"
)

// QuizAttempt is one run of a quiz by one user.
type QuizAttempt struct {
	ID               string
	UserID           string
	QuizID           string
	StartedAt        time.Time
	CompletedAt      *time.Time
	Score            int
	TimeTakenSeconds int
	Status           AttemptStatus
	Answers          []UserAnswer
}

// IsActive reports whether the attempt is still in progress.
func (a *QuizAttempt) IsActive() bool {
	return a.Status == AttemptInProgress
}

// UserAnswer records the selected options for one question of an attempt.
// The referenced question always belongs to the attempt's quiz.
type UserAnswer struct {
	ID                string
	AttemptID         string
	QuestionID        string
	SelectedOptionIDs []string
	IsCorrect         bool
	AnsweredAt        time.Time
}

// ScoreAnswer applies set-equality scoring: the selection is correct iff
// the set of selected option ids equals the set of correct option ids.
// Unknown selected ids are kept as set members and thus break equality.
func ScoreAnswer(correctOptionIDs, selectedOptionIDs []string) bool {
	correct := make(map[string]struct{}, len(correctOptionIDs))
	for _, id := range correctOptionIDs {
		correct[id] = struct{}{}
	}
	selected := make(map[string]struct{}, len(selectedOptionIDs))
	for _, id := range selectedOptionIDs {
		selected[id] = struct{}{}
	}
	if len(correct) != len(selected) {
		return false
	}
	for id := range selected {
		if _, ok := correct[id]; !ok {
			return false
		}
	}
	return true
}
