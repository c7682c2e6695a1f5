package domain

import (
	"time"
)

// QuestionType describes how a question is answered.
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
)

// Difficulty grades a quiz or question.
type Difficulty string

const (
	DifficultyEasy       Difficulty = "EASY"
	DifficultyMedium     Difficulty = "MEDIUM"
	DifficultyHard       Difficulty = "HARD"
	DifficultyUnassigned Difficulty = "UNASSIGNED"
)

// Option is one selectable answer of a question.
type Option struct {
	ID         string
	QuestionID string
	Text       string
	IsCorrect  bool
}

// Question belongs to exactly one quiz and owns its options.
type Question struct {
	ID           string
	QuizID       string
	Text         string
	QuestionType QuestionType
	Difficulty   Difficulty
	Explanation  string
	Options      []Option
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CorrectOptionIDs returns the ids of all correct options.
func (q *Question) CorrectOptionIDs() []string {
	var ids []string
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// Quiz is the aggregate root for questions and options.
type Quiz struct {
	ID               string
	Title            string
	Description      string
	TimeLimitMinutes int
	IsPublished      bool
	Difficulty       Difficulty
	CreatedBy        string
	Questions        []Question
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// QuestionByID returns the question with the given id, or nil.
func (qz *Quiz) QuestionByID(id string) *Question {
	for i := range qz.Questions {
		if qz.Questions[i].ID == id {
			return &qz.Questions[i]
		}
	}
	return nil
}

// QuestionIDSet returns the ids of all questions on the quiz as a set.
func (qz *Quiz) QuestionIDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(qz.Questions))
	for _, q := range qz.Questions {
		set[q.ID] = struct{}{}
	}
	return set
}

// ValidateStructure checks the option invariants on every question: at
// least two options, MULTIPLE_CHOICE with one or more correct options,
// SINGLE_CHOICE and TRUE_FALSE with exactly one.
func (qz *Quiz) ValidateStructure() error {
	for _, q := range qz.Questions {
		if err := q.ValidateStructure(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStructure checks the option invariants for a single question.
func (q *Question) ValidateStructure() error {
	if len(q.Options) < 2 {
		return NewBadRequestError("Every question requires at least two options")
	}
	correct := len(q.CorrectOptionIDs())
	switch q.QuestionType {
	case QuestionMultipleChoice:
		if correct < 1 {
			return NewBadRequestError("A multiple-choice question requires at least one correct option")
		}
	case QuestionSingleChoice, QuestionTrueFalse:
		if correct != 1 {
			return NewBadRequestError("The question requires exactly one correct option")
		}
	default:
		return NewBadRequestError("Unknown question type: " + string(q.QuestionType))
	}
	return nil
}
