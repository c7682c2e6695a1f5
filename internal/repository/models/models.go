package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StringSlice stores a string array as a JSON document in a text column.
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	var bytesToParse []byte
	switch v := value.(type) {
	case []byte:
		bytesToParse = v
	case string:
		bytesToParse = []byte(v)
	default:
		return errors.New("StringSlice Scan: unsupported type " + fmt.Sprintf("%T", value))
	}

	if len(bytesToParse) == 0 || string(bytesToParse) == "null" {
		*s = StringSlice{}
		return nil
	}

	return json.Unmarshal(bytesToParse, s)
}

// User represents a user row.
type User struct {
	ID           string         `db:"ID"` // ULID
	Username     string         `db:"USERNAME"`
	Email        string         `db:"EMAIL"`
	PasswordHash string         `db:"PASSWORD_HASH"`
	FirstName    sql.NullString `db:"FIRST_NAME"`
	LastName     sql.NullString `db:"LAST_NAME"`
	Role         string         `db:"USER_ROLE"`
	Enabled      bool           `db:"ENABLED"`
	CreatedAt    time.Time      `db:"CREATED_AT"`
	UpdatedAt    time.Time      `db:"UPDATED_AT"`
}

// Quiz represents a quiz row without its questions.
type Quiz struct {
	ID               string         `db:"ID"` // ULID
	Title            string         `db:"TITLE"`
	Description      sql.NullString `db:"DESCRIPTION"`
	TimeLimitMinutes int            `db:"TIME_LIMIT_MINUTES"`
	IsPublished      bool           `db:"IS_PUBLISHED"`
	Difficulty       string         `db:"DIFFICULTY"`
	CreatedBy        sql.NullString `db:"CREATED_BY"`
	CreatedAt        time.Time      `db:"CREATED_AT"`
	UpdatedAt        time.Time      `db:"UPDATED_AT"`
}

// Question represents a question row.
type Question struct {
	ID           string         `db:"ID"` // ULID
	QuizID       string         `db:"QUIZ_ID"`
	Text         string         `db:"QUESTION_TEXT"`
	QuestionType string         `db:"QUESTION_TYPE"`
	Difficulty   string         `db:"DIFFICULTY"`
	Explanation  sql.NullString `db:"EXPLANATION"`
	CreatedAt    time.Time      `db:"CREATED_AT"`
	UpdatedAt    time.Time      `db:"UPDATED_AT"`
}

// Option represents an answer option row.
type Option struct {
	ID         string `db:"ID"` // ULID
	QuestionID string `db:"QUESTION_ID"`
	Text       string `db:"OPTION_TEXT"`
	IsCorrect  bool   `db:"IS_CORRECT"`
}

// QuizAttempt represents a quiz attempt row.
type QuizAttempt struct {
	ID               string       `db:"ID"` // ULID
	UserID           string       `db:"USER_ID"`
	QuizID           string       `db:"QUIZ_ID"`
	StartedAt        time.Time    `db:"STARTED_AT"`
	CompletedAt      sql.NullTime `db:"COMPLETED_AT"`
	Score            int          `db:"SCORE"`
	TimeTakenSeconds int          `db:"TIME_TAKEN_SECONDS"`
	Status           string       `db:"STATUS"`
}

// UserAnswer represents one answered question of an attempt. The selected
// option ids are stored as a JSON array.
type UserAnswer struct {
	ID                string      `db:"ID"` // ULID
	AttemptID         string      `db:"ATTEMPT_ID"`
	QuestionID        string      `db:"QUESTION_ID"`
	SelectedOptionIDs StringSlice `db:"SELECTED_OPTION_IDS"`
	IsCorrect         bool        `db:"IS_CORRECT"`
	AnsweredAt        time.Time   `db:"ANSWERED_AT"`
}

// LeaderboardRow is the projection of the best-score aggregation query.
type LeaderboardRow struct {
	UserID   string `db:"USER_ID"`
	Username string `db:"USERNAME"`
	Score    int    `db:"SCORE"`
}
