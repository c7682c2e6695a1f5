package domain

import (
	"context"
	"errors"
)

// ErrDuplicateActiveAttempt is returned by CreateAttempt when the unique
// index on in-progress attempts rejects the insert. Backstop for concurrent
// first starts, where the row locks have nothing to lock yet.
var ErrDuplicateActiveAttempt = errors.New("an in-progress attempt already exists for this user and quiz")

// TransactionManager runs a function inside a relational transaction. The
// transaction travels in the context so repositories join it transparently.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository is the persistence port for users. Lookups return
// (nil, nil) when no row matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListUsersByRole(ctx context.Context, role Role) ([]User, error)
	UpdateUserStatus(ctx context.Context, username string, enabled bool) error
	DeleteUser(ctx context.Context, id string) error
}

// QuizRepository is the persistence port for the quiz catalogue. GetQuizByID
// loads the full aggregate (questions and options); ListQuizzes returns
// headers only.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz *Quiz) error
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)
	ListQuizzes(ctx context.Context) ([]Quiz, error)
	UpdateQuiz(ctx context.Context, quiz *Quiz) error
	DeleteQuiz(ctx context.Context, id string) error

	AddQuestion(ctx context.Context, question *Question) error
	GetQuestionByID(ctx context.Context, id string) (*Question, error)
	GetQuestionsByQuizID(ctx context.Context, quizID string) ([]Question, error)
	UpdateQuestion(ctx context.Context, question *Question) error
	DeleteQuestion(ctx context.Context, id string) error
}

// LeaderboardRow is one aggregated best-score row.
type LeaderboardRow struct {
	UserID   string
	Username string
	Score    int
}

// AttemptRepository is the persistence port for quiz attempts and their
// answers. Mutating operations are expected to run inside a transaction
// established by TransactionManager.
type AttemptRepository interface {
	// LockUserQuizAttempts takes row locks on every attempt of the
	// (user, quiz) pair, serializing concurrent start/abandon/submit.
	LockUserQuizAttempts(ctx context.Context, userID, quizID string) error

	GetActiveAttempt(ctx context.Context, userID, quizID string) (*QuizAttempt, error)

	// CreateAttempt inserts the attempt. Returns ErrDuplicateActiveAttempt
	// when another in-progress attempt on the same quiz already exists.
	CreateAttempt(ctx context.Context, attempt *QuizAttempt) error
	GetAttemptByID(ctx context.Context, id string) (*QuizAttempt, error)

	// FinishAttempt persists the terminal transition: status, completedAt,
	// score and timeTakenSeconds.
	FinishAttempt(ctx context.Context, attempt *QuizAttempt) error

	SaveUserAnswers(ctx context.Context, answers []UserAnswer) error
	GetUserAnswers(ctx context.Context, attemptID string) ([]UserAnswer, error)

	ListAttemptsByUser(ctx context.Context, userID string) ([]QuizAttempt, error)
	ListAttemptsByUserAndQuiz(ctx context.Context, userID, quizID string) ([]QuizAttempt, error)
	GetAttemptsByIDs(ctx context.Context, ids []string) ([]QuizAttempt, error)

	DeleteAttempt(ctx context.Context, id string) error
	DeleteAttemptsByUser(ctx context.Context, userID string) error

	CountAttemptsByUser(ctx context.Context, userID string) (int, error)
	AverageScoreByUser(ctx context.Context, userID string) (float64, error)

	TopScores(ctx context.Context, limit int) ([]LeaderboardRow, error)
	TopScoresByQuiz(ctx context.Context, quizID string, limit int) ([]LeaderboardRow, error)
}
