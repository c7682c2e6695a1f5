package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizapp/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestAttemptRepository_GetActiveAttempt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSQLXAttemptRepository(db)
	ctx := context.Background()

	startedAt := time.Now().Add(-5 * time.Minute)

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"ID", "USER_ID", "QUIZ_ID", "STARTED_AT", "COMPLETED_AT", "SCORE", "TIME_TAKEN_SECONDS", "STATUS"}).
			AddRow("attempt-1", "user-1", "quiz-1", startedAt, nil, 0, 0, "IN_PROGRESS")
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT ID, USER_ID, QUIZ_ID, STARTED_AT, COMPLETED_AT, SCORE, TIME_TAKEN_SECONDS, STATUS FROM quiz_attempts WHERE user_id = :1 AND quiz_id = :2 AND status = :3`)).
			WithArgs("user-1", "quiz-1", "IN_PROGRESS").
			WillReturnRows(rows)

		attempt, err := repo.GetActiveAttempt(ctx, "user-1", "quiz-1")
		assert.NoError(t, err)
		require.NotNil(t, attempt)
		assert.Equal(t, "attempt-1", attempt.ID)
		assert.True(t, attempt.IsActive())
		assert.Nil(t, attempt.CompletedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT ID, USER_ID, QUIZ_ID, STARTED_AT, COMPLETED_AT, SCORE, TIME_TAKEN_SECONDS, STATUS FROM quiz_attempts WHERE user_id = :1 AND quiz_id = :2 AND status = :3`)).
			WithArgs("user-1", "quiz-1", "IN_PROGRESS").
			WillReturnRows(sqlmock.NewRows([]string{"ID"}))

		attempt, err := repo.GetActiveAttempt(ctx, "user-1", "quiz-1")
		assert.NoError(t, err)
		assert.Nil(t, attempt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAttemptRepository_CreateAttempt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSQLXAttemptRepository(db)
	ctx := context.Background()

	attempt := &domain.QuizAttempt{
		ID:        "attempt-1",
		UserID:    "user-1",
		QuizID:    "quiz-1",
		StartedAt: time.Now(),
		Status:    domain.AttemptInProgress,
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO quiz_attempts`)).
			WithArgs(attempt.ID, attempt.UserID, attempt.QuizID, sqlmock.AnyArg(), sqlmock.AnyArg(), 0, 0, "IN_PROGRESS").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.CreateAttempt(ctx, attempt)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UniqueViolationMapsToDuplicateActiveAttempt", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO quiz_attempts`)).
			WithArgs(attempt.ID, attempt.UserID, attempt.QuizID, sqlmock.AnyArg(), sqlmock.AnyArg(), 0, 0, "IN_PROGRESS").
			WillReturnError(errors.New("ORA-00001: unique constraint (QUIZAPP.UQ_ATTEMPTS_ACTIVE) violated"))

		err := repo.CreateAttempt(ctx, attempt)
		assert.ErrorIs(t, err, domain.ErrDuplicateActiveAttempt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAttemptRepository_FinishAttempt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSQLXAttemptRepository(db)
	ctx := context.Background()

	completedAt := time.Now()
	attempt := &domain.QuizAttempt{
		ID:               "attempt-1",
		Status:           domain.AttemptCompleted,
		CompletedAt:      &completedAt,
		Score:            3,
		TimeTakenSeconds: 120,
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE quiz_attempts SET`)).
			WithArgs("COMPLETED", sqlmock.AnyArg(), 3, 120, "attempt-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.FinishAttempt(ctx, attempt)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoRowUpdated", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE quiz_attempts SET`)).
			WithArgs("COMPLETED", sqlmock.AnyArg(), 3, 120, "attempt-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.FinishAttempt(ctx, attempt)
		assert.Error(t, err)
	})
}

func TestAttemptRepository_SaveUserAnswers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSQLXAttemptRepository(db)
	ctx := context.Background()

	answers := []domain.UserAnswer{
		{
			ID:                "answer-1",
			AttemptID:         "attempt-1",
			QuestionID:        "question-1",
			SelectedOptionIDs: []string{"opt-1", "opt-2"},
			IsCorrect:         true,
			AnsweredAt:        time.Now(),
		},
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_answers`)).
		WithArgs("answer-1", "attempt-1", "question-1", `["opt-1","opt-2"]`, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SaveUserAnswers(ctx, answers)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_ListAttemptsByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSQLXAttemptRepository(db)
	ctx := context.Background()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"ID", "USER_ID", "QUIZ_ID", "STARTED_AT", "COMPLETED_AT", "SCORE", "TIME_TAKEN_SECONDS", "STATUS"}).
		AddRow("attempt-2", "user-1", "quiz-1", now, now, 4, 300, "COMPLETED").
		AddRow("attempt-1", "user-1", "quiz-2", now.Add(-time.Hour), nil, 0, 0, "ABANDONED")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM quiz_attempts WHERE user_id = :1 ORDER BY started_at DESC`)).
		WithArgs("user-1").
		WillReturnRows(rows)

	attempts, err := repo.ListAttemptsByUser(ctx, "user-1")
	assert.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "attempt-2", attempts[0].ID)
	assert.Equal(t, domain.AttemptAbandoned, attempts[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_TopScores(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSQLXAttemptRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"USER_ID", "USERNAME", "SCORE"}).
		AddRow("user-1", "alice", 9).
		AddRow("user-2", "bob", 7)
	mock.ExpectQuery(`SELECT USER_ID, USERNAME, SCORE FROM`).
		WithArgs("COMPLETED").
		WillReturnRows(rows)

	result, err := repo.TopScores(ctx, 10)
	assert.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "alice", result[0].Username)
	assert.Equal(t, 9, result[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}
