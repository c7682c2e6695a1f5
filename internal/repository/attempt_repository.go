package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"quizapp/internal/domain"
	"quizapp/internal/repository/models"
	"quizapp/internal/util"
)

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db *sqlx.DB
}

// NewSQLXAttemptRepository creates a new instance of sqlxAttemptRepository.
func NewSQLXAttemptRepository(db *sqlx.DB) domain.AttemptRepository {
	return &sqlxAttemptRepository{db: db}
}

const attemptColumns = `ID, USER_ID, QUIZ_ID, STARTED_AT, COMPLETED_AT, SCORE, TIME_TAKEN_SECONDS, STATUS`
const answerColumns = `ID, ATTEMPT_ID, QUESTION_ID, SELECTED_OPTION_IDS, IS_CORRECT, ANSWERED_AT`

func toDomainAttempt(m *models.QuizAttempt) *domain.QuizAttempt {
	if m == nil {
		return nil
	}
	return &domain.QuizAttempt{
		ID:               m.ID,
		UserID:           m.UserID,
		QuizID:           m.QuizID,
		StartedAt:        m.StartedAt,
		CompletedAt:      util.NullTimeToTimePtr(m.CompletedAt),
		Score:            m.Score,
		TimeTakenSeconds: m.TimeTakenSeconds,
		Status:           domain.AttemptStatus(m.Status),
	}
}

func toDomainUserAnswer(m *models.UserAnswer) domain.UserAnswer {
	selected := []string{}
	if m.SelectedOptionIDs != nil {
		selected = m.SelectedOptionIDs
	}
	return domain.UserAnswer{
		ID:                m.ID,
		AttemptID:         m.AttemptID,
		QuestionID:        m.QuestionID,
		SelectedOptionIDs: selected,
		IsCorrect:         m.IsCorrect,
		AnsweredAt:        m.AnsweredAt,
	}
}

// isUniqueViolation reports whether err is an Oracle unique-constraint
// violation (ORA-00001).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "ORA-00001")
}

// LockUserQuizAttempts takes row locks on every attempt of the user/quiz
// pair. Must run inside a transaction.
func (r *sqlxAttemptRepository) LockUserQuizAttempts(ctx context.Context, userID, quizID string) error {
	executor := GetExecutor(ctx, r.db)

	var ids []string
	query := `SELECT id FROM quiz_attempts WHERE user_id = :1 AND quiz_id = :2 FOR UPDATE`
	if err := executor.SelectContext(ctx, &ids, query, userID, quizID); err != nil {
		return fmt.Errorf("failed to lock quiz attempts: %w", err)
	}
	return nil
}

// GetActiveAttempt returns the in-progress attempt of the user on the quiz,
// or nil when none exists.
func (r *sqlxAttemptRepository) GetActiveAttempt(ctx context.Context, userID, quizID string) (*domain.QuizAttempt, error) {
	executor := GetExecutor(ctx, r.db)

	var m models.QuizAttempt
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts WHERE user_id = :1 AND quiz_id = :2 AND status = :3`
	if err := executor.GetContext(ctx, &m, query, userID, quizID, string(domain.AttemptInProgress)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active attempt: %w", err)
	}
	return toDomainAttempt(&m), nil
}

// CreateAttempt inserts a new quiz attempt. The unique index on
// in-progress attempts catches concurrent first starts, which the row
// locks cannot serialize when no attempt rows exist yet.
func (r *sqlxAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	executor := GetExecutor(ctx, r.db)

	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now()
	}

	query := `INSERT INTO quiz_attempts (ID, USER_ID, QUIZ_ID, STARTED_AT, COMPLETED_AT, SCORE, TIME_TAKEN_SECONDS, STATUS)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8)`
	_, err := executor.ExecContext(ctx, query,
		attempt.ID,
		attempt.UserID,
		attempt.QuizID,
		attempt.StartedAt,
		util.TimeToNullTime(attempt.CompletedAt),
		attempt.Score,
		attempt.TimeTakenSeconds,
		string(attempt.Status),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateActiveAttempt
		}
		return fmt.Errorf("failed to create quiz attempt: %w", err)
	}
	return nil
}

// GetAttemptByID loads the attempt row without its answers.
func (r *sqlxAttemptRepository) GetAttemptByID(ctx context.Context, id string) (*domain.QuizAttempt, error) {
	executor := GetExecutor(ctx, r.db)

	var m models.QuizAttempt
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts WHERE id = :1`
	if err := executor.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt by id: %w", err)
	}
	return toDomainAttempt(&m), nil
}

// FinishAttempt persists the terminal transition of the attempt.
func (r *sqlxAttemptRepository) FinishAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	executor := GetExecutor(ctx, r.db)

	query := `UPDATE quiz_attempts SET
	            status = :1,
	            completed_at = :2,
	            score = :3,
	            time_taken_seconds = :4
	          WHERE id = :5`
	result, err := executor.ExecContext(ctx, query,
		string(attempt.Status),
		util.TimeToNullTime(attempt.CompletedAt),
		attempt.Score,
		attempt.TimeTakenSeconds,
		attempt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish attempt: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveUserAnswers inserts the answer rows of a submission.
func (r *sqlxAttemptRepository) SaveUserAnswers(ctx context.Context, answers []domain.UserAnswer) error {
	executor := GetExecutor(ctx, r.db)

	query := `INSERT INTO user_answers (ID, ATTEMPT_ID, QUESTION_ID, SELECTED_OPTION_IDS, IS_CORRECT, ANSWERED_AT)
	          VALUES (:1, :2, :3, :4, :5, :6)`
	for _, a := range answers {
		selected := models.StringSlice(a.SelectedOptionIDs)
		selectedVal, err := selected.Value()
		if err != nil {
			return fmt.Errorf("failed to encode selected option ids: %w", err)
		}
		if _, err := executor.ExecContext(ctx, query,
			a.ID,
			a.AttemptID,
			a.QuestionID,
			selectedVal,
			a.IsCorrect,
			a.AnsweredAt,
		); err != nil {
			return fmt.Errorf("failed to save user answer: %w", err)
		}
	}
	return nil
}

// GetUserAnswers loads the recorded answers of an attempt.
func (r *sqlxAttemptRepository) GetUserAnswers(ctx context.Context, attemptID string) ([]domain.UserAnswer, error) {
	executor := GetExecutor(ctx, r.db)

	var rows []models.UserAnswer
	query := `SELECT ` + answerColumns + ` FROM user_answers WHERE attempt_id = :1 ORDER BY answered_at ASC`
	if err := executor.SelectContext(ctx, &rows, query, attemptID); err != nil {
		return nil, fmt.Errorf("failed to get user answers: %w", err)
	}

	answers := make([]domain.UserAnswer, 0, len(rows))
	for i := range rows {
		answers = append(answers, toDomainUserAnswer(&rows[i]))
	}
	return answers, nil
}

// ListAttemptsByUser returns every attempt of a user, newest first.
func (r *sqlxAttemptRepository) ListAttemptsByUser(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	executor := GetExecutor(ctx, r.db)

	var rows []models.QuizAttempt
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts WHERE user_id = :1 ORDER BY started_at DESC`
	if err := executor.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list attempts by user: %w", err)
	}

	attempts := make([]domain.QuizAttempt, 0, len(rows))
	for i := range rows {
		attempts = append(attempts, *toDomainAttempt(&rows[i]))
	}
	return attempts, nil
}

// ListAttemptsByUserAndQuiz returns the user's attempts on one quiz,
// newest first.
func (r *sqlxAttemptRepository) ListAttemptsByUserAndQuiz(ctx context.Context, userID, quizID string) ([]domain.QuizAttempt, error) {
	executor := GetExecutor(ctx, r.db)

	var rows []models.QuizAttempt
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts WHERE user_id = :1 AND quiz_id = :2 ORDER BY started_at DESC`
	if err := executor.SelectContext(ctx, &rows, query, userID, quizID); err != nil {
		return nil, fmt.Errorf("failed to list attempts by user and quiz: %w", err)
	}

	attempts := make([]domain.QuizAttempt, 0, len(rows))
	for i := range rows {
		attempts = append(attempts, *toDomainAttempt(&rows[i]))
	}
	return attempts, nil
}

// GetAttemptsByIDs loads the attempts with the given ids.
func (r *sqlxAttemptRepository) GetAttemptsByIDs(ctx context.Context, ids []string) ([]domain.QuizAttempt, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	executor := GetExecutor(ctx, r.db)

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf(":%d", i+1)
		args[i] = id
	}

	var rows []models.QuizAttempt
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts WHERE id IN (` + strings.Join(placeholders, ", ") + `)`
	if err := executor.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get attempts by ids: %w", err)
	}

	attempts := make([]domain.QuizAttempt, 0, len(rows))
	for i := range rows {
		attempts = append(attempts, *toDomainAttempt(&rows[i]))
	}
	return attempts, nil
}

// DeleteAttempt removes one attempt. Answer rows cascade.
func (r *sqlxAttemptRepository) DeleteAttempt(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)

	query := `DELETE FROM quiz_attempts WHERE id = :1`
	if _, err := executor.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete attempt: %w", err)
	}
	return nil
}

// DeleteAttemptsByUser removes every attempt of a user.
func (r *sqlxAttemptRepository) DeleteAttemptsByUser(ctx context.Context, userID string) error {
	executor := GetExecutor(ctx, r.db)

	query := `DELETE FROM quiz_attempts WHERE user_id = :1`
	if _, err := executor.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete attempts by user: %w", err)
	}
	return nil
}

// CountAttemptsByUser counts the completed attempts of a user.
func (r *sqlxAttemptRepository) CountAttemptsByUser(ctx context.Context, userID string) (int, error) {
	executor := GetExecutor(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM quiz_attempts WHERE user_id = :1 AND status = :2`
	if err := executor.GetContext(ctx, &count, query, userID, string(domain.AttemptCompleted)); err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}

// AverageScoreByUser returns the mean score across completed attempts.
func (r *sqlxAttemptRepository) AverageScoreByUser(ctx context.Context, userID string) (float64, error) {
	executor := GetExecutor(ctx, r.db)

	var avg sql.NullFloat64
	query := `SELECT AVG(score) FROM quiz_attempts WHERE user_id = :1 AND status = :2`
	if err := executor.GetContext(ctx, &avg, query, userID, string(domain.AttemptCompleted)); err != nil {
		return 0, fmt.Errorf("failed to compute average score: %w", err)
	}
	return avg.Float64, nil
}

// TopScores returns the best completed score per user, highest first.
// Oracle compatibility: ROW_NUMBER() subquery instead of LIMIT.
func (r *sqlxAttemptRepository) TopScores(ctx context.Context, limit int) ([]domain.LeaderboardRow, error) {
	executor := GetExecutor(ctx, r.db)

	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`SELECT USER_ID, USERNAME, SCORE FROM (
	            SELECT qa.user_id AS user_id, u.username AS username, MAX(qa.score) AS score,
	                   ROW_NUMBER() OVER (ORDER BY MAX(qa.score) DESC) AS rn
	            FROM quiz_attempts qa
	            JOIN users u ON qa.user_id = u.id
	            WHERE qa.status = :1
	            GROUP BY qa.user_id, u.username
	          ) WHERE rn <= %d`, limit)

	var rows []models.LeaderboardRow
	if err := executor.SelectContext(ctx, &rows, query, string(domain.AttemptCompleted)); err != nil {
		return nil, fmt.Errorf("failed to query top scores: %w", err)
	}

	result := make([]domain.LeaderboardRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.LeaderboardRow{UserID: row.UserID, Username: row.Username, Score: row.Score})
	}
	return result, nil
}

// TopScoresByQuiz returns the best completed score per user on one quiz.
func (r *sqlxAttemptRepository) TopScoresByQuiz(ctx context.Context, quizID string, limit int) ([]domain.LeaderboardRow, error) {
	executor := GetExecutor(ctx, r.db)

	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`SELECT USER_ID, USERNAME, SCORE FROM (
	            SELECT qa.user_id AS user_id, u.username AS username, MAX(qa.score) AS score,
	                   ROW_NUMBER() OVER (ORDER BY MAX(qa.score) DESC) AS rn
	            FROM quiz_attempts qa
	            JOIN users u ON qa.user_id = u.id
	            WHERE qa.status = :1 AND qa.quiz_id = :2
	            GROUP BY qa.user_id, u.username
	          ) WHERE rn <= %d`, limit)

	var rows []models.LeaderboardRow
	if err := executor.SelectContext(ctx, &rows, query, string(domain.AttemptCompleted), quizID); err != nil {
		return nil, fmt.Errorf("failed to query top scores by quiz: %w", err)
	}

	result := make([]domain.LeaderboardRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.LeaderboardRow{UserID: row.UserID, Username: row.Username, Score: row.Score})
	}
	return result, nil
}
