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

// sqlxQuizRepository implements domain.QuizRepository using sqlx.
type sqlxQuizRepository struct {
	db *sqlx.DB
}

// NewSQLXQuizRepository creates a new instance of sqlxQuizRepository.
func NewSQLXQuizRepository(db *sqlx.DB) domain.QuizRepository {
	return &sqlxQuizRepository{db: db}
}

const quizColumns = `ID, TITLE, DESCRIPTION, TIME_LIMIT_MINUTES, IS_PUBLISHED, DIFFICULTY, CREATED_BY, CREATED_AT, UPDATED_AT`
const questionColumns = `ID, QUIZ_ID, QUESTION_TEXT, QUESTION_TYPE, DIFFICULTY, EXPLANATION, CREATED_AT, UPDATED_AT`
const optionColumns = `ID, QUESTION_ID, OPTION_TEXT, IS_CORRECT`

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	if m == nil {
		return nil
	}
	return &domain.Quiz{
		ID:               m.ID,
		Title:            m.Title,
		Description:      util.NullStringToString(m.Description),
		TimeLimitMinutes: m.TimeLimitMinutes,
		IsPublished:      m.IsPublished,
		Difficulty:       domain.Difficulty(m.Difficulty),
		CreatedBy:        util.NullStringToString(m.CreatedBy),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toDomainQuestion(m *models.Question) *domain.Question {
	if m == nil {
		return nil
	}
	return &domain.Question{
		ID:           m.ID,
		QuizID:       m.QuizID,
		Text:         m.Text,
		QuestionType: domain.QuestionType(m.QuestionType),
		Difficulty:   domain.Difficulty(m.Difficulty),
		Explanation:  util.NullStringToString(m.Explanation),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toDomainOption(m *models.Option) domain.Option {
	return domain.Option{
		ID:         m.ID,
		QuestionID: m.QuestionID,
		Text:       m.Text,
		IsCorrect:  m.IsCorrect,
	}
}

// CreateQuiz inserts the quiz together with its questions and options.
func (r *sqlxQuizRepository) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	executor := GetExecutor(ctx, r.db)

	now := time.Now()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	quiz.UpdatedAt = now

	query := `INSERT INTO quizzes (ID, TITLE, DESCRIPTION, TIME_LIMIT_MINUTES, IS_PUBLISHED, DIFFICULTY, CREATED_BY, CREATED_AT, UPDATED_AT)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9)`
	_, err := executor.ExecContext(ctx, query,
		quiz.ID,
		quiz.Title,
		util.StringToNullString(quiz.Description),
		quiz.TimeLimitMinutes,
		quiz.IsPublished,
		string(quiz.Difficulty),
		util.StringToNullString(quiz.CreatedBy),
		quiz.CreatedAt,
		quiz.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}

	for i := range quiz.Questions {
		quiz.Questions[i].QuizID = quiz.ID
		if err := r.AddQuestion(ctx, &quiz.Questions[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetQuizByID loads the full quiz aggregate.
func (r *sqlxQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	executor := GetExecutor(ctx, r.db)

	var m models.Quiz
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE id = :1`
	if err := executor.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by id: %w", err)
	}

	quiz := toDomainQuiz(&m)
	questions, err := r.GetQuestionsByQuizID(ctx, id)
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions
	return quiz, nil
}

// ListQuizzes returns all quiz headers, newest first.
func (r *sqlxQuizRepository) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	executor := GetExecutor(ctx, r.db)

	var rows []models.Quiz
	query := `SELECT ` + quizColumns + ` FROM quizzes ORDER BY created_at DESC`
	if err := executor.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	quizzes := make([]domain.Quiz, 0, len(rows))
	for i := range rows {
		quizzes = append(quizzes, *toDomainQuiz(&rows[i]))
	}
	return quizzes, nil
}

// UpdateQuiz updates the quiz header fields.
func (r *sqlxQuizRepository) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	executor := GetExecutor(ctx, r.db)

	query := `UPDATE quizzes SET
	            title = :1,
	            description = :2,
	            time_limit_minutes = :3,
	            is_published = :4,
	            difficulty = :5,
	            updated_at = :6
	          WHERE id = :7`
	result, err := executor.ExecContext(ctx, query,
		quiz.Title,
		util.StringToNullString(quiz.Description),
		quiz.TimeLimitMinutes,
		quiz.IsPublished,
		string(quiz.Difficulty),
		time.Now(),
		quiz.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
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

// DeleteQuiz removes the quiz. Questions, options, attempts and answers go
// with it through FK cascades.
func (r *sqlxQuizRepository) DeleteQuiz(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)

	query := `DELETE FROM quizzes WHERE id = :1`
	if _, err := executor.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	return nil
}

// AddQuestion inserts a question and its options.
func (r *sqlxQuizRepository) AddQuestion(ctx context.Context, question *domain.Question) error {
	executor := GetExecutor(ctx, r.db)

	now := time.Now()
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = now

	query := `INSERT INTO questions (ID, QUIZ_ID, QUESTION_TEXT, QUESTION_TYPE, DIFFICULTY, EXPLANATION, CREATED_AT, UPDATED_AT)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8)`
	_, err := executor.ExecContext(ctx, query,
		question.ID,
		question.QuizID,
		question.Text,
		string(question.QuestionType),
		string(question.Difficulty),
		util.StringToNullString(question.Explanation),
		question.CreatedAt,
		question.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	return r.insertOptions(ctx, question.ID, question.Options)
}

func (r *sqlxQuizRepository) insertOptions(ctx context.Context, questionID string, options []domain.Option) error {
	executor := GetExecutor(ctx, r.db)

	query := `INSERT INTO options (ID, QUESTION_ID, OPTION_TEXT, IS_CORRECT) VALUES (:1, :2, :3, :4)`
	for _, o := range options {
		if _, err := executor.ExecContext(ctx, query, o.ID, questionID, o.Text, o.IsCorrect); err != nil {
			return fmt.Errorf("failed to create option: %w", err)
		}
	}
	return nil
}

// GetQuestionByID loads a question with its options.
func (r *sqlxQuizRepository) GetQuestionByID(ctx context.Context, id string) (*domain.Question, error) {
	executor := GetExecutor(ctx, r.db)

	var m models.Question
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = :1`
	if err := executor.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question by id: %w", err)
	}

	question := toDomainQuestion(&m)
	options, err := r.getOptionsByQuestionIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	question.Options = options[id]
	return question, nil
}

// GetQuestionsByQuizID loads every question of a quiz with its options.
func (r *sqlxQuizRepository) GetQuestionsByQuizID(ctx context.Context, quizID string) ([]domain.Question, error) {
	executor := GetExecutor(ctx, r.db)

	var rows []models.Question
	query := `SELECT ` + questionColumns + ` FROM questions WHERE quiz_id = :1 ORDER BY created_at ASC`
	if err := executor.SelectContext(ctx, &rows, query, quizID); err != nil {
		return nil, fmt.Errorf("failed to get questions by quiz id: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	for _, q := range rows {
		ids = append(ids, q.ID)
	}
	optionsByQuestion, err := r.getOptionsByQuestionIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	questions := make([]domain.Question, 0, len(rows))
	for i := range rows {
		q := toDomainQuestion(&rows[i])
		q.Options = optionsByQuestion[q.ID]
		questions = append(questions, *q)
	}
	return questions, nil
}

func (r *sqlxQuizRepository) getOptionsByQuestionIDs(ctx context.Context, questionIDs []string) (map[string][]domain.Option, error) {
	executor := GetExecutor(ctx, r.db)

	placeholders := make([]string, len(questionIDs))
	args := make([]interface{}, len(questionIDs))
	for i, id := range questionIDs {
		placeholders[i] = fmt.Sprintf(":%d", i+1)
		args[i] = id
	}

	var rows []models.Option
	query := `SELECT ` + optionColumns + ` FROM options WHERE question_id IN (` + strings.Join(placeholders, ", ") + `) ORDER BY id ASC`
	if err := executor.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get options: %w", err)
	}

	byQuestion := make(map[string][]domain.Option, len(questionIDs))
	for i := range rows {
		o := toDomainOption(&rows[i])
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}
	return byQuestion, nil
}

// UpdateQuestion rewrites the question row and replaces its options.
func (r *sqlxQuizRepository) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	executor := GetExecutor(ctx, r.db)

	query := `UPDATE questions SET
	            question_text = :1,
	            question_type = :2,
	            difficulty = :3,
	            explanation = :4,
	            updated_at = :5
	          WHERE id = :6`
	result, err := executor.ExecContext(ctx, query,
		question.Text,
		string(question.QuestionType),
		string(question.Difficulty),
		util.StringToNullString(question.Explanation),
		time.Now(),
		question.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	if _, err := executor.ExecContext(ctx, `DELETE FROM options WHERE question_id = :1`, question.ID); err != nil {
		return fmt.Errorf("failed to replace options: %w", err)
	}
	return r.insertOptions(ctx, question.ID, question.Options)
}

// DeleteQuestion removes the question. Options and answers cascade.
func (r *sqlxQuizRepository) DeleteQuestion(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)

	query := `DELETE FROM questions WHERE id = :1`
	if _, err := executor.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}
