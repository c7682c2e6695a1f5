package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"quizapp/internal/domain"
	"quizapp/internal/repository/models"
	"quizapp/internal/util"
)

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

const userColumns = `ID, USERNAME, EMAIL, PASSWORD_HASH, FIRST_NAME, LAST_NAME, USER_ROLE, ENABLED, CREATED_AT, UPDATED_AT`

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FirstName:    util.NullStringToString(m.FirstName),
		LastName:     util.NullStringToString(m.LastName),
		Role:         domain.ParseRole(m.Role),
		Enabled:      m.Enabled,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// CreateUser inserts a new user into the database.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	executor := GetExecutor(ctx, r.db)

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `INSERT INTO users (ID, USERNAME, EMAIL, PASSWORD_HASH, FIRST_NAME, LAST_NAME, USER_ROLE, ENABLED, CREATED_AT, UPDATED_AT)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10)`

	_, err := executor.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		util.StringToNullString(user.FirstName),
		util.StringToNullString(user.LastName),
		string(user.Role),
		user.Enabled,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	executor := GetExecutor(ctx, r.db)

	var m models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = :1`
	if err := executor.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return toDomainUser(&m), nil
}

// GetUserByUsername retrieves a user by username.
func (r *sqlxUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	executor := GetExecutor(ctx, r.db)

	var m models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE username = :1`
	if err := executor.GetContext(ctx, &m, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return toDomainUser(&m), nil
}

// ExistsByUsername reports whether a username is already taken.
func (r *sqlxUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	executor := GetExecutor(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM users WHERE username = :1`
	if err := executor.GetContext(ctx, &count, query, username); err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return count > 0, nil
}

// ExistsByEmail reports whether an email is already registered.
func (r *sqlxUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	executor := GetExecutor(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM users WHERE email = :1`
	if err := executor.GetContext(ctx, &count, query, email); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

// ListUsers returns all users ordered by creation time.
func (r *sqlxUserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	executor := GetExecutor(ctx, r.db)

	var rows []models.User
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	if err := executor.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, *toDomainUser(&rows[i]))
	}
	return users, nil
}

// ListUsersByRole returns all users with the given role.
func (r *sqlxUserRepository) ListUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	executor := GetExecutor(ctx, r.db)

	var rows []models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE user_role = :1 ORDER BY created_at DESC`
	if err := executor.SelectContext(ctx, &rows, query, string(role)); err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}

	users := make([]domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, *toDomainUser(&rows[i]))
	}
	return users, nil
}

// UpdateUserStatus enables or disables an account.
func (r *sqlxUserRepository) UpdateUserStatus(ctx context.Context, username string, enabled bool) error {
	executor := GetExecutor(ctx, r.db)

	query := `UPDATE users SET enabled = :1, updated_at = :2 WHERE username = :3`
	result, err := executor.ExecContext(ctx, query, enabled, time.Now(), username)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
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

// DeleteUser removes a user row.
func (r *sqlxUserRepository) DeleteUser(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)

	query := `DELETE FROM users WHERE id = :1`
	if _, err := executor.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
