package service

import (
	"context"

	"go.uber.org/zap"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
	"quizapp/internal/logger"
)

// UserService covers the profile surface and the admin user-management
// operations.
type UserService interface {
	GetProfile(ctx context.Context, user *domain.User) (*dto.UserResponse, error)
	GetStats(ctx context.Context, userID string) (*dto.UserStats, error)
	DeleteAccount(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
	ListAdmins(ctx context.Context) ([]dto.UserResponse, error)
	ListUserDetails(ctx context.Context) ([]dto.UserDetails, error)
	GetUser(ctx context.Context, username string) (*dto.UserResponse, error)
	SetUserStatus(ctx context.Context, username string, enabled bool) (*dto.UserResponse, error)
	DeleteByUsername(ctx context.Context, username string) error
}

type userService struct {
	userRepo    domain.UserRepository
	attemptRepo domain.AttemptRepository
	txManager   domain.TransactionManager
}

// NewUserService creates a new UserService.
func NewUserService(userRepo domain.UserRepository, attemptRepo domain.AttemptRepository, txManager domain.TransactionManager) UserService {
	return &userService{userRepo: userRepo, attemptRepo: attemptRepo, txManager: txManager}
}

// GetProfile returns the outward view of the authenticated user.
func (s *userService) GetProfile(ctx context.Context, user *domain.User) (*dto.UserResponse, error) {
	resp := dto.UserResponseFromDomain(user)
	return &resp, nil
}

// GetStats aggregates the user's completed attempts.
func (s *userService) GetStats(ctx context.Context, userID string) (*dto.UserStats, error) {
	total, err := s.attemptRepo.CountAttemptsByUser(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	avg := 0.0
	if total > 0 {
		avg, err = s.attemptRepo.AverageScoreByUser(ctx, userID)
		if err != nil {
			return nil, domain.NewInternalError(err)
		}
	}
	return &dto.UserStats{TotalAttempts: total, AverageScore: avg}, nil
}

// DeleteAccount removes the caller's own account and attempt history.
func (s *userService) DeleteAccount(ctx context.Context, userID string) error {
	return s.deleteUser(ctx, userID)
}

// ListUsers returns every account.
func (s *userService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return toUserResponses(users), nil
}

// ListAdmins returns every account with the administrator role.
func (s *userService) ListAdmins(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.userRepo.ListUsersByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return toUserResponses(users), nil
}

// ListUserDetails returns every account together with its attempt
// statistics.
func (s *userService) ListUserDetails(ctx context.Context) ([]dto.UserDetails, error) {
	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	details := make([]dto.UserDetails, 0, len(users))
	for i := range users {
		stats, err := s.GetStats(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		details = append(details, dto.UserDetails{
			UserResponse: dto.UserResponseFromDomain(&users[i]),
			QuizzesTaken: stats.TotalAttempts,
			AverageScore: stats.AverageScore,
		})
	}
	return details, nil
}

// GetUser returns the account with the given username.
func (s *userService) GetUser(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("User", username)
	}
	resp := dto.UserResponseFromDomain(user)
	return &resp, nil
}

func toUserResponses(users []domain.User) []dto.UserResponse {
	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, dto.UserResponseFromDomain(&users[i]))
	}
	return responses
}

// SetUserStatus enables or disables an account and returns its new view.
func (s *userService) SetUserStatus(ctx context.Context, username string, enabled bool) (*dto.UserResponse, error) {
	if err := s.userRepo.UpdateUserStatus(ctx, username, enabled); err != nil {
		return nil, domain.NewNotFoundError("User", username)
	}
	logger.Get().Info("user status changed",
		zap.String("username", username), zap.Bool("enabled", enabled))
	return s.GetUser(ctx, username)
}

// DeleteByUsername removes the named account and its attempt history.
func (s *userService) DeleteByUsername(ctx context.Context, username string) error {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.NewInternalError(err)
	}
	if user == nil {
		return domain.NewNotFoundError("User", username)
	}
	return s.deleteUser(ctx, user.ID)
}

func (s *userService) deleteUser(ctx context.Context, userID string) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.attemptRepo.DeleteAttemptsByUser(txCtx, userID); err != nil {
			return domain.NewInternalError(err)
		}
		if err := s.userRepo.DeleteUser(txCtx, userID); err != nil {
			return domain.NewInternalError(err)
		}
		return nil
	})
}
