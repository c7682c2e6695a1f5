package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
	"quizapp/internal/logger"
	"quizapp/internal/util"
)

const (
	refreshRateLimitWindow = time.Minute
	refreshRateLimitMax    = 5
)

// AuthService handles registration, login and the refresh-token lifecycle.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

type authService struct {
	userRepo      domain.UserRepository
	tokenStore    domain.TokenStore
	tokenProvider TokenProvider
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo domain.UserRepository, tokenStore domain.TokenStore, tokenProvider TokenProvider) AuthService {
	return &authService{
		userRepo:      userRepo,
		tokenStore:    tokenStore,
		tokenProvider: tokenProvider,
	}
}

// Register creates a new account. The role is always USER; administrators
// are promoted out of band.
func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	taken, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if taken {
		return nil, domain.NewBadRequestError("Username is already taken")
	}

	taken, err = s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if taken {
		return nil, domain.NewBadRequestError("Email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	user := &domain.User{
		ID:           util.NewULID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         domain.RoleUser,
		Enabled:      true,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, domain.NewInternalError(err)
	}

	logger.Get().Info("user registered", zap.String("username", user.Username))
	resp := dto.UserResponseFromDomain(user)
	return &resp, nil
}

// Login verifies the credentials and issues a token pair. Each login opens
// a fresh refresh-token family.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if user == nil {
		return nil, domain.NewNotAuthenticatedError("Invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.NewNotAuthenticatedError("Invalid username or password")
	}
	if !user.Enabled {
		return nil, domain.NewForbiddenError("Account is disabled")
	}

	familyID := util.NewULID()
	resp, err := s.issueTokens(ctx, user, familyID, "")
	if err != nil {
		return nil, err
	}

	logger.Get().Info("user logged in", zap.String("username", user.Username))
	return resp, nil
}

// issueTokens generates a token pair and writes the refresh record, family
// marker and user index in one atomic store operation. A non-empty
// oldRefreshToken makes this a rotation: its records are deleted in the
// same operation.
func (s *authService) issueTokens(ctx context.Context, user *domain.User, familyID, oldRefreshToken string) (*dto.AuthResponse, error) {
	accessToken, err := s.tokenProvider.GenerateAccessToken(user.Username)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokenProvider.GenerateRefreshToken(user.Username)
	if err != nil {
		return nil, err
	}

	refreshTTL := s.tokenProvider.RefreshTokenTTL()
	puts := []domain.Entry{
		{Key: domain.RefreshTokenKey(refreshToken), Value: user.Username, TTL: refreshTTL},
		{Key: domain.FamilyKey(refreshToken), Value: familyID, TTL: refreshTTL},
	}
	swap := &domain.SetSwap{
		Key:    domain.UserRefreshIndexKey(user.Username),
		Remove: oldRefreshToken,
		Add:    refreshToken,
		TTL:    refreshTTL,
	}
	var del []string
	if oldRefreshToken != "" {
		del = []string{
			domain.RefreshTokenKey(oldRefreshToken),
			domain.FamilyKey(oldRefreshToken),
		}
	}
	if err := s.tokenStore.Rotate(ctx, del, puts, swap); err != nil {
		return nil, domain.NewInternalError(err)
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenProvider.AccessTokenTTL().Seconds()),
		User:         dto.UserResponseFromDomain(user),
	}, nil
}

// Refresh rotates a refresh token. Presenting a token that is well formed
// but absent from the store is treated as reuse of a rotated token and
// revokes every token of the subject.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.tokenProvider.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	username := claims.Subject

	if err := s.enforceRefreshRateLimit(ctx, username); err != nil {
		return nil, err
	}

	storedSubject, err := s.tokenStore.Get(ctx, domain.RefreshTokenKey(refreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			logger.Get().Warn("refresh token reuse detected, revoking all sessions",
				zap.String("username", username))
			if revokeErr := s.revokeAllForUser(ctx, username); revokeErr != nil {
				logger.Get().Error("failed to revoke sessions after reuse detection",
					zap.String("username", username), zap.Error(revokeErr))
			}
			return nil, domain.NewTokenRevokedError()
		}
		return nil, domain.NewInternalError(err)
	}
	if storedSubject != username {
		return nil, domain.NewTokenMismatchError()
	}

	familyID, err := s.tokenStore.Get(ctx, domain.FamilyKey(refreshToken))
	if err != nil {
		if !errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.NewInternalError(err)
		}
		// A refresh record without its family marker is as suspect as a
		// missing record; treat it as reuse.
		logger.Get().Warn("refresh token family marker missing, revoking all sessions",
			zap.String("username", username))
		if revokeErr := s.revokeAllForUser(ctx, username); revokeErr != nil {
			logger.Get().Error("failed to revoke sessions after reuse detection",
				zap.String("username", username), zap.Error(revokeErr))
		}
		return nil, domain.NewTokenRevokedError()
	}

	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if user == nil {
		return nil, domain.NewNotAuthenticatedError("Unknown subject")
	}
	if !user.Enabled {
		return nil, domain.NewForbiddenError("Account is disabled")
	}

	resp, err := s.issueTokens(ctx, user, familyID, refreshToken)
	if err != nil {
		return nil, err
	}

	logger.Get().Debug("refresh token rotated", zap.String("username", username))
	return resp, nil
}

// enforceRefreshRateLimit counts refresh calls per user in a one-minute
// window. A store failure lets the call through.
func (s *authService) enforceRefreshRateLimit(ctx context.Context, username string) error {
	key := domain.RefreshRateLimitKey(username)
	count, err := s.tokenStore.Increment(ctx, key)
	if err != nil {
		logger.Get().Warn("refresh rate-limit counter unavailable",
			zap.String("username", username), zap.Error(err))
		return nil
	}
	if count == 1 {
		if err := s.tokenStore.Expire(ctx, key, refreshRateLimitWindow); err != nil {
			logger.Get().Warn("failed to set rate-limit window",
				zap.String("username", username), zap.Error(err))
		}
	}
	if count > refreshRateLimitMax {
		return domain.NewTooManyRequestsError()
	}
	return nil
}

// Logout blacklists the access token and revokes every refresh token of the
// subject.
func (s *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	var username string

	if accessToken != "" {
		if claims, err := s.tokenProvider.Parse(accessToken); err == nil {
			username = claims.Subject
		}
		if err := s.tokenProvider.BlacklistAccessToken(ctx, accessToken); err != nil {
			logger.Get().Warn("failed to blacklist access token", zap.Error(err))
		}
	}

	if username == "" && refreshToken != "" {
		if claims, err := s.tokenProvider.ValidateRefreshToken(refreshToken); err == nil {
			username = claims.Subject
		}
	}
	if username == "" {
		return nil
	}

	if err := s.revokeAllForUser(ctx, username); err != nil {
		return domain.NewInternalError(err)
	}
	logger.Get().Info("user logged out", zap.String("username", username))
	return nil
}

// revokeAllForUser deletes every refresh record of the user. The user index
// set is the primary source; a keyspace scan covers records written before
// the index existed.
func (s *authService) revokeAllForUser(ctx context.Context, username string) error {
	tokens, err := s.tokenStore.SetMembers(ctx, domain.UserRefreshIndexKey(username))
	if err != nil {
		logger.Get().Warn("user token index unavailable, falling back to scan",
			zap.String("username", username), zap.Error(err))
	}
	if len(tokens) == 0 {
		keys, err := s.tokenStore.Keys(ctx, domain.RefreshKeyPattern)
		if err != nil {
			return err
		}
		for _, key := range keys {
			subject, err := s.tokenStore.Get(ctx, key)
			if err != nil {
				continue
			}
			if subject == username {
				tokens = append(tokens, domain.TokenFromRefreshKey(key))
			}
		}
	}

	del := make([]string, 0, len(tokens)*2+1)
	for _, token := range tokens {
		del = append(del, domain.RefreshTokenKey(token), domain.FamilyKey(token))
	}
	del = append(del, domain.UserRefreshIndexKey(username))
	return s.tokenStore.Rotate(ctx, del, nil, nil)
}

// GetUserByUsername resolves the account behind a validated token subject.
func (s *authService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return user, nil
}
