package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
)

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func testUser(t *testing.T) *domain.User {
	return &domain.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hashPassword(t, "s3cret"),
		Role:         domain.RoleUser,
		Enabled:      true,
	}
}

func assertCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		provider := newTestProvider(store)
		svc := NewAuthService(userRepo, store, provider)

		user := testUser(t)
		userRepo.On("GetUserByUsername", ctx, "alice").Return(user, nil)
		store.On("Rotate", ctx, mock.Anything, mock.MatchedBy(func(puts []domain.Entry) bool {
			return len(puts) == 2 && puts[0].Value == "alice"
		}), mock.MatchedBy(func(swap *domain.SetSwap) bool {
			return swap != nil && swap.Key == domain.UserRefreshIndexKey("alice") && swap.Remove == ""
		})).Return(nil)

		resp, err := svc.Login(ctx, dto.LoginRequest{Username: "alice", Password: "s3cret"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, "alice", resp.User.Username)

		claims, err := provider.ValidateRefreshToken(resp.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		store.AssertExpectations(t)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		svc := NewAuthService(userRepo, store, newTestProvider(store))

		userRepo.On("GetUserByUsername", ctx, "alice").Return(testUser(t), nil)

		_, err := svc.Login(ctx, dto.LoginRequest{Username: "alice", Password: "wrong"})
		assertCode(t, err, domain.CodeNotAuthenticated)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		svc := NewAuthService(userRepo, store, newTestProvider(store))

		userRepo.On("GetUserByUsername", ctx, "nobody").Return(nil, nil)

		_, err := svc.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "s3cret"})
		assertCode(t, err, domain.CodeNotAuthenticated)
	})

	t.Run("DisabledAccount", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		svc := NewAuthService(userRepo, store, newTestProvider(store))

		user := testUser(t)
		user.Enabled = false
		userRepo.On("GetUserByUsername", ctx, "alice").Return(user, nil)

		_, err := svc.Login(ctx, dto.LoginRequest{Username: "alice", Password: "s3cret"})
		assertCode(t, err, domain.CodeForbidden)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()

	newRefreshToken := func(t *testing.T, provider TokenProvider) string {
		token, err := provider.GenerateRefreshToken("alice")
		require.NoError(t, err)
		return token
	}

	t.Run("RotatesTokenPair", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		provider := newTestProvider(store)
		svc := NewAuthService(userRepo, store, provider)

		oldToken := newRefreshToken(t, provider)
		rateKey := domain.RefreshRateLimitKey("alice")

		store.On("Increment", ctx, rateKey).Return(int64(1), nil)
		store.On("Expire", ctx, rateKey, time.Minute).Return(nil)
		store.On("Get", ctx, domain.RefreshTokenKey(oldToken)).Return("alice", nil)
		store.On("Get", ctx, domain.FamilyKey(oldToken)).Return("fam-1", nil)
		userRepo.On("GetUserByUsername", ctx, "alice").Return(testUser(t), nil)
		store.On("Rotate", ctx,
			[]string{domain.RefreshTokenKey(oldToken), domain.FamilyKey(oldToken)},
			mock.MatchedBy(func(puts []domain.Entry) bool {
				return len(puts) == 2 && puts[1].Value == "fam-1"
			}),
			mock.MatchedBy(func(swap *domain.SetSwap) bool {
				return swap != nil && swap.Remove == oldToken && swap.Add != oldToken
			})).Return(nil)

		resp, err := svc.Refresh(ctx, oldToken)
		require.NoError(t, err)
		assert.NotEqual(t, oldToken, resp.RefreshToken)
		store.AssertExpectations(t)
	})

	t.Run("ReuseRevokesAllSessions", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		provider := newTestProvider(store)
		svc := NewAuthService(userRepo, store, provider)

		replayed := newRefreshToken(t, provider)
		rateKey := domain.RefreshRateLimitKey("alice")

		store.On("Increment", ctx, rateKey).Return(int64(2), nil)
		store.On("Get", ctx, domain.RefreshTokenKey(replayed)).Return("", domain.ErrTokenNotFound)
		store.On("SetMembers", ctx, domain.UserRefreshIndexKey("alice")).Return([]string{"live-token"}, nil)
		store.On("Rotate", ctx,
			[]string{
				domain.RefreshTokenKey("live-token"),
				domain.FamilyKey("live-token"),
				domain.UserRefreshIndexKey("alice"),
			}, []domain.Entry(nil), (*domain.SetSwap)(nil)).Return(nil)

		_, err := svc.Refresh(ctx, replayed)
		assertCode(t, err, domain.CodeTokenRevoked)
		store.AssertExpectations(t)
	})

	t.Run("MissingFamilyMarkerRevokesAllSessions", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		provider := newTestProvider(store)
		svc := NewAuthService(userRepo, store, provider)

		token := newRefreshToken(t, provider)
		rateKey := domain.RefreshRateLimitKey("alice")

		store.On("Increment", ctx, rateKey).Return(int64(1), nil)
		store.On("Expire", ctx, rateKey, time.Minute).Return(nil)
		store.On("Get", ctx, domain.RefreshTokenKey(token)).Return("alice", nil)
		store.On("Get", ctx, domain.FamilyKey(token)).Return("", domain.ErrTokenNotFound)
		store.On("SetMembers", ctx, domain.UserRefreshIndexKey("alice")).Return([]string{token}, nil)
		store.On("Rotate", ctx,
			[]string{
				domain.RefreshTokenKey(token),
				domain.FamilyKey(token),
				domain.UserRefreshIndexKey("alice"),
			}, []domain.Entry(nil), (*domain.SetSwap)(nil)).Return(nil)

		_, err := svc.Refresh(ctx, token)
		assertCode(t, err, domain.CodeTokenRevoked)
		store.AssertExpectations(t)
	})

	t.Run("SubjectMismatch", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		provider := newTestProvider(store)
		svc := NewAuthService(userRepo, store, provider)

		token := newRefreshToken(t, provider)
		store.On("Increment", ctx, domain.RefreshRateLimitKey("alice")).Return(int64(2), nil)
		store.On("Get", ctx, domain.RefreshTokenKey(token)).Return("mallory", nil)

		_, err := svc.Refresh(ctx, token)
		assertCode(t, err, domain.CodeTokenMismatch)
	})

	t.Run("RateLimited", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		provider := newTestProvider(store)
		svc := NewAuthService(userRepo, store, provider)

		token := newRefreshToken(t, provider)
		store.On("Increment", ctx, domain.RefreshRateLimitKey("alice")).Return(int64(6), nil)

		_, err := svc.Refresh(ctx, token)
		assertCode(t, err, domain.CodeTooManyRequests)
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		svc := NewAuthService(userRepo, store, newTestProvider(store))

		_, err := svc.Refresh(ctx, "not-a-jwt")
		assertCode(t, err, domain.CodeInvalidToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	userRepo := new(MockUserRepository)
	store := new(MockTokenStore)
	provider := newTestProvider(store)
	svc := NewAuthService(userRepo, store, provider)

	accessToken, err := provider.GenerateAccessToken("alice")
	require.NoError(t, err)

	store.On("Put", ctx, domain.BlacklistKey(accessToken), "true", mock.Anything).Return(nil)
	store.On("SetMembers", ctx, domain.UserRefreshIndexKey("alice")).Return([]string{"t1", "t2"}, nil)
	store.On("Rotate", ctx, mock.MatchedBy(func(del []string) bool {
		return len(del) == 5
	}), []domain.Entry(nil), (*domain.SetSwap)(nil)).Return(nil)

	err = svc.Logout(ctx, accessToken, "")
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		svc := NewAuthService(userRepo, store, newTestProvider(store))

		userRepo.On("ExistsByUsername", ctx, "bob").Return(false, nil)
		userRepo.On("ExistsByEmail", ctx, "bob@example.com").Return(false, nil)
		userRepo.On("CreateUser", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Username == "bob" && u.Role == domain.RoleUser && u.Enabled && u.PasswordHash != "hunter2"
		})).Return(nil)

		resp, err := svc.Register(ctx, dto.RegisterRequest{
			Username: "bob",
			Email:    "bob@example.com",
			Password: "hunter2",
		})
		require.NoError(t, err)
		assert.Equal(t, "USER", resp.Role)
		userRepo.AssertExpectations(t)
	})

	t.Run("UsernameTaken", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		store := new(MockTokenStore)
		svc := NewAuthService(userRepo, store, newTestProvider(store))

		userRepo.On("ExistsByUsername", ctx, "alice").Return(true, nil)

		_, err := svc.Register(ctx, dto.RegisterRequest{Username: "alice", Email: "a@b.c", Password: "pw"})
		assertCode(t, err, domain.CodeBadRequest)
	})
}
