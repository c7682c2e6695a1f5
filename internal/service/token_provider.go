package service

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"quizapp/internal/domain"
	"quizapp/internal/dto"
	"quizapp/internal/logger"
	"quizapp/internal/util"
)

// TokenProvider issues and validates the JWT token pair. Revocation state
// (blacklist) lives in the token store, not in the token itself.
type TokenProvider interface {
	GenerateAccessToken(username string) (string, error)
	GenerateRefreshToken(username string) (string, error)
	Parse(tokenString string) (*dto.AuthClaims, error)
	ValidateAccessToken(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	ValidateRefreshToken(tokenString string) (*dto.AuthClaims, error)
	BlacklistAccessToken(ctx context.Context, tokenString string) error
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

type jwtTokenProvider struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	tokenStore domain.TokenStore
}

// NewJWTTokenProvider creates a TokenProvider signing with HMAC-SHA256.
// The secret is base64 encoded; a secret that does not decode is used as
// raw bytes.
func NewJWTTokenProvider(secret string, accessTTL, refreshTTL time.Duration, tokenStore domain.TokenStore) TokenProvider {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key = []byte(secret)
	}
	return &jwtTokenProvider{
		secretKey:  key,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		tokenStore: tokenStore,
	}
}

func (p *jwtTokenProvider) generate(username, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := dto.AuthClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        util.NewULID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secretKey)
	if err != nil {
		return "", domain.NewInternalError(err)
	}
	return signed, nil
}

func (p *jwtTokenProvider) GenerateAccessToken(username string) (string, error) {
	return p.generate(username, dto.TokenTypeAccess, p.accessTTL)
}

func (p *jwtTokenProvider) GenerateRefreshToken(username string) (string, error) {
	return p.generate(username, dto.TokenTypeRefresh, p.refreshTTL)
}

// Parse verifies the signature and expiry and returns the claims.
func (p *jwtTokenProvider) Parse(tokenString string) (*dto.AuthClaims, error) {
	claims := &dto.AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secretKey, nil
	})
	if err != nil {
		return nil, domain.NewInvalidTokenError(err)
	}
	if !token.Valid {
		return nil, domain.NewInvalidTokenError(nil)
	}
	return claims, nil
}

// ValidateAccessToken parses the token, checks the type discriminator and
// consults the blacklist. A token store failure does not reject the token;
// signature and expiry have already been verified.
func (p *jwtTokenProvider) ValidateAccessToken(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	claims, err := p.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != dto.TokenTypeAccess {
		return nil, domain.NewInvalidTokenError(nil)
	}

	blacklisted, err := p.tokenStore.Exists(ctx, domain.BlacklistKey(tokenString))
	if err != nil {
		logger.Get().Warn("blacklist check failed, accepting token on signature alone",
			zap.Error(err))
		return claims, nil
	}
	if blacklisted {
		return nil, domain.NewInvalidTokenError(nil)
	}
	return claims, nil
}

// ValidateRefreshToken parses the token and checks the type discriminator.
// Store-side revocation state is the caller's concern.
func (p *jwtTokenProvider) ValidateRefreshToken(tokenString string) (*dto.AuthClaims, error) {
	claims, err := p.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != dto.TokenTypeRefresh {
		return nil, domain.NewInvalidTokenError(nil)
	}
	return claims, nil
}

// BlacklistAccessToken marks the token revoked for its remaining lifetime.
// An already expired token needs no blacklist entry.
func (p *jwtTokenProvider) BlacklistAccessToken(ctx context.Context, tokenString string) error {
	claims, err := p.Parse(tokenString)
	if err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}
	return p.tokenStore.Put(ctx, domain.BlacklistKey(tokenString), "true", remaining)
}

func (p *jwtTokenProvider) AccessTokenTTL() time.Duration {
	return p.accessTTL
}

func (p *jwtTokenProvider) RefreshTokenTTL() time.Duration {
	return p.refreshTTL
}
