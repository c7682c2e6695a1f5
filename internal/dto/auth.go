package dto

import (
	"github.com/golang-jwt/jwt/v5"

	"quizapp/internal/domain"
)

// Token type discriminators embedded in every issued JWT.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AuthClaims is the JWT claim set for both access and refresh tokens. The
// subject carries the username.
type AuthClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse carries a freshly issued token pair.
type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         UserResponse `json:"user"`
}

// UserResponse is the outward view of a user account.
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
	Enabled   bool   `json:"enabled"`
}

// UserDetails is the admin view of an account with its attempt stats.
type UserDetails struct {
	UserResponse
	QuizzesTaken int     `json:"quizzesTaken"`
	AverageScore float64 `json:"averageScore"`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponseFromDomain maps a domain user to its outward view.
func UserResponseFromDomain(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		Enabled:   u.Enabled,
	}
}
