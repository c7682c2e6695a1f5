package domain

import (
	"fmt"
)

// ErrorCode identifies a class of domain error. The middleware maps each
// code to an HTTP status.
type ErrorCode string

const (
	CodeInternal   ErrorCode = "INTERNAL_SERVER_ERROR"
	CodeBadRequest ErrorCode = "BAD_REQUEST"
	CodeNotFound   ErrorCode = "NOT_FOUND"
	CodeForbidden  ErrorCode = "FORBIDDEN"
	CodeValidation ErrorCode = "VALIDATION_FAILED"

	// Auth errors
	CodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
	CodeInvalidToken     ErrorCode = "INVALID_TOKEN"
	CodeTokenRevoked     ErrorCode = "TOKEN_REVOKED"
	CodeTokenMismatch    ErrorCode = "TOKEN_MISMATCH"
	CodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	// Attempt errors
	CodeInvalidQuizAttempt  ErrorCode = "INVALID_QUIZ_ATTEMPT"
	CodeActiveAttemptExists ErrorCode = "ACTIVE_ATTEMPT_EXISTS"
)

// DomainError is the error type surfaced by services. Cause carries the
// underlying error for logging; Context carries structured details rendered
// in the HTTP error body.
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// NewError creates a new DomainError.
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, Cause: cause}
}

// WithContext attaches a detail entry and returns the error for chaining.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func NewNotFoundError(resource, id string) *DomainError {
	return NewError(CodeNotFound, fmt.Sprintf("%s not found: %s", resource, id), nil)
}

func NewBadRequestError(message string) *DomainError {
	return NewError(CodeBadRequest, message, nil)
}

func NewForbiddenError(message string) *DomainError {
	return NewError(CodeForbidden, message, nil)
}

func NewInternalError(cause error) *DomainError {
	return NewError(CodeInternal, "An internal error occurred", cause)
}

func NewNotAuthenticatedError(message string) *DomainError {
	return NewError(CodeNotAuthenticated, message, nil)
}

func NewInvalidTokenError(cause error) *DomainError {
	return NewError(CodeInvalidToken, "Invalid or expired token", cause)
}

// NewTokenRevokedError signals refresh-token reuse. By the time it is
// returned every refresh token of the subject has been invalidated.
func NewTokenRevokedError() *DomainError {
	return NewError(CodeTokenRevoked, "Refresh token has been revoked", nil)
}

func NewTokenMismatchError() *DomainError {
	return NewError(CodeTokenMismatch, "Refresh token does not belong to its subject", nil)
}

func NewTooManyRequestsError() *DomainError {
	return NewError(CodeTooManyRequests, "Too many refresh requests", nil)
}

func NewInvalidQuizAttemptError(message string) *DomainError {
	return NewError(CodeInvalidQuizAttempt, message, nil)
}

func NewActiveAttemptExistsError(quizID string) *DomainError {
	return NewError(CodeActiveAttemptExists, "An attempt for this quiz is already in progress", nil).
		WithContext("quiz_id", quizID)
}

// ValidationError describes a single failed field check.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates field checks so a request can report every
// problem at once.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e[0].Error())
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewInvalidFormatError(field, value string) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("has invalid format: %q", value)}
}

func NewOutOfRangeError(field string, got, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("length %d out of range [%d, %d]", got, min, max)}
}
