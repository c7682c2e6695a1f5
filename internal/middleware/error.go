package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"quizapp/internal/domain"
	"quizapp/internal/logger"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	ErrorCode string                 `json:"errorCode"`
}

// ValidationErrorResponse represents validation error response
type ValidationErrorResponse struct {
	Timestamp time.Time                `json:"timestamp"`
	Message   string                   `json:"message"`
	ErrorCode string                   `json:"errorCode"`
	Errors    []domain.ValidationError `json:"errors"`
}

// ErrorHandler is a centralized error handling middleware
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		log := logger.Get()

		// Handle validation errors
		if validationErrs, ok := err.(domain.ValidationErrors); ok {
			log.Warn("Validation errors occurred",
				zap.String("path", c.Path()),
				zap.Int("error_count", len(validationErrs)),
			)
			return c.Status(http.StatusBadRequest).JSON(ValidationErrorResponse{
				Timestamp: time.Now().UTC(),
				Message:   "Request validation failed",
				ErrorCode: string(domain.CodeValidation),
				Errors:    validationErrs,
			})
		}

		// Handle domain errors
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			statusCode := mapDomainErrorToHTTPStatus(domainErr)

			if statusCode >= http.StatusInternalServerError {
				log.Error("Domain error occurred",
					zap.String("code", string(domainErr.Code)),
					zap.String("message", domainErr.Message),
					zap.Int("status", statusCode),
					zap.Error(domainErr.Cause),
				)
			} else {
				log.Warn("Request rejected",
					zap.String("code", string(domainErr.Code)),
					zap.String("message", domainErr.Message),
					zap.Int("status", statusCode),
				)
			}

			response := ErrorResponse{
				Timestamp: time.Now().UTC(),
				Message:   domainErr.Message,
				ErrorCode: string(domainErr.Code),
			}
			if len(domainErr.Context) > 0 {
				response.Details = domainErr.Context
			}

			return c.Status(statusCode).JSON(response)
		}

		// Handle fiber errors
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			log.Warn("Fiber error occurred",
				zap.Int("code", fiberErr.Code),
				zap.String("message", fiberErr.Message),
			)
			return c.Status(fiberErr.Code).JSON(ErrorResponse{
				Timestamp: time.Now().UTC(),
				Message:   fiberErr.Message,
				ErrorCode: "HTTP_ERROR",
			})
		}

		// Handle unknown errors
		log.Error("Unknown error occurred",
			zap.String("path", c.Path()),
			zap.Error(err),
		)

		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Timestamp: time.Now().UTC(),
			Message:   "Internal server error",
			ErrorCode: string(domain.CodeInternal),
		})
	}
}

// mapDomainErrorToHTTPStatus maps domain errors to HTTP status codes
func mapDomainErrorToHTTPStatus(err *domain.DomainError) int {
	switch err.Code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeBadRequest, domain.CodeValidation,
		domain.CodeTokenRevoked, domain.CodeTokenMismatch,
		domain.CodeInvalidQuizAttempt, domain.CodeActiveAttemptExists:
		return http.StatusBadRequest
	case domain.CodeNotAuthenticated, domain.CodeInvalidToken:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
