package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/lessonhub-api/internal/api/shared"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/enrollment"
	"github.com/phrazzld/lessonhub-api/internal/generation"
	"github.com/phrazzld/lessonhub-api/internal/ratelimit"
	"github.com/phrazzld/lessonhub-api/internal/service"
	"github.com/phrazzld/lessonhub-api/internal/service/auth"
	"github.com/phrazzld/lessonhub-api/internal/store"
)

// ErrUnauthenticated is reported when a handler runs without an identity
// in the request context.
var ErrUnauthenticated = errors.New("request is not authenticated")

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Membership and progress conflicts
	case errors.Is(err, enrollment.ErrAlreadyEnrolled),
		errors.Is(err, enrollment.ErrNotEnrolled),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Generation upstream failures
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generation.ErrUnavailable),
		errors.Is(err, generation.ErrTransientFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrInvalidResponse):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, auth.ErrMissingToken):
		return "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, service.ErrAdminOnly):
		return "Admin role required"
	case errors.Is(err, service.ErrNotOwned):
		return "Only the course creator can do this"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Operation not permitted"

	case errors.Is(err, store.ErrCourseNotFound):
		return "Course not found"
	case errors.Is(err, store.ErrLessonNotFound):
		return "Lesson not found"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, enrollment.ErrAlreadyEnrolled):
		return "Already enrolled"
	case errors.Is(err, enrollment.ErrNotEnrolled):
		return "Not enrolled"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "Invalid progress transition"
	case errors.Is(err, store.ErrDuplicate):
		return "Already exists"

	case errors.Is(err, ratelimit.ErrRateLimited):
		return "Rate limit exceeded"

	case errors.As(err, &validationErr):
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.Is(err, generation.ErrContentBlocked):
		return "Generated content was blocked by safety filters"
	case errors.Is(err, generation.ErrUnavailable), errors.Is(err, generation.ErrTransientFailure):
		return "Content generation is temporarily unavailable"
	case errors.Is(err, generation.ErrGenerationFailed), errors.Is(err, generation.ErrInvalidResponse):
		return "Content generation failed"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted cause. A non-empty message overrides the safe message. Rate
// limit denials carry a Retry-After header in whole seconds.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}

	var limitErr *ratelimit.LimitExceededError
	if errors.As(err, &limitErr) {
		seconds := int(math.Ceil(limitErr.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError turns validator output into a message naming the
// first failing field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Validation error"
	}
	fe := fieldErrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "url":
		return "must be a URL"
	default:
		return "validation failed"
	}
}
