package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/enrollment"
	"github.com/phrazzld/lessonhub-api/internal/generation"
	"github.com/phrazzld/lessonhub-api/internal/ratelimit"
	"github.com/phrazzld/lessonhub-api/internal/store"
)

// Common service errors. Callers use errors.Is; the API layer maps them to
// status codes.
var (
	// ErrNotOwned indicates the caller is not the creator of the course.
	// It matches domain.ErrUnauthorized.
	ErrNotOwned = fmt.Errorf("%w: resource is owned by another user", domain.ErrUnauthorized)

	// ErrAdminOnly indicates an admin-scoped operation was attempted by a
	// non-admin. It matches domain.ErrUnauthorized.
	ErrAdminOnly = fmt.Errorf("%w: admin role required", domain.ErrUnauthorized)

	// ErrInvalidScope indicates an unknown course listing scope.
	ErrInvalidScope = domain.NewValidationError("scope", "must be public, created, enrolled or admin", domain.ErrValidation)
)

// ServiceError wraps unexpected failures with the operation that hit them.
type ServiceError struct {
	// Service is the service that failed (e.g., "course", "lesson")
	Service string
	// Operation is the operation that failed (e.g., "create_course")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// expected are the failures callers branch on. They pass through unwrapped.
var expected = []error{
	store.ErrNotFound,
	store.ErrDuplicate,
	domain.ErrValidation,
	domain.ErrUnauthorized,
	domain.ErrInvalidTransition,
	enrollment.ErrAlreadyEnrolled,
	enrollment.ErrNotEnrolled,
	ratelimit.ErrRateLimited,
	generation.ErrUnavailable,
	generation.ErrContentBlocked,
}

// newServiceError returns known sentinel errors unchanged and wraps
// everything else.
func newServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}
	for _, target := range expected {
		if errors.Is(err, target) {
			return err
		}
	}
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
