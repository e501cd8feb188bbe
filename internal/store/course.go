package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/domain"
)

// CourseFilter narrows a course listing. Zero values do not filter.
type CourseFilter struct {
	// Status restricts the listing to one publication state.
	Status domain.CourseStatus
	// CreatorID restricts the listing to courses created by this user.
	CreatorID uuid.UUID
	// MemberID restricts the listing to courses this user has joined.
	MemberID uuid.UUID
}

// CourseStore defines the interface for course persistence.
type CourseStore interface {
	// Create saves a new course.
	Create(ctx context.Context, course *domain.Course) error

	// GetByID retrieves a course by its unique ID.
	// Returns ErrCourseNotFound if the course does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)

	// Update saves changes to an existing course.
	// Returns ErrCourseNotFound if the course does not exist.
	Update(ctx context.Context, course *domain.Course) error

	// List returns one page of courses matching filter, ordered by creation
	// time (newest first), together with the total number of matches.
	// page.Search matches the course name case-insensitively.
	List(ctx context.Context, filter CourseFilter, page domain.PageRequest) ([]*domain.Course, int, error)
}
