package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/domain"
)

// LessonFilter narrows a lesson listing.
type LessonFilter struct {
	// Statuses restricts the listing; empty means every status.
	Statuses []domain.LessonStatus
}

// LessonStore defines the interface for lesson persistence.
type LessonStore interface {
	// Create saves a new lesson and assigns it the next rank in its course.
	// Returns ErrCourseNotFound if the owning course does not exist.
	Create(ctx context.Context, lesson *domain.Lesson) error

	// GetByID retrieves a lesson by its unique ID.
	// Returns ErrLessonNotFound if the lesson does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error)

	// Update saves changes to an existing lesson. Rank and course are immutable.
	// Returns ErrLessonNotFound if the lesson does not exist.
	Update(ctx context.Context, lesson *domain.Lesson) error

	// ListByCourse returns one page of a course's lessons ordered by rank,
	// together with the total number of matches.
	ListByCourse(
		ctx context.Context,
		courseID uuid.UUID,
		filter LessonFilter,
		page domain.PageRequest,
	) ([]*domain.Lesson, int, error)
}
