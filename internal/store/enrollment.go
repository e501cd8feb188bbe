package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/domain"
)

// MembershipStore persists course memberships. Implementations must back
// Create with a uniqueness constraint on (user_id, course_id).
type MembershipStore interface {
	// Create inserts a membership.
	// Returns ErrMembershipExists if the pair already exists and
	// ErrCourseNotFound if the course does not exist.
	Create(ctx context.Context, membership *domain.CourseMembership) error

	// Delete removes a membership.
	// Returns ErrMembershipNotFound if no row was deleted.
	Delete(ctx context.Context, userID, courseID uuid.UUID) error

	// CountByCourse returns the number of members of a course.
	CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error)
}

// ProgressStore persists lesson progress. Implementations must back Create
// with a uniqueness constraint on (user_id, lesson_id).
type ProgressStore interface {
	// Create inserts a progress row.
	// Returns ErrProgressExists if the pair already exists and
	// ErrLessonNotFound if the lesson does not exist.
	Create(ctx context.Context, progress *domain.LessonProgress) error

	// Get retrieves a progress row.
	// Returns ErrProgressNotFound if the user has not joined the lesson.
	Get(ctx context.Context, userID, lessonID uuid.UUID) (*domain.LessonProgress, error)

	// UpdateState moves the row from one state to another. The update only
	// applies when the stored state still equals from.
	// Returns ErrProgressNotFound if no matching row was updated.
	UpdateState(ctx context.Context, userID, lessonID uuid.UUID, from, to domain.ProgressState) error

	// Delete removes a progress row.
	// Returns ErrProgressNotFound if no row was deleted.
	Delete(ctx context.Context, userID, lessonID uuid.UUID) error

	// ListByCourse returns the user's progress rows for lessons of a course,
	// ordered by lesson rank.
	ListByCourse(ctx context.Context, userID, courseID uuid.UUID) ([]*domain.LessonProgress, error)
}
