package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
	"github.com/phrazzld/lessonhub-api/internal/store"
)

// Invalidator is the subset of cache.Invalidator the ledger triggers.
type Invalidator interface {
	EnrollmentChanged(ctx context.Context, userID, courseID uuid.UUID)
	ProgressChanged(ctx context.Context, userID, courseID uuid.UUID)
}

// CourseTransition is the result of a course join or leave. It carries the
// course name so callers can confirm without another read.
type CourseTransition struct {
	UserID     uuid.UUID `json:"user_id"`
	CourseID   uuid.UUID `json:"course_id"`
	CourseName string    `json:"course_name"`
	Enrolled   bool      `json:"enrolled"`
	Message    string    `json:"message"`
}

// LessonTransition is the result of a lesson join, leave, or completion.
type LessonTransition struct {
	UserID     uuid.UUID            `json:"user_id"`
	LessonID   uuid.UUID            `json:"lesson_id"`
	CourseID   uuid.UUID            `json:"course_id"`
	LessonName string               `json:"lesson_name"`
	State      domain.ProgressState `json:"state"`
	Message    string               `json:"message"`
}

// Ledger applies membership and progress transitions.
type Ledger struct {
	courses     store.CourseStore
	lessons     store.LessonStore
	memberships store.MembershipStore
	progress    store.ProgressStore
	invalidator Invalidator
	now         func() time.Time
	logger      *slog.Logger
}

// NewLedger creates a Ledger. It returns an error if any dependency is nil.
func NewLedger(
	courses store.CourseStore,
	lessons store.LessonStore,
	memberships store.MembershipStore,
	progress store.ProgressStore,
	invalidator Invalidator,
	logger *slog.Logger,
) (*Ledger, error) {
	switch {
	case courses == nil:
		return nil, domain.NewValidationError("courses", "cannot be nil", domain.ErrValidation)
	case lessons == nil:
		return nil, domain.NewValidationError("lessons", "cannot be nil", domain.ErrValidation)
	case memberships == nil:
		return nil, domain.NewValidationError("memberships", "cannot be nil", domain.ErrValidation)
	case progress == nil:
		return nil, domain.NewValidationError("progress", "cannot be nil", domain.ErrValidation)
	case invalidator == nil:
		return nil, domain.NewValidationError("invalidator", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		courses:     courses,
		lessons:     lessons,
		memberships: memberships,
		progress:    progress,
		invalidator: invalidator,
		now:         time.Now,
		logger:      logger.With(slog.String("component", "enrollment_ledger")),
	}, nil
}

// JoinCourse moves (viewer, courseID) from NotEnrolled to Enrolled. A
// course the viewer may not see is reported as store.ErrCourseNotFound.
func (l *Ledger) JoinCourse(ctx context.Context, viewer domain.Identity, courseID uuid.UUID) (*CourseTransition, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)
	userID := viewer.UserID

	course, err := l.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("join course: %w", err)
	}
	if !course.VisibleTo(viewer) {
		return nil, fmt.Errorf("join course: %w", store.ErrCourseNotFound)
	}

	membership := &domain.CourseMembership{UserID: userID, CourseID: courseID, CreatedAt: l.now().UTC()}
	if err := l.memberships.Create(ctx, membership); err != nil {
		if store.IsDuplicateError(err) {
			log.Debug("duplicate course join rejected",
				slog.String("user_id", userID.String()),
				slog.String("course_id", courseID.String()))
			return nil, fmt.Errorf("%w: course %s", ErrAlreadyEnrolled, courseID)
		}
		return nil, fmt.Errorf("join course: %w", err)
	}

	l.invalidator.EnrollmentChanged(ctx, userID, courseID)

	log.Info("user joined course",
		slog.String("user_id", userID.String()),
		slog.String("course_id", courseID.String()))
	return &CourseTransition{
		UserID:     userID,
		CourseID:   courseID,
		CourseName: course.Name,
		Enrolled:   true,
		Message:    fmt.Sprintf("You joined %q.", course.Name),
	}, nil
}

// LeaveCourse moves (userID, courseID) from Enrolled to NotEnrolled. Lesson
// progress in the course is kept.
func (l *Ledger) LeaveCourse(ctx context.Context, userID, courseID uuid.UUID) (*CourseTransition, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	course, err := l.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("leave course: %w", err)
	}

	if err := l.memberships.Delete(ctx, userID, courseID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: course %s", ErrNotEnrolled, courseID)
		}
		return nil, fmt.Errorf("leave course: %w", err)
	}

	l.invalidator.EnrollmentChanged(ctx, userID, courseID)

	log.Info("user left course",
		slog.String("user_id", userID.String()),
		slog.String("course_id", courseID.String()))
	return &CourseTransition{
		UserID:     userID,
		CourseID:   courseID,
		CourseName: course.Name,
		Enrolled:   false,
		Message:    fmt.Sprintf("You left %q.", course.Name),
	}, nil
}

// JoinLesson creates the viewer's progress row in InProgress. Lessons the
// viewer may not see are reported as store.ErrLessonNotFound. Membership of
// the owning course is not checked here; callers that require it must
// enforce it themselves.
func (l *Ledger) JoinLesson(ctx context.Context, viewer domain.Identity, lessonID uuid.UUID) (*LessonTransition, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)
	userID := viewer.UserID

	lesson, err := l.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("join lesson: %w", err)
	}
	course, err := l.courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, fmt.Errorf("join lesson: %w", err)
	}
	if !lesson.VisibleTo(viewer, course) {
		return nil, fmt.Errorf("join lesson: %w", store.ErrLessonNotFound)
	}

	progress := domain.NewLessonProgress(userID, lessonID)
	if err := l.progress.Create(ctx, progress); err != nil {
		if store.IsDuplicateError(err) {
			return nil, fmt.Errorf("%w: lesson %s", ErrAlreadyEnrolled, lessonID)
		}
		return nil, fmt.Errorf("join lesson: %w", err)
	}

	l.invalidator.ProgressChanged(ctx, userID, lesson.CourseID)

	log.Info("user joined lesson",
		slog.String("user_id", userID.String()),
		slog.String("lesson_id", lessonID.String()))
	return l.lessonTransition(userID, lesson, progress.State, "You started %q."), nil
}

// LeaveLesson deletes the user's progress row, returning the lesson to
// NotStarted from any state.
func (l *Ledger) LeaveLesson(ctx context.Context, userID, lessonID uuid.UUID) (*LessonTransition, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	lesson, err := l.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("leave lesson: %w", err)
	}

	if err := l.progress.Delete(ctx, userID, lessonID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: lesson %s", ErrNotEnrolled, lessonID)
		}
		return nil, fmt.Errorf("leave lesson: %w", err)
	}

	l.invalidator.ProgressChanged(ctx, userID, lesson.CourseID)

	log.Info("user left lesson",
		slog.String("user_id", userID.String()),
		slog.String("lesson_id", lessonID.String()))
	return l.lessonTransition(userID, lesson, domain.ProgressNotStarted, "You left %q."), nil
}

// CompleteLesson moves the user's progress from InProgress to Completed.
func (l *Ledger) CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*LessonTransition, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	lesson, err := l.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("complete lesson: %w", err)
	}

	current, err := l.progress.Get(ctx, userID, lessonID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: lesson %s", ErrNotEnrolled, lessonID)
		}
		return nil, fmt.Errorf("complete lesson: %w", err)
	}
	if !current.State.CanTransitionTo(domain.ProgressCompleted) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, current.State, domain.ProgressCompleted)
	}

	err = l.progress.UpdateState(ctx, userID, lessonID, current.State, domain.ProgressCompleted)
	if err != nil {
		if store.IsNotFoundError(err) {
			// The row was deleted or advanced between the read and the update.
			return nil, fmt.Errorf("%w: progress changed concurrently", domain.ErrInvalidTransition)
		}
		return nil, fmt.Errorf("complete lesson: %w", err)
	}

	l.invalidator.ProgressChanged(ctx, userID, lesson.CourseID)

	log.Info("user completed lesson",
		slog.String("user_id", userID.String()),
		slog.String("lesson_id", lessonID.String()))
	return l.lessonTransition(userID, lesson, domain.ProgressCompleted, "You completed %q."), nil
}

func (l *Ledger) lessonTransition(
	userID uuid.UUID,
	lesson *domain.Lesson,
	state domain.ProgressState,
	format string,
) *LessonTransition {
	return &LessonTransition{
		UserID:     userID,
		LessonID:   lesson.ID,
		CourseID:   lesson.CourseID,
		LessonName: lesson.Name,
		State:      state,
		Message:    fmt.Sprintf(format, lesson.Name),
	}
}
