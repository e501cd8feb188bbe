package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/cache"
	"github.com/phrazzld/lessonhub-api/internal/cachekey"
	"github.com/phrazzld/lessonhub-api/internal/config"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
	"github.com/phrazzld/lessonhub-api/internal/store"
)

// Lesson listing audiences. The audience is part of the cache key because
// creators and learners see different subsets of the same course.
const (
	audienceCreator = "creator"
	audienceLearner = "learner"
)

// learnerStatuses are the lesson states visible outside the course creator.
var learnerStatuses = []domain.LessonStatus{domain.LessonStatusPublic, domain.LessonStatusPublished}

// LessonInvalidator is the subset of cache.Invalidator lesson writes trigger.
type LessonInvalidator interface {
	LessonChanged(ctx context.Context, courseID uuid.UUID)
}

// LessonService provides lesson reads, creator writes and progress views.
type LessonService interface {
	// ListLessons returns one page of a course's lessons ordered by rank.
	// Hidden lessons are only listed for the course creator and admins.
	ListLessons(
		ctx context.Context,
		viewer domain.Identity,
		courseID uuid.UUID,
		page domain.PageRequest,
	) (*domain.Page[*domain.Lesson], error)

	// CreateLesson appends a lesson to a course the caller created.
	CreateLesson(
		ctx context.Context,
		editor domain.Identity,
		courseID uuid.UUID,
		fields domain.LessonFields,
	) (*domain.Lesson, error)

	// UpdateLesson applies fields to a lesson of a course the caller created.
	UpdateLesson(
		ctx context.Context,
		editor domain.Identity,
		lessonID uuid.UUID,
		fields domain.LessonFields,
	) (*domain.Lesson, error)

	// GetCourseProgress returns the caller's progress rows for a course.
	GetCourseProgress(ctx context.Context, viewer domain.Identity, courseID uuid.UUID) ([]*domain.LessonProgress, error)
}

type lessonServiceImpl struct {
	courses     store.CourseStore
	lessons     store.LessonStore
	progress    store.ProgressStore
	cache       *cache.ReadThrough
	invalidator LessonInvalidator
	ttls        config.CacheConfig
	logger      *slog.Logger
}

var _ LessonService = (*lessonServiceImpl)(nil)

// NewLessonService creates a LessonService. A nil cache disables caching.
func NewLessonService(
	courses store.CourseStore,
	lessons store.LessonStore,
	progress store.ProgressStore,
	readThrough *cache.ReadThrough,
	invalidator LessonInvalidator,
	ttls config.CacheConfig,
	logger *slog.Logger,
) (LessonService, error) {
	if courses == nil {
		return nil, &ServiceError{Service: "lesson", Operation: "create_service", Message: "courses cannot be nil"}
	}
	if lessons == nil {
		return nil, &ServiceError{Service: "lesson", Operation: "create_service", Message: "lessons cannot be nil"}
	}
	if progress == nil {
		return nil, &ServiceError{Service: "lesson", Operation: "create_service", Message: "progress cannot be nil"}
	}
	if invalidator == nil {
		return nil, &ServiceError{Service: "lesson", Operation: "create_service", Message: "invalidator cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &lessonServiceImpl{
		courses:     courses,
		lessons:     lessons,
		progress:    progress,
		cache:       readThrough,
		invalidator: invalidator,
		ttls:        ttls,
		logger:      logger.With(slog.String("component", "lesson_service")),
	}, nil
}

func (s *lessonServiceImpl) ListLessons(
	ctx context.Context,
	viewer domain.Identity,
	courseID uuid.UUID,
	page domain.PageRequest,
) (*domain.Page[*domain.Lesson], error) {
	page, err := page.Normalize()
	if err != nil {
		return nil, err
	}
	course, err := s.visibleCourse(ctx, viewer, courseID)
	if err != nil {
		return nil, newServiceError("lesson", "list_lessons", "failed to load course", err)
	}

	audience := audienceLearner
	filter := store.LessonFilter{Statuses: learnerStatuses}
	if course.OwnedBy(viewer.UserID) || viewer.IsAdmin() {
		audience = audienceCreator
		filter = store.LessonFilter{}
	}

	params := pageParams(page)
	params["audience"] = audience
	key := cachekey.MustGenerateKey(cachekey.Lessons(courseID), params)

	result, err := cache.WithCache(ctx, s.cache, key, s.ttls.LessonListTTL(),
		func(ctx context.Context) (domain.Page[*domain.Lesson], error) {
			items, total, err := s.lessons.ListByCourse(ctx, courseID, filter, page)
			if err != nil {
				return domain.Page[*domain.Lesson]{}, err
			}
			return newPage(items, page, total), nil
		})
	if err != nil {
		return nil, newServiceError("lesson", "list_lessons", "failed to list lessons", err)
	}
	return &result, nil
}

func (s *lessonServiceImpl) CreateLesson(
	ctx context.Context,
	editor domain.Identity,
	courseID uuid.UUID,
	fields domain.LessonFields,
) (*domain.Lesson, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.ownedCourse(ctx, editor, courseID); err != nil {
		return nil, newServiceError("lesson", "create_lesson", "failed to load course", err)
	}

	lesson, err := domain.NewLesson(courseID, fields)
	if err != nil {
		return nil, err
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		log.Error("failed to create lesson",
			slog.String("error", err.Error()),
			slog.String("course_id", courseID.String()))
		return nil, newServiceError("lesson", "create_lesson", "failed to save lesson", err)
	}

	s.invalidator.LessonChanged(ctx, courseID)
	log.Info("lesson created",
		slog.String("lesson_id", lesson.ID.String()),
		slog.String("course_id", courseID.String()),
		slog.Int("rank", lesson.Rank))
	return lesson, nil
}

func (s *lessonServiceImpl) UpdateLesson(
	ctx context.Context,
	editor domain.Identity,
	lessonID uuid.UUID,
	fields domain.LessonFields,
) (*domain.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, newServiceError("lesson", "update_lesson", "failed to load lesson", err)
	}
	if _, err := s.ownedCourse(ctx, editor, lesson.CourseID); err != nil {
		return nil, newServiceError("lesson", "update_lesson", "failed to load course", err)
	}

	lesson.Apply(fields)
	if err := lesson.Validate(); err != nil {
		return nil, err
	}
	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, newServiceError("lesson", "update_lesson", "failed to save lesson", err)
	}

	s.invalidator.LessonChanged(ctx, lesson.CourseID)
	logger.FromContextOrDefault(ctx, s.logger).Info("lesson updated",
		slog.String("lesson_id", lesson.ID.String()))
	return lesson, nil
}

func (s *lessonServiceImpl) GetCourseProgress(
	ctx context.Context,
	viewer domain.Identity,
	courseID uuid.UUID,
) ([]*domain.LessonProgress, error) {
	if _, err := s.visibleCourse(ctx, viewer, courseID); err != nil {
		return nil, newServiceError("lesson", "get_course_progress", "failed to load course", err)
	}

	key := cachekey.ProgressKey(courseID, viewer.UserID)
	rows, err := cache.WithCache(ctx, s.cache, key, s.ttls.ProgressTTL(),
		func(ctx context.Context) ([]*domain.LessonProgress, error) {
			rows, err := s.progress.ListByCourse(ctx, viewer.UserID, courseID)
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = []*domain.LessonProgress{}
			}
			return rows, nil
		})
	if err != nil {
		return nil, newServiceError("lesson", "get_course_progress", "failed to load progress", err)
	}
	return rows, nil
}

// visibleCourse loads a course, hiding drafts from everyone but the creator
// and admins.
func (s *lessonServiceImpl) visibleCourse(
	ctx context.Context,
	viewer domain.Identity,
	courseID uuid.UUID,
) (*domain.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.VisibleTo(viewer) {
		return nil, store.ErrCourseNotFound
	}
	return course, nil
}

// ownedCourse loads a course the editor created.
func (s *lessonServiceImpl) ownedCourse(
	ctx context.Context,
	editor domain.Identity,
	courseID uuid.UUID,
) (*domain.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.OwnedBy(editor.UserID) {
		return nil, ErrNotOwned
	}
	return course, nil
}
