package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/generation"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
	"github.com/phrazzld/lessonhub-api/internal/ratelimit"
	"github.com/phrazzld/lessonhub-api/internal/store"
)

// Generation kinds and outcomes reported to GenerationMetrics.
const (
	KindLesson       = "lesson"
	KindPresentation = "presentation"

	outcomeSuccess     = "success"
	outcomeRateLimited = "rate_limited"
	outcomeFailed      = "failed"
)

// RateLimiter gates generation requests.
type RateLimiter interface {
	Allow(ctx context.Context, subject string, action ratelimit.Action) error
}

// GenerationMetrics observes generation outcomes.
type GenerationMetrics interface {
	ObserveGeneration(kind, outcome string)
}

type nopGenerationMetrics struct{}

func (nopGenerationMetrics) ObserveGeneration(string, string) {}

// LessonGenerationInput tunes one lesson draft.
type LessonGenerationInput struct {
	// Instructions are optional author notes passed to the model.
	Instructions string
	// Save writes the draft into the lesson content.
	Save bool
}

// GenerationService drafts course material for course creators.
type GenerationService interface {
	// GenerateLessonContent drafts the body of a lesson. Limited per user by
	// the lesson-generation window.
	GenerateLessonContent(
		ctx context.Context,
		editor domain.Identity,
		lessonID uuid.UUID,
		input LessonGenerationInput,
	) (*generation.LessonContent, error)

	// GeneratePresentation drafts a slide deck for a course. Limited per
	// user by the presentation-generation window.
	GeneratePresentation(
		ctx context.Context,
		editor domain.Identity,
		courseID uuid.UUID,
		audience string,
	) (*generation.Presentation, error)
}

type generationServiceImpl struct {
	courses     store.CourseStore
	lessons     store.LessonStore
	limiter     RateLimiter
	generator   generation.Generator
	invalidator LessonInvalidator
	metrics     GenerationMetrics
	logger      *slog.Logger
}

var _ GenerationService = (*generationServiceImpl)(nil)

// NewGenerationService creates a GenerationService. A nil metrics disables
// instrumentation.
func NewGenerationService(
	courses store.CourseStore,
	lessons store.LessonStore,
	limiter RateLimiter,
	generator generation.Generator,
	invalidator LessonInvalidator,
	metrics GenerationMetrics,
	logger *slog.Logger,
) (GenerationService, error) {
	switch {
	case courses == nil:
		return nil, &ServiceError{Service: "generation", Operation: "create_service", Message: "courses cannot be nil"}
	case lessons == nil:
		return nil, &ServiceError{Service: "generation", Operation: "create_service", Message: "lessons cannot be nil"}
	case limiter == nil:
		return nil, &ServiceError{Service: "generation", Operation: "create_service", Message: "limiter cannot be nil"}
	case generator == nil:
		return nil, &ServiceError{Service: "generation", Operation: "create_service", Message: "generator cannot be nil"}
	case invalidator == nil:
		return nil, &ServiceError{Service: "generation", Operation: "create_service", Message: "invalidator cannot be nil"}
	}
	if metrics == nil {
		metrics = nopGenerationMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &generationServiceImpl{
		courses:     courses,
		lessons:     lessons,
		limiter:     limiter,
		generator:   generator,
		invalidator: invalidator,
		metrics:     metrics,
		logger:      logger.With(slog.String("component", "generation_service")),
	}, nil
}

// GenerateLessonContent checks ownership, then the rate limit, then calls
// the model. A denied request never reaches the generator.
func (s *generationServiceImpl) GenerateLessonContent(
	ctx context.Context,
	editor domain.Identity,
	lessonID uuid.UUID,
	input LessonGenerationInput,
) (*generation.LessonContent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, newServiceError("generation", "generate_lesson", "failed to load lesson", err)
	}
	course, err := s.courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, newServiceError("generation", "generate_lesson", "failed to load course", err)
	}
	if !course.OwnedBy(editor.UserID) {
		return nil, ErrNotOwned
	}

	if err := s.limiter.Allow(ctx, editor.UserID.String(), ratelimit.ActionLessonGeneration); err != nil {
		s.observe(KindLesson, err)
		return nil, newServiceError("generation", "generate_lesson", "rate limit check failed", err)
	}

	content, err := s.generator.GenerateLessonContent(ctx, generation.LessonRequest{
		CourseName:   course.Name,
		LessonName:   lesson.Name,
		Instructions: input.Instructions,
	})
	s.observe(KindLesson, err)
	if err != nil {
		log.Warn("lesson generation failed",
			slog.String("lesson_id", lessonID.String()),
			slog.String("error", err.Error()))
		return nil, newServiceError("generation", "generate_lesson", "generation failed", err)
	}

	if input.Save {
		lesson.Apply(domain.LessonFields{Content: &content.Content})
		if err := s.lessons.Update(ctx, lesson); err != nil {
			return nil, newServiceError("generation", "generate_lesson", "failed to save lesson", err)
		}
		s.invalidator.LessonChanged(ctx, lesson.CourseID)
	}

	log.Info("lesson content generated",
		slog.String("lesson_id", lessonID.String()),
		slog.Bool("saved", input.Save))
	return content, nil
}

// GeneratePresentation summarises every lesson of the course, hidden ones
// included, because only the creator may call it.
func (s *generationServiceImpl) GeneratePresentation(
	ctx context.Context,
	editor domain.Identity,
	courseID uuid.UUID,
	audience string,
) (*generation.Presentation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, newServiceError("generation", "generate_presentation", "failed to load course", err)
	}
	if !course.OwnedBy(editor.UserID) {
		return nil, ErrNotOwned
	}

	if err := s.limiter.Allow(ctx, editor.UserID.String(), ratelimit.ActionPresentationGeneration); err != nil {
		s.observe(KindPresentation, err)
		return nil, newServiceError("generation", "generate_presentation", "rate limit check failed", err)
	}

	lessons, _, err := s.lessons.ListByCourse(ctx, courseID, store.LessonFilter{},
		domain.PageRequest{Page: 1, Limit: domain.MaxPageLimit})
	if err != nil {
		return nil, newServiceError("generation", "generate_presentation", "failed to list lessons", err)
	}
	names := make([]string, 0, len(lessons))
	for _, l := range lessons {
		names = append(names, l.Name)
	}

	deck, err := s.generator.GeneratePresentation(ctx, generation.PresentationRequest{
		CourseName:  course.Name,
		LessonNames: names,
		Audience:    audience,
	})
	s.observe(KindPresentation, err)
	if err != nil {
		log.Warn("presentation generation failed",
			slog.String("course_id", courseID.String()),
			slog.String("error", err.Error()))
		return nil, newServiceError("generation", "generate_presentation", "generation failed", err)
	}

	log.Info("presentation generated",
		slog.String("course_id", courseID.String()),
		slog.Int("slides", len(deck.Slides)))
	return deck, nil
}

func (s *generationServiceImpl) observe(kind string, err error) {
	switch {
	case err == nil:
		s.metrics.ObserveGeneration(kind, outcomeSuccess)
	case errors.Is(err, ratelimit.ErrRateLimited):
		s.metrics.ObserveGeneration(kind, outcomeRateLimited)
	default:
		s.metrics.ObserveGeneration(kind, outcomeFailed)
	}
}
