package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/generation"
	"github.com/phrazzld/lessonhub-api/internal/mocks"
	"github.com/phrazzld/lessonhub-api/internal/ratelimit"
	"github.com/phrazzld/lessonhub-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generationFixture struct {
	*fixture
	generator *mocks.Generator
	windows   *mocks.WindowStore
	metrics   *recordingGenerationMetrics
	svc       service.GenerationService
	course    *domain.Course
	lesson    *domain.Lesson
}

func newGenerationFixture(t *testing.T) *generationFixture {
	t.Helper()
	f := &generationFixture{
		fixture:   newFixture(t),
		generator: &mocks.Generator{},
		windows:   mocks.NewWindowStore(),
		metrics:   &recordingGenerationMetrics{},
	}
	limiter, err := ratelimit.NewLimiter(f.windows, map[ratelimit.Action]ratelimit.Policy{
		ratelimit.ActionLessonGeneration:       {Limit: 5, Window: time.Hour},
		ratelimit.ActionPresentationGeneration: {Limit: 10, Window: time.Hour},
	}, nil)
	require.NoError(t, err)

	f.svc, err = service.NewGenerationService(f.courses, f.lessons, limiter, f.generator, f.invalidator, f.metrics, nil)
	require.NoError(t, err)

	f.course = f.createCourse(t, f.creator, "Operating Systems", domain.CourseStatusPublished)
	f.lesson = f.createLesson(t, f.course.ID, "Scheduling", domain.LessonStatusPublished)
	f.createLesson(t, f.course.ID, "Paging", domain.LessonStatusHidden)
	return f
}

func TestGenerateLessonContent_SixthCallIsRateLimited(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		content, err := f.svc.GenerateLessonContent(ctx, f.creator, f.lesson.ID, service.LessonGenerationInput{})
		require.NoError(t, err, "call %d", i+1)
		assert.Equal(t, "# Scheduling", content.Content)
	}

	_, err := f.svc.GenerateLessonContent(ctx, f.creator, f.lesson.ID, service.LessonGenerationInput{})

	require.ErrorIs(t, err, ratelimit.ErrRateLimited)
	var limitErr *ratelimit.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Positive(t, limitErr.RetryAfter)
	lessons, _ := f.generator.Calls()
	assert.Equal(t, 5, lessons, "denied request must not reach the generator")
	assert.Equal(t, 5, f.metrics.count("lesson/success"))
	assert.Equal(t, 1, f.metrics.count("lesson/rate_limited"))

	// Presentation generation has its own window.
	_, err = f.svc.GeneratePresentation(ctx, f.creator, f.course.ID, "beginners")
	assert.NoError(t, err)
}

func TestGenerateLessonContent_NonOwnerIsRejectedBeforeCounting(t *testing.T) {
	f := newGenerationFixture(t)

	_, err := f.svc.GenerateLessonContent(context.Background(), f.learner, f.lesson.ID, service.LessonGenerationInput{})

	assert.ErrorIs(t, err, service.ErrNotOwned)
	assert.Equal(t, 0, f.windows.Calls)
	lessons, _ := f.generator.Calls()
	assert.Zero(t, lessons)
}

func TestGenerateLessonContent_SaveUpdatesLesson(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()
	f.generator.GenerateLessonContentFn = func(ctx context.Context, req generation.LessonRequest) (*generation.LessonContent, error) {
		assert.Equal(t, "Operating Systems", req.CourseName)
		assert.Equal(t, "focus on fairness", req.Instructions)
		return &generation.LessonContent{Content: "Round robin"}, nil
	}

	_, err := f.lessonSvc.ListLessons(ctx, f.creator, f.course.ID, domain.PageRequest{})
	require.NoError(t, err)

	_, err = f.svc.GenerateLessonContent(ctx, f.creator, f.lesson.ID, service.LessonGenerationInput{
		Instructions: "focus on fairness",
		Save:         true,
	})
	require.NoError(t, err)

	page, err := f.lessonSvc.ListLessons(ctx, f.creator, f.course.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Round robin", page.Items[0].Content)
}

func TestGenerateLessonContent_GeneratorFailure(t *testing.T) {
	f := newGenerationFixture(t)
	f.generator.GenerateLessonContentFn = func(context.Context, generation.LessonRequest) (*generation.LessonContent, error) {
		return nil, generation.ErrUnavailable
	}

	_, err := f.svc.GenerateLessonContent(context.Background(), f.creator, f.lesson.ID, service.LessonGenerationInput{})

	assert.ErrorIs(t, err, generation.ErrUnavailable)
	assert.Equal(t, 1, f.metrics.count("lesson/failed"))
}

func TestGenerateLessonContent_LimiterOutageAdmits(t *testing.T) {
	f := newGenerationFixture(t)
	f.windows.Err = errors.New("redis: connection refused")

	for i := 0; i < 7; i++ {
		_, err := f.svc.GenerateLessonContent(context.Background(), f.creator, f.lesson.ID, service.LessonGenerationInput{})
		require.NoError(t, err)
	}
}

func TestGeneratePresentation_IncludesEveryLesson(t *testing.T) {
	f := newGenerationFixture(t)

	deck, err := f.svc.GeneratePresentation(context.Background(), f.creator, f.course.ID, "students")

	require.NoError(t, err)
	assert.Equal(t, "Operating Systems", deck.Title)
	require.Len(t, f.generator.PresentationRequests, 1)
	req := f.generator.PresentationRequests[0]
	assert.Equal(t, []string{"Scheduling", "Paging"}, req.LessonNames)
	assert.Equal(t, "students", req.Audience)
	assert.Equal(t, 1, f.metrics.count("presentation/success"))
}

func TestGeneratePresentation_NonOwner(t *testing.T) {
	f := newGenerationFixture(t)

	_, err := f.svc.GeneratePresentation(context.Background(), f.learner, f.course.ID, "")

	assert.ErrorIs(t, err, service.ErrNotOwned)
	_, presentations := f.generator.Calls()
	assert.Zero(t, presentations)
}
