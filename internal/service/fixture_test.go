package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/cache"
	"github.com/phrazzld/lessonhub-api/internal/config"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/enrollment"
	"github.com/phrazzld/lessonhub-api/internal/mocks"
	"github.com/phrazzld/lessonhub-api/internal/service"
	"github.com/stretchr/testify/require"
)

var testTTLs = config.CacheConfig{
	CourseDetailTTLSeconds: 300,
	CourseListTTLSeconds:   60,
	LessonListTTLSeconds:   60,
	ProgressTTLSeconds:     120,
}

type fixture struct {
	db          *mocks.Database
	courses     *mocks.CourseStore
	lessons     *mocks.LessonStore
	memberships *mocks.MembershipStore
	progress    *mocks.ProgressStore
	cacheStore  *mocks.CacheStore
	invalidator *cache.Invalidator
	ledger      *enrollment.Ledger

	courseSvc service.CourseService
	lessonSvc service.LessonService

	creator domain.Identity
	learner domain.Identity
	admin   domain.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:         mocks.NewDatabase(),
		cacheStore: mocks.NewCacheStore(),
		creator:    domain.Identity{UserID: uuid.New(), Role: domain.RoleUser},
		learner:    domain.Identity{UserID: uuid.New(), Role: domain.RoleUser},
		admin:      domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin},
	}
	f.courses = mocks.NewCourseStore(f.db)
	f.lessons = mocks.NewLessonStore(f.db)
	f.memberships = mocks.NewMembershipStore(f.db)
	f.progress = mocks.NewProgressStore(f.db)
	f.invalidator = cache.NewInvalidator(f.cacheStore, nil, nil)
	readThrough := cache.NewReadThrough(f.cacheStore, nil, nil)

	var err error
	f.ledger, err = enrollment.NewLedger(f.courses, f.lessons, f.memberships, f.progress, f.invalidator, nil)
	require.NoError(t, err)
	f.courseSvc, err = service.NewCourseService(f.courses, f.memberships, readThrough, f.invalidator, testTTLs, nil)
	require.NoError(t, err)
	f.lessonSvc, err = service.NewLessonService(f.courses, f.lessons, f.progress, readThrough, f.invalidator, testTTLs, nil)
	require.NoError(t, err)
	return f
}

func (f *fixture) createCourse(t *testing.T, owner domain.Identity, name string, status domain.CourseStatus) *domain.Course {
	t.Helper()
	course, err := f.courseSvc.CreateCourse(context.Background(), owner, domain.CourseFields{
		Name:   &name,
		Status: &status,
	})
	require.NoError(t, err)
	return course
}

func (f *fixture) createLesson(t *testing.T, courseID uuid.UUID, name string, status domain.LessonStatus) *domain.Lesson {
	t.Helper()
	lesson, err := f.lessonSvc.CreateLesson(context.Background(), f.creator, courseID, domain.LessonFields{
		Name:   &name,
		Status: &status,
	})
	require.NoError(t, err)
	return lesson
}

type recordingGenerationMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *recordingGenerationMetrics) ObserveGeneration(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[kind+"/"+outcome]++
}

func (m *recordingGenerationMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func ptr[T any](v T) *T { return &v }
