package enrollment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/cache"
	"github.com/phrazzld/lessonhub-api/internal/cachekey"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/enrollment"
	"github.com/phrazzld/lessonhub-api/internal/mocks"
	"github.com/phrazzld/lessonhub-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db          *mocks.Database
	courses     *mocks.CourseStore
	lessons     *mocks.LessonStore
	memberships *mocks.MembershipStore
	progress    *mocks.ProgressStore
	cacheStore  *mocks.CacheStore
	ledger      *enrollment.Ledger
	course      *domain.Course
	lesson      *domain.Lesson
}

func strPtr(s string) *string { return &s }

// member is a regular user identity.
func member(id uuid.UUID) domain.Identity {
	return domain.Identity{UserID: id, Role: domain.RoleUser}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{db: mocks.NewDatabase(), cacheStore: mocks.NewCacheStore()}
	f.courses = mocks.NewCourseStore(f.db)
	f.lessons = mocks.NewLessonStore(f.db)
	f.memberships = mocks.NewMembershipStore(f.db)
	f.progress = mocks.NewProgressStore(f.db)

	var err error
	published := domain.CourseStatusPublished
	f.course, err = domain.NewCourse(uuid.New(), domain.CourseFields{
		Name:   strPtr("Distributed Systems"),
		Status: &published,
	})
	require.NoError(t, err)
	require.NoError(t, f.courses.Create(ctx, f.course))

	visible := domain.LessonStatusPublished
	f.lesson, err = domain.NewLesson(f.course.ID, domain.LessonFields{Name: strPtr("Clocks"), Status: &visible})
	require.NoError(t, err)
	require.NoError(t, f.lessons.Create(ctx, f.lesson))

	invalidator := cache.NewInvalidator(f.cacheStore, nil, nil)
	f.ledger, err = enrollment.NewLedger(f.courses, f.lessons, f.memberships, f.progress, invalidator, nil)
	require.NoError(t, err)
	return f
}

func (f *fixture) seedCache(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, f.cacheStore.Set(context.Background(), k, []byte(`{}`), time.Hour))
	}
}

func TestJoinCourse_SecondJoinIsAlreadyEnrolled(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	ctx := context.Background()

	tr, err := f.ledger.JoinCourse(ctx, member(user), f.course.ID)
	require.NoError(t, err)
	assert.True(t, tr.Enrolled)
	assert.Equal(t, "Distributed Systems", tr.CourseName)
	assert.Contains(t, tr.Message, "Distributed Systems")

	_, err = f.ledger.JoinCourse(ctx, member(user), f.course.ID)
	assert.ErrorIs(t, err, enrollment.ErrAlreadyEnrolled)
	assert.Equal(t, 1, f.db.MembershipCount(user, f.course.ID))
}

func TestJoinCourse_ConcurrentJoinsCreateOneMembership(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	var wg sync.WaitGroup
	var mu sync.Mutex
	joined, duplicates := 0, 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.JoinCourse(context.Background(), member(user), f.course.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Is(err, enrollment.ErrAlreadyEnrolled):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, joined)
	assert.Equal(t, 15, duplicates)
	assert.Equal(t, 1, f.db.MembershipCount(user, f.course.ID))
}

func TestJoinCourse_InvalidatesDependentEntries(t *testing.T) {
	f := newFixture(t)
	user, other := uuid.New(), uuid.New()
	detail := cachekey.CourseDetail(f.course.ID)
	mine := cachekey.MustGenerateKey(cachekey.EnrolledCourses(user), cachekey.Params{"page": 1})
	theirs := cachekey.MustGenerateKey(cachekey.EnrolledCourses(other), cachekey.Params{"page": 1})
	f.seedCache(t, detail, mine, theirs)

	_, err := f.ledger.JoinCourse(context.Background(), member(user), f.course.ID)
	require.NoError(t, err)

	assert.False(t, f.cacheStore.Has(detail))
	assert.False(t, f.cacheStore.Has(mine))
	assert.True(t, f.cacheStore.Has(theirs))
}

func TestJoinCourse_UnknownCourse(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.JoinCourse(context.Background(), member(uuid.New()), uuid.New())

	assert.ErrorIs(t, err, store.ErrCourseNotFound)
}

func TestJoinCourse_StoreFailureIsNotAConflict(t *testing.T) {
	f := newFixture(t)
	detail := cachekey.CourseDetail(f.course.ID)
	f.seedCache(t, detail)
	f.memberships.Err = errors.New("connection reset")

	_, err := f.ledger.JoinCourse(context.Background(), member(uuid.New()), f.course.ID)

	require.Error(t, err)
	assert.NotErrorIs(t, err, enrollment.ErrAlreadyEnrolled)
	assert.True(t, f.cacheStore.Has(detail), "failed writes must not invalidate")
}

func TestJoinCourse_CacheOutageDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	f.cacheStore.DeleteErr = errors.New("connection refused")
	user := uuid.New()

	_, err := f.ledger.JoinCourse(context.Background(), member(user), f.course.ID)

	require.NoError(t, err)
	assert.Equal(t, 1, f.db.MembershipCount(user, f.course.ID))
}

func TestLeaveCourse(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	ctx := context.Background()

	_, err := f.ledger.LeaveCourse(ctx, user, f.course.ID)
	assert.ErrorIs(t, err, enrollment.ErrNotEnrolled)

	_, err = f.ledger.JoinCourse(ctx, member(user), f.course.ID)
	require.NoError(t, err)
	f.seedCache(t, cachekey.CourseDetail(f.course.ID))

	tr, err := f.ledger.LeaveCourse(ctx, user, f.course.ID)
	require.NoError(t, err)
	assert.False(t, tr.Enrolled)
	assert.Equal(t, 0, f.db.MembershipCount(user, f.course.ID))
	assert.False(t, f.cacheStore.Has(cachekey.CourseDetail(f.course.ID)))

	_, err = f.ledger.JoinCourse(ctx, member(user), f.course.ID)
	assert.NoError(t, err, "a user may rejoin after leaving")
}

func TestLessonLifecycle(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	ctx := context.Background()
	progressKey := cachekey.ProgressKey(f.course.ID, user)

	_, err := f.ledger.CompleteLesson(ctx, user, f.lesson.ID)
	assert.ErrorIs(t, err, enrollment.ErrNotEnrolled)

	f.seedCache(t, progressKey)
	tr, err := f.ledger.JoinLesson(ctx, member(user), f.lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgressInProgress, tr.State)
	assert.Equal(t, "Clocks", tr.LessonName)
	assert.Equal(t, f.course.ID, tr.CourseID)
	assert.False(t, f.cacheStore.Has(progressKey))

	_, err = f.ledger.JoinLesson(ctx, member(user), f.lesson.ID)
	assert.ErrorIs(t, err, enrollment.ErrAlreadyEnrolled)

	tr, err = f.ledger.CompleteLesson(ctx, user, f.lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgressCompleted, tr.State)

	_, err = f.ledger.CompleteLesson(ctx, user, f.lesson.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	tr, err = f.ledger.LeaveLesson(ctx, user, f.lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgressNotStarted, tr.State)

	_, err = f.ledger.LeaveLesson(ctx, user, f.lesson.ID)
	assert.ErrorIs(t, err, enrollment.ErrNotEnrolled)
}

func TestJoinLesson_DoesNotRequireCourseMembership(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	_, err := f.ledger.JoinLesson(context.Background(), member(user), f.lesson.ID)

	require.NoError(t, err)
	assert.Equal(t, 0, f.db.MembershipCount(user, f.course.ID))
}

func TestJoinLesson_UnknownLesson(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.JoinLesson(context.Background(), member(uuid.New()), uuid.New())

	assert.ErrorIs(t, err, store.ErrLessonNotFound)
}

func TestJoinCourse_DraftHiddenFromStrangers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, err := domain.NewCourse(uuid.New(), domain.CourseFields{Name: strPtr("Secret Draft")})
	require.NoError(t, err)
	require.NoError(t, f.courses.Create(ctx, draft))

	stranger := uuid.New()
	tr, err := f.ledger.JoinCourse(ctx, member(stranger), draft.ID)
	assert.ErrorIs(t, err, store.ErrCourseNotFound)
	assert.Nil(t, tr)
	assert.Equal(t, 0, f.db.MembershipCount(stranger, draft.ID))

	_, err = f.ledger.JoinCourse(ctx, member(draft.CreatorID), draft.ID)
	assert.NoError(t, err, "the creator sees their own draft")

	admin := domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin}
	_, err = f.ledger.JoinCourse(ctx, admin, draft.ID)
	assert.NoError(t, err)
}

func TestJoinLesson_HiddenLessonsAndDraftCourses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hidden, err := domain.NewLesson(f.course.ID, domain.LessonFields{Name: strPtr("Hidden lesson")})
	require.NoError(t, err)
	require.Equal(t, domain.LessonStatusHidden, hidden.Status)
	require.NoError(t, f.lessons.Create(ctx, hidden))

	draft, err := domain.NewCourse(uuid.New(), domain.CourseFields{Name: strPtr("Secret Draft")})
	require.NoError(t, err)
	require.NoError(t, f.courses.Create(ctx, draft))
	visible := domain.LessonStatusPublished
	inDraft, err := domain.NewLesson(draft.ID, domain.LessonFields{Name: strPtr("Intro"), Status: &visible})
	require.NoError(t, err)
	require.NoError(t, f.lessons.Create(ctx, inDraft))

	stranger := uuid.New()
	tests := []struct {
		name     string
		viewer   domain.Identity
		lessonID uuid.UUID
		wantErr  error
	}{
		{"stranger on hidden lesson", member(stranger), hidden.ID, store.ErrLessonNotFound},
		{"stranger on lesson of draft course", member(stranger), inDraft.ID, store.ErrLessonNotFound},
		{"creator on hidden lesson", member(f.course.CreatorID), hidden.ID, nil},
		{"admin on hidden lesson", domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin}, hidden.ID, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := f.ledger.JoinLesson(ctx, tt.viewer, tt.lessonID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, tr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.ProgressInProgress, tr.State)
		})
	}

	rows, err := f.progress.ListByCourse(ctx, stranger, f.course.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNewLedgerRejectsNilDependencies(t *testing.T) {
	db := mocks.NewDatabase()
	_, err := enrollment.NewLedger(nil, mocks.NewLessonStore(db), mocks.NewMembershipStore(db),
		mocks.NewProgressStore(db), cache.NewInvalidator(mocks.NewCacheStore(), nil, nil), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = enrollment.NewLedger(mocks.NewCourseStore(db), mocks.NewLessonStore(db), mocks.NewMembershipStore(db),
		mocks.NewProgressStore(db), nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
