package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/cachekey"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/service"
	"github.com/phrazzld/lessonhub-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lessonNames(p *domain.Page[*domain.Lesson]) []string {
	names := make([]string, 0, len(p.Items))
	for _, l := range p.Items {
		names = append(names, l.Name)
	}
	return names
}

func TestCreateLesson_AssignsRanks(t *testing.T) {
	f := newFixture(t)
	course := f.createCourse(t, f.creator, "Networking", domain.CourseStatusPublished)

	first := f.createLesson(t, course.ID, "TCP", domain.LessonStatusPublished)
	second := f.createLesson(t, course.ID, "UDP", domain.LessonStatusPublished)

	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, 2, second.Rank)
}

func TestCreateLesson_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.createCourse(t, f.creator, "Networking", domain.CourseStatusPublished)

	_, err := f.lessonSvc.CreateLesson(ctx, f.learner, course.ID, domain.LessonFields{Name: ptr("Sneaky")})
	assert.ErrorIs(t, err, service.ErrNotOwned)

	_, err = f.lessonSvc.CreateLesson(ctx, f.creator, uuid.New(), domain.LessonFields{Name: ptr("Orphan")})
	assert.ErrorIs(t, err, store.ErrCourseNotFound)

	_, err = f.lessonSvc.CreateLesson(ctx, f.creator, course.ID, domain.LessonFields{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListLessons_AudienceFiltering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.createCourse(t, f.creator, "Compilers", domain.CourseStatusPublished)
	f.createLesson(t, course.ID, "Lexing", domain.LessonStatusPublished)
	f.createLesson(t, course.ID, "Parsing", domain.LessonStatusHidden)
	f.createLesson(t, course.ID, "Codegen", domain.LessonStatusPublic)

	learnerPage, err := f.lessonSvc.ListLessons(ctx, f.learner, course.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lexing", "Codegen"}, lessonNames(learnerPage))

	creatorPage, err := f.lessonSvc.ListLessons(ctx, f.creator, course.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lexing", "Parsing", "Codegen"}, lessonNames(creatorPage))

	// A cached creator view must not leak to learners.
	learnerPage, err = f.lessonSvc.ListLessons(ctx, f.learner, course.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, learnerPage.Items, 2)
	assert.Equal(t, 2, f.lessons.ListCalls)

	adminPage, err := f.lessonSvc.ListLessons(ctx, f.admin, course.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lexing", "Parsing", "Codegen"}, lessonNames(adminPage))
}

func TestListLessons_DraftCourseHidden(t *testing.T) {
	f := newFixture(t)
	course := f.createCourse(t, f.creator, "Secret", domain.CourseStatusDraft)

	_, err := f.lessonSvc.ListLessons(context.Background(), f.learner, course.ID, domain.PageRequest{})

	assert.ErrorIs(t, err, store.ErrCourseNotFound)
}

func TestLessonWrites_InvalidateCourseListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.createCourse(t, f.creator, "Databases", domain.CourseStatusPublished)
	lesson := f.createLesson(t, course.ID, "B-trees", domain.LessonStatusPublished)

	_, err := f.lessonSvc.ListLessons(ctx, f.learner, course.ID, domain.PageRequest{})
	require.NoError(t, err)

	f.createLesson(t, course.ID, "LSM trees", domain.LessonStatusPublished)
	page, err := f.lessonSvc.ListLessons(ctx, f.learner, course.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"B-trees", "LSM trees"}, lessonNames(page))

	_, err = f.lessonSvc.UpdateLesson(ctx, f.creator, lesson.ID, domain.LessonFields{Name: ptr("B+ trees")})
	require.NoError(t, err)
	page, err = f.lessonSvc.ListLessons(ctx, f.learner, course.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"B+ trees", "LSM trees"}, lessonNames(page))

	_, err = f.lessonSvc.UpdateLesson(ctx, f.learner, lesson.ID, domain.LessonFields{Name: ptr("Mine now")})
	assert.ErrorIs(t, err, service.ErrNotOwned)
}

func TestGetCourseProgress_FollowsLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := f.createCourse(t, f.creator, "Algorithms", domain.CourseStatusPublished)
	lesson := f.createLesson(t, course.ID, "Sorting", domain.LessonStatusPublished)

	rows, err := f.lessonSvc.GetCourseProgress(ctx, f.learner, course.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.True(t, f.cacheStore.Has(cachekey.ProgressKey(course.ID, f.learner.UserID)))

	_, err = f.ledger.JoinLesson(ctx, f.learner, lesson.ID)
	require.NoError(t, err)

	rows, err = f.lessonSvc.GetCourseProgress(ctx, f.learner, course.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ProgressInProgress, rows[0].State)

	_, err = f.ledger.CompleteLesson(ctx, f.learner.UserID, lesson.ID)
	require.NoError(t, err)

	rows, err = f.lessonSvc.GetCourseProgress(ctx, f.learner, course.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProgressCompleted, rows[0].State)

	others, err := f.lessonSvc.GetCourseProgress(ctx, f.admin, course.ID)
	require.NoError(t, err)
	assert.Empty(t, others, "progress views are per user")
}
