package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewCourse(t *testing.T) {
	creator := uuid.New()

	course, err := NewCourse(creator, CourseFields{Name: strPtr("  Go basics "), Presentation: strPtr("intro")})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, course.ID)
	assert.Equal(t, "Go basics", course.Name)
	assert.Equal(t, CourseStatusDraft, course.Status)
	assert.True(t, course.OwnedBy(creator))
	assert.False(t, course.CreatedAt.IsZero())
}

func TestNewCourseValidation(t *testing.T) {
	bad := CourseStatus("ARCHIVED")
	tests := []struct {
		name    string
		creator uuid.UUID
		fields  CourseFields
		field   string
	}{
		{"missing creator", uuid.Nil, CourseFields{Name: strPtr("x")}, "creator_id"},
		{"empty name", uuid.New(), CourseFields{Name: strPtr("   ")}, "name"},
		{"long name", uuid.New(), CourseFields{Name: strPtr(strings.Repeat("a", MaxCourseNameLength+1))}, "name"},
		{"bad status", uuid.New(), CourseFields{Name: strPtr("x"), Status: &bad}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCourse(tt.creator, tt.fields)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestValidationErrorMatchesCause(t *testing.T) {
	err := NewValidationError("id", "has invalid format", ErrInvalidID)

	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.Equal(t, "validation failed: id has invalid format", err.Error())
}

func TestCourseVisibility(t *testing.T) {
	creator := uuid.New()
	course, err := NewCourse(creator, CourseFields{Name: strPtr("draft")})
	require.NoError(t, err)

	assert.True(t, course.VisibleTo(Identity{UserID: creator, Role: RoleUser}))
	assert.True(t, course.VisibleTo(Identity{UserID: uuid.New(), Role: RoleAdmin}))
	assert.False(t, course.VisibleTo(Identity{UserID: uuid.New(), Role: RoleUser}))

	published := CourseStatusPublished
	course.Apply(CourseFields{Status: &published})
	assert.True(t, course.VisibleTo(Identity{UserID: uuid.New(), Role: RoleUser}))
}

func TestNewLesson(t *testing.T) {
	lesson, err := NewLesson(uuid.New(), LessonFields{Name: strPtr("Intro"), Content: strPtr("# hello")})
	require.NoError(t, err)
	assert.Equal(t, LessonStatusHidden, lesson.Status)

	_, err = NewLesson(uuid.Nil, LessonFields{Name: strPtr("Intro")})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestLessonVisibility(t *testing.T) {
	creator := uuid.New()
	published := CourseStatusPublished
	course, err := NewCourse(creator, CourseFields{Name: strPtr("course"), Status: &published})
	require.NoError(t, err)
	lesson, err := NewLesson(course.ID, LessonFields{Name: strPtr("hidden")})
	require.NoError(t, err)

	stranger := Identity{UserID: uuid.New(), Role: RoleUser}
	assert.True(t, lesson.VisibleTo(Identity{UserID: creator, Role: RoleUser}, course))
	assert.True(t, lesson.VisibleTo(Identity{UserID: uuid.New(), Role: RoleAdmin}, course))
	assert.False(t, lesson.VisibleTo(stranger, course))

	public := LessonStatusPublic
	lesson.Apply(LessonFields{Status: &public})
	assert.True(t, lesson.VisibleTo(stranger, course))

	draft := CourseStatusDraft
	course.Apply(CourseFields{Status: &draft})
	assert.False(t, lesson.VisibleTo(stranger, course), "lessons of a draft course follow the course")
}

func TestPageRequestNormalize(t *testing.T) {
	req, err := PageRequest{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, DefaultPageLimit, req.Limit)
	assert.Equal(t, 0, req.Offset())

	req, err = PageRequest{Page: 3, Limit: 20}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 40, req.Offset())

	_, err = PageRequest{Page: -1}.Normalize()
	assert.ErrorIs(t, err, ErrValidation)
	_, err = PageRequest{Limit: MaxPageLimit + 1}.Normalize()
	assert.ErrorIs(t, err, ErrValidation)
}
