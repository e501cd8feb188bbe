package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LessonStatus controls who can see a lesson.
type LessonStatus string

// Possible lesson status values
const (
	LessonStatusHidden    LessonStatus = "HIDDEN"
	LessonStatusPublic    LessonStatus = "PUBLIC"
	LessonStatusPublished LessonStatus = "PUBLISHED"
)

// Valid reports whether s is a known lesson status.
func (s LessonStatus) Valid() bool {
	switch s {
	case LessonStatusHidden, LessonStatusPublic, LessonStatusPublished:
		return true
	}
	return false
}

// Lesson belongs to exactly one course and is ordered by Rank within it.
type Lesson struct {
	ID        uuid.UUID    `json:"id"`
	CourseID  uuid.UUID    `json:"course_id"`
	Name      string       `json:"name"`
	Content   string       `json:"content"`
	Status    LessonStatus `json:"status"`
	Rank      int          `json:"rank"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// VisibleTo reports whether viewer may see the lesson, given its course.
// Hidden lessons are only visible to the course creator and to admins.
func (l *Lesson) VisibleTo(viewer Identity, course *Course) bool {
	if !course.VisibleTo(viewer) {
		return false
	}
	return l.Status != LessonStatusHidden || course.OwnedBy(viewer.UserID) || viewer.IsAdmin()
}

// LessonFields are the creator-editable attributes of a lesson.
type LessonFields struct {
	Name    *string
	Content *string
	Status  *LessonStatus
}

// NewLesson creates a hidden lesson in courseID. Rank is assigned by the store.
func NewLesson(courseID uuid.UUID, fields LessonFields) (*Lesson, error) {
	now := time.Now().UTC()
	l := &Lesson{
		ID:        uuid.New(),
		CourseID:  courseID,
		Status:    LessonStatusHidden,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.Apply(fields)
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Apply copies every non-nil field onto l and bumps UpdatedAt.
func (l *Lesson) Apply(fields LessonFields) {
	if fields.Name != nil {
		l.Name = strings.TrimSpace(*fields.Name)
	}
	if fields.Content != nil {
		l.Content = *fields.Content
	}
	if fields.Status != nil {
		l.Status = *fields.Status
	}
	l.UpdatedAt = time.Now().UTC()
}

// Validate checks if the Lesson has valid data.
func (l *Lesson) Validate() error {
	if l.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if l.CourseID == uuid.Nil {
		return NewValidationError("course_id", "cannot be empty", ErrInvalidID)
	}
	if l.Name == "" {
		return NewValidationError("name", "cannot be empty", ErrValidation)
	}
	if len(l.Name) > MaxCourseNameLength {
		return NewValidationError("name", "is too long", ErrValidation)
	}
	if !l.Status.Valid() {
		return NewValidationError("status", "must be HIDDEN, PUBLIC or PUBLISHED", ErrValidation)
	}
	return nil
}
