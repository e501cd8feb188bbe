package domain

import (
	"time"

	"github.com/google/uuid"
)

// CourseMembership records that a user joined a course. At most one
// membership exists per (UserID, CourseID).
type CourseMembership struct {
	UserID    uuid.UUID `json:"user_id"`
	CourseID  uuid.UUID `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ProgressState is a user's position in a single lesson.
type ProgressState string

// Lesson progress states. NotStarted is never stored: it is the state
// implied by the absence of a progress row.
const (
	ProgressNotStarted ProgressState = "NOT_STARTED"
	ProgressInProgress ProgressState = "IN_PROGRESS"
	ProgressCompleted  ProgressState = "COMPLETED"
)

var progressTransitions = map[ProgressState][]ProgressState{
	ProgressNotStarted: {ProgressInProgress},
	ProgressInProgress: {ProgressCompleted, ProgressNotStarted},
	ProgressCompleted:  {ProgressNotStarted},
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Moving back to NotStarted corresponds to leaving the lesson.
func (s ProgressState) CanTransitionTo(next ProgressState) bool {
	for _, allowed := range progressTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known state.
func (s ProgressState) Valid() bool {
	_, ok := progressTransitions[s]
	return ok
}

// LessonProgress records that a user joined a lesson. At most one row
// exists per (UserID, LessonID).
type LessonProgress struct {
	UserID    uuid.UUID     `json:"user_id"`
	LessonID  uuid.UUID     `json:"lesson_id"`
	State     ProgressState `json:"state"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewLessonProgress starts a lesson for userID.
func NewLessonProgress(userID, lessonID uuid.UUID) *LessonProgress {
	now := time.Now().UTC()
	return &LessonProgress{
		UserID:    userID,
		LessonID:  lessonID,
		State:     ProgressInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the progress to next, or returns ErrInvalidTransition.
func (p *LessonProgress) Advance(next ProgressState) error {
	if !p.State.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	p.State = next
	p.UpdatedAt = time.Now().UTC()
	return nil
}
