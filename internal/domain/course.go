package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CourseStatus is the publication state of a course.
type CourseStatus string

// Possible course status values
const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
)

// Valid reports whether s is a known course status.
func (s CourseStatus) Valid() bool {
	return s == CourseStatusDraft || s == CourseStatusPublished
}

// MaxCourseNameLength bounds course and lesson names.
const MaxCourseNameLength = 200

// Course is a unit of teaching material owned by its creator.
type Course struct {
	ID           uuid.UUID    `json:"id"`
	CreatorID    uuid.UUID    `json:"creator_id"`
	Name         string       `json:"name"`
	Presentation string       `json:"presentation"`
	Image        string       `json:"image,omitempty"`
	Status       CourseStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// CourseFields are the creator-editable attributes of a course. Nil
// pointers leave the current value untouched on update.
type CourseFields struct {
	Name         *string
	Presentation *string
	Image        *string
	Status       *CourseStatus
}

// NewCourse creates a draft-or-published course owned by creatorID.
func NewCourse(creatorID uuid.UUID, fields CourseFields) (*Course, error) {
	now := time.Now().UTC()
	c := &Course{
		ID:        uuid.New(),
		CreatorID: creatorID,
		Status:    CourseStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Apply(fields)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply copies every non-nil field onto c and bumps UpdatedAt.
func (c *Course) Apply(fields CourseFields) {
	if fields.Name != nil {
		c.Name = strings.TrimSpace(*fields.Name)
	}
	if fields.Presentation != nil {
		c.Presentation = *fields.Presentation
	}
	if fields.Image != nil {
		c.Image = *fields.Image
	}
	if fields.Status != nil {
		c.Status = *fields.Status
	}
	c.UpdatedAt = time.Now().UTC()
}

// Validate checks if the Course has valid data.
func (c *Course) Validate() error {
	if c.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if c.CreatorID == uuid.Nil {
		return NewValidationError("creator_id", "cannot be empty", ErrInvalidID)
	}
	if c.Name == "" {
		return NewValidationError("name", "cannot be empty", ErrValidation)
	}
	if len(c.Name) > MaxCourseNameLength {
		return NewValidationError("name", "is too long", ErrValidation)
	}
	if !c.Status.Valid() {
		return NewValidationError("status", "must be DRAFT or PUBLISHED", ErrValidation)
	}
	return nil
}

// OwnedBy reports whether userID created the course.
func (c *Course) OwnedBy(userID uuid.UUID) bool {
	return c.CreatorID == userID
}

// VisibleTo reports whether the viewer may read the course. Drafts are
// only visible to their creator and to admins.
func (c *Course) VisibleTo(viewer Identity) bool {
	return c.Status == CourseStatusPublished || c.OwnedBy(viewer.UserID) || viewer.IsAdmin()
}

// CourseDetail is a course together with its current membership count.
type CourseDetail struct {
	Course
	EnrollmentCount int `json:"enrollment_count"`
}
