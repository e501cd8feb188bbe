package api

import "github.com/phrazzld/lessonhub-api/internal/domain"

// CreateCourseRequest is the body of POST /api/courses.
type CreateCourseRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Presentation string `json:"presentation" validate:"max=20000"`
	Image        string `json:"image" validate:"omitempty,url"`
	Status       string `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED"`
}

// Fields converts the request to domain fields.
func (r CreateCourseRequest) Fields() domain.CourseFields {
	fields := domain.CourseFields{
		Name:         &r.Name,
		Presentation: &r.Presentation,
		Image:        &r.Image,
	}
	if r.Status != "" {
		status := domain.CourseStatus(r.Status)
		fields.Status = &status
	}
	return fields
}

// UpdateCourseRequest is the body of PUT /api/courses/{id}. Omitted fields
// are left unchanged.
type UpdateCourseRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=200"`
	Presentation *string `json:"presentation" validate:"omitempty,max=20000"`
	Image        *string `json:"image" validate:"omitempty,url"`
	Status       *string `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED"`
}

// Fields converts the request to domain fields.
func (r UpdateCourseRequest) Fields() domain.CourseFields {
	fields := domain.CourseFields{
		Name:         r.Name,
		Presentation: r.Presentation,
		Image:        r.Image,
	}
	if r.Status != nil {
		status := domain.CourseStatus(*r.Status)
		fields.Status = &status
	}
	return fields
}

// CreateLessonRequest is the body of POST /api/courses/{id}/lessons.
type CreateLessonRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Content string `json:"content" validate:"max=100000"`
	Status  string `json:"status" validate:"omitempty,oneof=HIDDEN PUBLIC PUBLISHED"`
}

// Fields converts the request to domain fields.
func (r CreateLessonRequest) Fields() domain.LessonFields {
	fields := domain.LessonFields{Name: &r.Name, Content: &r.Content}
	if r.Status != "" {
		status := domain.LessonStatus(r.Status)
		fields.Status = &status
	}
	return fields
}

// UpdateLessonRequest is the body of PUT /api/lessons/{id}.
type UpdateLessonRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=200"`
	Content *string `json:"content" validate:"omitempty,max=100000"`
	Status  *string `json:"status" validate:"omitempty,oneof=HIDDEN PUBLIC PUBLISHED"`
}

// Fields converts the request to domain fields.
func (r UpdateLessonRequest) Fields() domain.LessonFields {
	fields := domain.LessonFields{Name: r.Name, Content: r.Content}
	if r.Status != nil {
		status := domain.LessonStatus(*r.Status)
		fields.Status = &status
	}
	return fields
}

// GenerateLessonRequest is the body of POST /api/lessons/{id}/generate.
type GenerateLessonRequest struct {
	Instructions string `json:"instructions" validate:"max=2000"`
	Save         bool   `json:"save"`
}

// GeneratePresentationRequest is the body of POST /api/courses/{id}/presentation.
type GeneratePresentationRequest struct {
	Audience string `json:"audience" validate:"max=200"`
}
