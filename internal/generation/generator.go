package generation

import (
	"context"
	"fmt"
	"strings"
)

// LessonRequest describes the lesson to draft.
type LessonRequest struct {
	CourseName string
	LessonName string
	// Instructions are optional author notes appended to the prompt.
	Instructions string
}

// LessonContent is a drafted lesson body in markdown.
type LessonContent struct {
	Content string `json:"content"`
}

// PresentationRequest describes the course to present.
type PresentationRequest struct {
	CourseName  string
	LessonNames []string
	Audience    string
}

// Slide is one slide of a generated presentation.
type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

// Presentation is a generated slide deck for a course.
type Presentation struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

// Generator drafts course material with a language model.
type Generator interface {
	// GenerateLessonContent drafts the body of one lesson.
	GenerateLessonContent(ctx context.Context, req LessonRequest) (*LessonContent, error)

	// GeneratePresentation drafts a slide deck summarising a course.
	GeneratePresentation(ctx context.Context, req PresentationRequest) (*Presentation, error)
}

// Validate checks the response shape.
func (c *LessonContent) Validate() error {
	if c == nil || strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("%w: empty lesson content", ErrInvalidResponse)
	}
	return nil
}

// Validate checks the response shape.
func (p *Presentation) Validate() error {
	if p == nil || len(p.Slides) == 0 {
		return fmt.Errorf("%w: presentation has no slides", ErrInvalidResponse)
	}
	for i, s := range p.Slides {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("%w: slide %d has no title", ErrInvalidResponse, i+1)
		}
	}
	return nil
}
