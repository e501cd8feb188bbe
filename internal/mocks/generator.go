package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/lessonhub-api/internal/generation"
)

// Generator implements generation.Generator for testing.
type Generator struct {
	mu sync.Mutex

	// Optional overrides; when nil a fixed response is returned.
	GenerateLessonContentFn func(ctx context.Context, req generation.LessonRequest) (*generation.LessonContent, error)
	GeneratePresentationFn  func(ctx context.Context, req generation.PresentationRequest) (*generation.Presentation, error)

	LessonRequests       []generation.LessonRequest
	PresentationRequests []generation.PresentationRequest
}

var _ generation.Generator = (*Generator)(nil)

// GenerateLessonContent implements generation.Generator.
func (g *Generator) GenerateLessonContent(
	ctx context.Context,
	req generation.LessonRequest,
) (*generation.LessonContent, error) {
	g.mu.Lock()
	g.LessonRequests = append(g.LessonRequests, req)
	fn := g.GenerateLessonContentFn
	g.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &generation.LessonContent{Content: "# " + req.LessonName}, nil
}

// GeneratePresentation implements generation.Generator.
func (g *Generator) GeneratePresentation(
	ctx context.Context,
	req generation.PresentationRequest,
) (*generation.Presentation, error) {
	g.mu.Lock()
	g.PresentationRequests = append(g.PresentationRequests, req)
	fn := g.GeneratePresentationFn
	g.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &generation.Presentation{
		Title:  req.CourseName,
		Slides: []generation.Slide{{Title: req.CourseName, Bullets: req.LessonNames}},
	}, nil
}

// Calls returns the number of lesson and presentation generations.
func (g *Generator) Calls() (lessons, presentations int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.LessonRequests), len(g.PresentationRequests)
}
