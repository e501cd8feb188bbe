package gemini

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/lessonhub-api/internal/generation"
	"github.com/sony/gobreaker"
)

// BreakerSettings configures BreakerGenerator.
type BreakerSettings struct {
	// MaxFailures consecutive failures open the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a trial request is let through.
	Timeout time.Duration
}

// BreakerGenerator sheds generation calls while the wrapped generator is
// failing. Blocked prompts, malformed answers, and caller cancellations do
// not count as failures.
type BreakerGenerator struct {
	next    generation.Generator
	breaker *gobreaker.CircuitBreaker
}

var _ generation.Generator = (*BreakerGenerator)(nil)

// NewBreakerGenerator wraps next in a circuit breaker.
func NewBreakerGenerator(next generation.Generator, settings BreakerSettings, logger *slog.Logger) *BreakerGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "generation_breaker"))
	maxFailures := max(settings.MaxFailures, 1)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, generation.ErrContentBlocked) ||
				errors.Is(err, generation.ErrInvalidResponse) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &BreakerGenerator{next: next, breaker: cb}
}

// State reports the current breaker state.
func (b *BreakerGenerator) State() gobreaker.State {
	return b.breaker.State()
}

// GenerateLessonContent implements generation.Generator.
func (b *BreakerGenerator) GenerateLessonContent(
	ctx context.Context,
	req generation.LessonRequest,
) (*generation.LessonContent, error) {
	res, err := b.breaker.Execute(func() (any, error) {
		return b.next.GenerateLessonContent(ctx, req)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return res.(*generation.LessonContent), nil
}

// GeneratePresentation implements generation.Generator.
func (b *BreakerGenerator) GeneratePresentation(
	ctx context.Context,
	req generation.PresentationRequest,
) (*generation.Presentation, error) {
	res, err := b.breaker.Execute(func() (any, error) {
		return b.next.GeneratePresentation(ctx, req)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return res.(*generation.Presentation), nil
}

func mapBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return generation.ErrUnavailable
	}
	return err
}
