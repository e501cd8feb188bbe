package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
)

// Action names a protected operation. Each action has its own window.
type Action string

// Protected actions
const (
	ActionLessonGeneration       Action = "lesson-generation"
	ActionPresentationGeneration Action = "presentation-generation"
)

// Policy is the ceiling for one action.
type Policy struct {
	Limit  int
	Window time.Duration
}

// WindowResult is the store's verdict for a single attempt.
type WindowResult struct {
	Allowed bool
	// Count is the number of admitted requests in the window after this attempt.
	Count int
	// RetryAfter is how long until the oldest admitted request leaves the
	// window. Zero when Allowed.
	RetryAfter time.Duration
}

// WindowStore is a shared windowed-counter service.
type WindowStore interface {
	// Admit drops entries older than now-window, then records an entry at
	// now iff fewer than limit entries remain. Denied attempts are not
	// recorded. The check and the record must be atomic.
	Admit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (WindowResult, error)
}

// Decision outcomes reported to Metrics.
const (
	OutcomeAllowed  = "allowed"
	OutcomeDenied   = "denied"
	OutcomeDegraded = "degraded"
)

// Metrics observes limiter decisions.
type Metrics interface {
	ObserveDecision(action, outcome string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveDecision(string, string) {}

// Decision is the limiter's answer for one request.
type Decision struct {
	Action     Action
	Allowed    bool
	Limit      int
	Window     time.Duration
	Remaining  int
	RetryAfter time.Duration
	// Degraded is set when the window store was unreachable and the request
	// was admitted without being counted.
	Degraded bool
}

// Err returns a *LimitExceededError for a denial and nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &LimitExceededError{
		Action:     d.Action,
		Limit:      d.Limit,
		Window:     d.Window,
		RetryAfter: d.RetryAfter,
	}
}

// Limiter checks requests against per-action policies.
type Limiter struct {
	store    WindowStore
	policies map[Action]Policy
	metrics  Metrics
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithMetrics reports decisions to m.
func WithMetrics(m Metrics) Option {
	return func(l *Limiter) {
		if m != nil {
			l.metrics = m
		}
	}
}

// NewLimiter creates a Limiter. Every policy must have a positive limit and window.
func NewLimiter(store WindowStore, policies map[Action]Policy, logger *slog.Logger, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("window store cannot be nil")
	}
	for action, p := range policies {
		if p.Limit <= 0 || p.Window <= 0 {
			return nil, fmt.Errorf("invalid policy for %s: limit and window must be positive", action)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &Limiter{
		store:    store,
		policies: policies,
		metrics:  nopMetrics{},
		now:      time.Now,
		logger:   logger.With(slog.String("component", "rate_limiter")),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Policy returns the configured policy for action.
func (l *Limiter) Policy(action Action) (Policy, bool) {
	p, ok := l.policies[action]
	return p, ok
}

// Check admits or denies one request by subject for action. A denial is
// returned as a Decision with Allowed=false and a nil error; use
// Decision.Err or Limiter.Allow to turn it into ErrRateLimited. If the
// window store fails the request is admitted and the failure is logged.
func (l *Limiter) Check(ctx context.Context, subject string, action Action) (Decision, error) {
	policy, ok := l.policies[action]
	if !ok {
		return Decision{Action: action}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	if strings.TrimSpace(subject) == "" {
		return Decision{Action: action}, fmt.Errorf("rate limit subject cannot be empty")
	}

	log := logger.FromContextOrDefault(ctx, l.logger)

	res, err := l.store.Admit(ctx, windowKey(action, subject), policy.Limit, policy.Window, l.now())
	if err != nil {
		l.metrics.ObserveDecision(string(action), OutcomeDegraded)
		log.Warn("rate limit store unavailable, admitting request",
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
		return Decision{
			Action:   action,
			Allowed:  true,
			Limit:    policy.Limit,
			Window:   policy.Window,
			Degraded: true,
		}, nil
	}

	d := Decision{
		Action:     action,
		Allowed:    res.Allowed,
		Limit:      policy.Limit,
		Window:     policy.Window,
		Remaining:  max(policy.Limit-res.Count, 0),
		RetryAfter: res.RetryAfter,
	}
	if d.Allowed {
		l.metrics.ObserveDecision(string(action), OutcomeAllowed)
	} else {
		l.metrics.ObserveDecision(string(action), OutcomeDenied)
		log.Info("rate limit exceeded",
			slog.String("action", string(action)),
			slog.Int("limit", policy.Limit),
			slog.Duration("retry_after", d.RetryAfter))
	}
	return d, nil
}

// Allow is Check followed by Decision.Err.
func (l *Limiter) Allow(ctx context.Context, subject string, action Action) error {
	d, err := l.Check(ctx, subject, action)
	if err != nil {
		return err
	}
	return d.Err()
}

func windowKey(action Action, subject string) string {
	return "ratelimit:" + string(action) + ":" + subject
}
