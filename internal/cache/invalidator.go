package cache

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/cachekey"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
)

// Target lists what a mutation made stale. Keys are dropped exactly; each
// namespace is dropped together with every key parameterized under it.
type Target struct {
	Keys       []string
	Namespaces []string
}

// Invalidator removes cache entries affected by a committed mutation.
// It never returns an error: a failed invalidation leaves an entry that
// expires at its TTL, which bounds staleness for that namespace.
type Invalidator struct {
	store   Store
	metrics Metrics
	logger  *slog.Logger
}

// NewInvalidator creates an Invalidator over store.
func NewInvalidator(store Store, metrics Metrics, logger *slog.Logger) *Invalidator {
	if store == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("cache store cannot be nil")
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{
		store:   store,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "cache_invalidator")),
	}
}

// Invalidate drops every entry named by target. Invalidating something that
// was never cached is a no-op. The caller's cancellation is ignored because
// the mutation has already committed.
func (i *Invalidator) Invalidate(ctx context.Context, target Target) {
	if i == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContextOrDefault(ctx, i.logger)

	keys := append([]string(nil), target.Keys...)
	keys = append(keys, target.Namespaces...)
	if len(keys) > 0 {
		if err := i.store.Delete(ctx, keys...); err != nil {
			i.metrics.ObserveInvalidationFailure("delete")
			log.Warn("cache invalidation failed, entries expire at TTL",
				slog.Any("keys", keys),
				slog.String("error", err.Error()))
		}
	}

	for _, ns := range target.Namespaces {
		if err := i.store.DeleteByPrefix(ctx, ns+cachekey.Separator); err != nil {
			i.metrics.ObserveInvalidationFailure("delete_prefix")
			log.Warn("cache namespace invalidation failed, entries expire at TTL",
				slog.String("namespace", ns),
				slog.String("error", err.Error()))
		}
	}
}

// CourseCreated drops the listings a new course can appear in.
func (i *Invalidator) CourseCreated(ctx context.Context, creatorID uuid.UUID) {
	i.Invalidate(ctx, Target{Namespaces: []string{
		cachekey.PublicCoursesFamily,
		cachekey.AdminCoursesFamily,
		cachekey.CreatedCourses(creatorID),
	}})
}

// CourseUpdated drops the course's detail view and every listing that may
// contain it. Member listings are dropped for all members at once because
// the membership set is not known here.
func (i *Invalidator) CourseUpdated(ctx context.Context, courseID, creatorID uuid.UUID) {
	i.Invalidate(ctx, Target{
		Keys: []string{cachekey.CourseDetail(courseID)},
		Namespaces: []string{
			cachekey.PublicCoursesFamily,
			cachekey.AdminCoursesFamily,
			cachekey.CreatedCourses(creatorID),
			cachekey.EnrolledCoursesFamily,
		},
	})
}

// EnrollmentChanged drops the enrollment count of the course and the
// member's own course listings.
func (i *Invalidator) EnrollmentChanged(ctx context.Context, userID, courseID uuid.UUID) {
	i.Invalidate(ctx, Target{
		Keys:       []string{cachekey.CourseDetail(courseID)},
		Namespaces: []string{cachekey.EnrolledCourses(userID)},
	})
}

// LessonChanged drops every lesson listing and progress view of a course.
func (i *Invalidator) LessonChanged(ctx context.Context, courseID uuid.UUID) {
	i.Invalidate(ctx, Target{Namespaces: []string{
		cachekey.Lessons(courseID),
		cachekey.Progress(courseID),
	}})
}

// ProgressChanged drops one user's progress view of a course.
func (i *Invalidator) ProgressChanged(ctx context.Context, userID, courseID uuid.UUID) {
	i.Invalidate(ctx, Target{Keys: []string{cachekey.ProgressKey(courseID, userID)}})
}
