package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/cache"
	"github.com/phrazzld/lessonhub-api/internal/cachekey"
	"github.com/phrazzld/lessonhub-api/internal/config"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
	"github.com/phrazzld/lessonhub-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// CourseScope selects which courses a listing covers.
type CourseScope string

// Listing scopes
const (
	ScopePublic   CourseScope = "public"
	ScopeCreated  CourseScope = "created"
	ScopeEnrolled CourseScope = "enrolled"
	ScopeAdmin    CourseScope = "admin"
)

// CourseInvalidator is the subset of cache.Invalidator course writes trigger.
type CourseInvalidator interface {
	CourseCreated(ctx context.Context, creatorID uuid.UUID)
	CourseUpdated(ctx context.Context, courseID, creatorID uuid.UUID)
}

// CourseService provides course reads and creator writes.
type CourseService interface {
	// GetCourseDetail returns a course with its enrollment count.
	// Courses the viewer may not see are reported as store.ErrCourseNotFound.
	GetCourseDetail(ctx context.Context, viewer domain.Identity, courseID uuid.UUID) (*domain.CourseDetail, error)

	// ListCourses returns one page of the courses in scope.
	ListCourses(
		ctx context.Context,
		viewer domain.Identity,
		scope CourseScope,
		page domain.PageRequest,
	) (*domain.Page[*domain.Course], error)

	// CreateCourse creates a course owned by the caller.
	CreateCourse(ctx context.Context, creator domain.Identity, fields domain.CourseFields) (*domain.Course, error)

	// UpdateCourse applies fields to a course the caller created.
	UpdateCourse(
		ctx context.Context,
		editor domain.Identity,
		courseID uuid.UUID,
		fields domain.CourseFields,
	) (*domain.Course, error)
}

type courseServiceImpl struct {
	courses     store.CourseStore
	memberships store.MembershipStore
	cache       *cache.ReadThrough
	invalidator CourseInvalidator
	ttls        config.CacheConfig
	logger      *slog.Logger
}

var _ CourseService = (*courseServiceImpl)(nil)

// NewCourseService creates a CourseService. A nil cache disables caching.
func NewCourseService(
	courses store.CourseStore,
	memberships store.MembershipStore,
	readThrough *cache.ReadThrough,
	invalidator CourseInvalidator,
	ttls config.CacheConfig,
	logger *slog.Logger,
) (CourseService, error) {
	if courses == nil {
		return nil, &ServiceError{Service: "course", Operation: "create_service", Message: "courses cannot be nil"}
	}
	if memberships == nil {
		return nil, &ServiceError{Service: "course", Operation: "create_service", Message: "memberships cannot be nil"}
	}
	if invalidator == nil {
		return nil, &ServiceError{Service: "course", Operation: "create_service", Message: "invalidator cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &courseServiceImpl{
		courses:     courses,
		memberships: memberships,
		cache:       readThrough,
		invalidator: invalidator,
		ttls:        ttls,
		logger:      logger.With(slog.String("component", "course_service")),
	}, nil
}

// GetCourseDetail caches the detail independently of the viewer, so the
// visibility check runs on every call, hit or miss.
func (s *courseServiceImpl) GetCourseDetail(
	ctx context.Context,
	viewer domain.Identity,
	courseID uuid.UUID,
) (*domain.CourseDetail, error) {
	detail, err := cache.WithCache(ctx, s.cache, cachekey.CourseDetail(courseID), s.ttls.CourseDetailTTL(),
		func(ctx context.Context) (domain.CourseDetail, error) {
			return s.loadDetail(ctx, courseID)
		})
	if err != nil {
		return nil, newServiceError("course", "get_course_detail", "failed to load course", err)
	}
	if !detail.VisibleTo(viewer) {
		return nil, store.ErrCourseNotFound
	}
	return &detail, nil
}

func (s *courseServiceImpl) loadDetail(ctx context.Context, courseID uuid.UUID) (domain.CourseDetail, error) {
	var (
		course *domain.Course
		count  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		course, err = s.courses.GetByID(gctx, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.memberships.CountByCourse(gctx, courseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.CourseDetail{}, err
	}
	return domain.CourseDetail{Course: *course, EnrollmentCount: count}, nil
}

// ListCourses resolves the scope to a store filter and a key namespace.
func (s *courseServiceImpl) ListCourses(
	ctx context.Context,
	viewer domain.Identity,
	scope CourseScope,
	page domain.PageRequest,
) (*domain.Page[*domain.Course], error) {
	page, err := page.Normalize()
	if err != nil {
		return nil, err
	}

	var (
		filter    store.CourseFilter
		namespace string
	)
	switch scope {
	case ScopePublic, "":
		filter.Status = domain.CourseStatusPublished
		namespace = cachekey.PublicCoursesFamily
	case ScopeCreated:
		filter.CreatorID = viewer.UserID
		namespace = cachekey.CreatedCourses(viewer.UserID)
	case ScopeEnrolled:
		filter.MemberID = viewer.UserID
		namespace = cachekey.EnrolledCourses(viewer.UserID)
	case ScopeAdmin:
		if !viewer.IsAdmin() {
			return nil, ErrAdminOnly
		}
		namespace = cachekey.AdminCoursesFamily
	default:
		return nil, ErrInvalidScope
	}

	key := cachekey.MustGenerateKey(namespace, pageParams(page))
	result, err := cache.WithCache(ctx, s.cache, key, s.ttls.CourseListTTL(),
		func(ctx context.Context) (domain.Page[*domain.Course], error) {
			items, total, err := s.courses.List(ctx, filter, page)
			if err != nil {
				return domain.Page[*domain.Course]{}, err
			}
			return newPage(items, page, total), nil
		})
	if err != nil {
		return nil, newServiceError("course", "list_courses", "failed to list courses", err)
	}
	return &result, nil
}

func (s *courseServiceImpl) CreateCourse(
	ctx context.Context,
	creator domain.Identity,
	fields domain.CourseFields,
) (*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	course, err := domain.NewCourse(creator.UserID, fields)
	if err != nil {
		return nil, err
	}
	if err := s.courses.Create(ctx, course); err != nil {
		log.Error("failed to create course",
			slog.String("error", err.Error()),
			slog.String("creator_id", creator.UserID.String()))
		return nil, newServiceError("course", "create_course", "failed to save course", err)
	}

	s.invalidator.CourseCreated(ctx, course.CreatorID)
	log.Info("course created",
		slog.String("course_id", course.ID.String()),
		slog.String("creator_id", course.CreatorID.String()))
	return course, nil
}

func (s *courseServiceImpl) UpdateCourse(
	ctx context.Context,
	editor domain.Identity,
	courseID uuid.UUID,
	fields domain.CourseFields,
) (*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, newServiceError("course", "update_course", "failed to load course", err)
	}
	if !course.OwnedBy(editor.UserID) {
		log.Warn("course update rejected: not owner",
			slog.String("course_id", courseID.String()),
			slog.String("user_id", editor.UserID.String()))
		return nil, ErrNotOwned
	}

	course.Apply(fields)
	if err := course.Validate(); err != nil {
		return nil, err
	}
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, newServiceError("course", "update_course", "failed to save course", err)
	}

	s.invalidator.CourseUpdated(ctx, course.ID, course.CreatorID)
	log.Info("course updated", slog.String("course_id", course.ID.String()))
	return course, nil
}

// pageParams are the key parameters shared by every paginated listing.
func pageParams(page domain.PageRequest) cachekey.Params {
	return cachekey.Params{
		"page":   page.Page,
		"limit":  page.Limit,
		"search": page.Search,
	}
}

func newPage[T any](items []T, page domain.PageRequest, total int) domain.Page[T] {
	if items == nil {
		items = []T{}
	}
	return domain.Page[T]{Items: items, Page: page.Page, Limit: page.Limit, Total: total}
}
