package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
	"github.com/phrazzld/lessonhub-api/internal/store"
)

const courseColumns = `c.id, c.creator_id, c.name, c.presentation, c.image, c.status, c.created_at, c.updated_at`

// PostgresCourseStore implements store.CourseStore.
type PostgresCourseStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCourseStore creates a course store over db.
// If logger is nil, a default logger will be used.
func NewPostgresCourseStore(db store.DBTX, logger *slog.Logger) *PostgresCourseStore {
	// Validate inputs
	if db == nil {
		// ALLOW-PANIC: constructor precondition
		panic("db cannot be nil")
	}
	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCourseStore{
		db:     db,
		logger: logger.With(slog.String("component", "course_store")),
	}
}

var _ store.CourseStore = (*PostgresCourseStore)(nil)

// Create implements store.CourseStore.Create.
func (s *PostgresCourseStore) Create(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate the course before touching the database
	if err := course.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, creator_id, name, presentation, image, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		course.ID, course.CreatorID, course.Name, course.Presentation, course.Image,
		string(course.Status), course.CreatedAt, course.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create course",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return wrapError("course", "create", err)
	}

	log.Debug("course created", slog.String("course_id", course.ID.String()))
	return nil
}

// GetByID implements store.CourseStore.GetByID.
func (s *PostgresCourseStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses c WHERE c.id = $1`, id)

	course, err := scanCourse(row)
	if err != nil {
		// Missing rows map to the course-specific sentinel
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCourseNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get course",
			slog.String("error", err.Error()),
			slog.String("course_id", id.String()))
		return nil, wrapError("course", "get", err)
	}
	return course, nil
}

// Update implements store.CourseStore.Update.
func (s *PostgresCourseStore) Update(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := course.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE courses
		SET name = $2, presentation = $3, image = $4, status = $5, updated_at = $6
		WHERE id = $1`,
		course.ID, course.Name, course.Presentation, course.Image, string(course.Status), course.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update course",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return wrapError("course", "update", err)
	}
	// No affected rows means the course does not exist
	return CheckRowsAffected(result, store.ErrCourseNotFound)
}

// List implements store.CourseStore.List.
func (s *PostgresCourseStore) List(
	ctx context.Context,
	filter store.CourseFilter,
	page domain.PageRequest,
) ([]*domain.Course, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := courseWhere(filter, page.Search)

	// Count all matches first so the page can report a total
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses c`+where, args...).Scan(&total); err != nil {
		log.Error("failed to count courses", slog.String("error", err.Error()))
		return nil, 0, wrapError("course", "list", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM courses c%s ORDER BY c.created_at DESC, c.id LIMIT $%d OFFSET $%d`,
		courseColumns, where, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		log.Error("failed to list courses", slog.String("error", err.Error()))
		return nil, 0, wrapError("course", "list", err)
	}
	defer func() { _ = rows.Close() }()

	// Scan the page
	courses := make([]*domain.Course, 0, page.Limit)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, 0, wrapError("course", "list", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapError("course", "list", err)
	}
	return courses, total, nil
}

func courseWhere(filter store.CourseFilter, search string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("c.status = $%d", string(filter.Status))
	}
	if filter.CreatorID != uuid.Nil {
		add("c.creator_id = $%d", filter.CreatorID)
	}
	if filter.MemberID != uuid.Nil {
		add("EXISTS (SELECT 1 FROM course_memberships m WHERE m.course_id = c.id AND m.user_id = $%d)",
			filter.MemberID)
	}
	if search != "" {
		add("strpos(lower(c.name), lower($%d)) > 0", search)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*domain.Course, error) {
	var (
		course domain.Course
		status string
	)
	err := row.Scan(
		&course.ID,
		&course.CreatorID,
		&course.Name,
		&course.Presentation,
		&course.Image,
		&status,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	course.Status = domain.CourseStatus(status)
	return &course, nil
}
