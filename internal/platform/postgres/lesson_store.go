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

const lessonColumns = `id, course_id, name, content, status, rank, created_at, updated_at`

// PostgresLessonStore implements store.LessonStore.
type PostgresLessonStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLessonStore creates a lesson store over db.
// If logger is nil, a default logger will be used.
func NewPostgresLessonStore(db store.DBTX, logger *slog.Logger) *PostgresLessonStore {
	// Validate inputs
	if db == nil {
		// ALLOW-PANIC: constructor precondition
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLessonStore{
		db:     db,
		logger: logger.With(slog.String("component", "lesson_store")),
	}
}

var _ store.LessonStore = (*PostgresLessonStore)(nil)

// Create implements store.LessonStore.Create. The course row is locked
// while the next rank is computed, so concurrent inserts into the same
// course get distinct ranks. When the store is bound to the pool, Create
// opens its own transaction.
func (s *PostgresLessonStore) Create(ctx context.Context, lesson *domain.Lesson) error {
	if err := lesson.Validate(); err != nil {
		return err
	}

	// Open a transaction unless the caller already holds one
	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return s.insertRanked(ctx, tx, lesson)
		})
	}
	return s.insertRanked(ctx, s.db, lesson)
}

func (s *PostgresLessonStore) insertRanked(ctx context.Context, db store.DBTX, lesson *domain.Lesson) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Lock the course row to serialize rank assignment
	var locked uuid.UUID
	err := db.QueryRowContext(ctx, `SELECT id FROM courses WHERE id = $1 FOR UPDATE`, lesson.CourseID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrCourseNotFound
		}
		return wrapError("lesson", "create", err)
	}

	// Next rank is one past the current maximum
	var rank int
	err = db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(rank), 0) + 1 FROM lessons WHERE course_id = $1`, lesson.CourseID).Scan(&rank)
	if err != nil {
		return wrapError("lesson", "create", err)
	}

	// Insert the lesson with its assigned rank
	_, err = db.ExecContext(ctx, `
		INSERT INTO lessons (id, course_id, name, content, status, rank, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		lesson.ID, lesson.CourseID, lesson.Name, lesson.Content, string(lesson.Status),
		rank, lesson.CreatedAt, lesson.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create lesson",
			slog.String("error", err.Error()),
			slog.String("lesson_id", lesson.ID.String()),
			slog.String("course_id", lesson.CourseID.String()))
		return mapConstraintError("lesson", "create", err, nil, store.ErrCourseNotFound)
	}

	lesson.Rank = rank
	log.Debug("lesson created",
		slog.String("lesson_id", lesson.ID.String()),
		slog.Int("rank", rank))
	return nil
}

// GetByID implements store.LessonStore.GetByID.
func (s *PostgresLessonStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id)

	lesson, err := scanLesson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLessonNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get lesson",
			slog.String("error", err.Error()),
			slog.String("lesson_id", id.String()))
		return nil, wrapError("lesson", "get", err)
	}
	return lesson, nil
}

// Update implements store.LessonStore.Update. The stored rank and course
// are written back onto lesson.
func (s *PostgresLessonStore) Update(ctx context.Context, lesson *domain.Lesson) error {
	if err := lesson.Validate(); err != nil {
		return err
	}

	err := s.db.QueryRowContext(ctx, `
		UPDATE lessons
		SET name = $2, content = $3, status = $4, updated_at = $5
		WHERE id = $1
		RETURNING course_id, rank`,
		lesson.ID, lesson.Name, lesson.Content, string(lesson.Status), lesson.UpdatedAt,
	).Scan(&lesson.CourseID, &lesson.Rank)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrLessonNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update lesson",
			slog.String("error", err.Error()),
			slog.String("lesson_id", lesson.ID.String()))
		return wrapError("lesson", "update", err)
	}
	return nil
}

// ListByCourse implements store.LessonStore.ListByCourse.
func (s *PostgresLessonStore) ListByCourse(
	ctx context.Context,
	courseID uuid.UUID,
	filter store.LessonFilter,
	page domain.PageRequest,
) ([]*domain.Lesson, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := lessonWhere(courseID, filter, page.Search)

	// Count all matches first so the page can report a total
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons`+where, args...).Scan(&total); err != nil {
		log.Error("failed to count lessons", slog.String("error", err.Error()))
		return nil, 0, wrapError("lesson", "list", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM lessons%s ORDER BY rank LIMIT $%d OFFSET $%d`,
		lessonColumns, where, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		log.Error("failed to list lessons", slog.String("error", err.Error()))
		return nil, 0, wrapError("lesson", "list", err)
	}
	defer func() { _ = rows.Close() }()

	lessons := make([]*domain.Lesson, 0, page.Limit)
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, 0, wrapError("lesson", "list", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapError("lesson", "list", err)
	}
	return lessons, total, nil
}

func lessonWhere(courseID uuid.UUID, filter store.LessonFilter, search string) (string, []any) {
	args := []any{courseID}
	conds := []string{"course_id = $1"}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conds = append(conds, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if search != "" {
		args = append(args, search)
		conds = append(conds, fmt.Sprintf("strpos(lower(name), lower($%d)) > 0", len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanLesson(row rowScanner) (*domain.Lesson, error) {
	var (
		lesson domain.Lesson
		status string
	)
	err := row.Scan(
		&lesson.ID,
		&lesson.CourseID,
		&lesson.Name,
		&lesson.Content,
		&status,
		&lesson.Rank,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lesson.Status = domain.LessonStatus(status)
	return &lesson, nil
}
