package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
	"github.com/phrazzld/lessonhub-api/internal/store"
)

// PostgresProgressStore implements store.ProgressStore over the
// lesson_progress table, keyed by (user_id, lesson_id).
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a progress store over db.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	// Validate inputs
	if db == nil {
		// ALLOW-PANIC: constructor precondition
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// Create implements store.ProgressStore.Create.
func (s *PostgresProgressStore) Create(ctx context.Context, p *domain.LessonProgress) error {
	// NotStarted is the absence of a row, never a stored state
	if !p.State.Valid() || p.State == domain.ProgressNotStarted {
		return domain.NewValidationError("state", "cannot be stored", domain.ErrValidation)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lesson_progress (user_id, lesson_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		p.UserID, p.LessonID, string(p.State), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		// Constraint violations are expected outcomes, only log the rest
		if !IsUniqueViolation(err) && !IsForeignKeyViolation(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to create lesson progress",
				slog.String("error", err.Error()),
				slog.String("user_id", p.UserID.String()),
				slog.String("lesson_id", p.LessonID.String()))
		}
		return mapConstraintError("progress", "create", err, store.ErrProgressExists, store.ErrLessonNotFound)
	}
	return nil
}

// Get implements store.ProgressStore.Get.
func (s *PostgresProgressStore) Get(ctx context.Context, userID, lessonID uuid.UUID) (*domain.LessonProgress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, lesson_id, state, created_at, updated_at
		FROM lesson_progress
		WHERE user_id = $1 AND lesson_id = $2`,
		userID, lessonID,
	)
	p, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		return nil, wrapError("progress", "get", err)
	}
	return p, nil
}

// UpdateState implements store.ProgressStore.UpdateState.
func (s *PostgresProgressStore) UpdateState(
	ctx context.Context,
	userID, lessonID uuid.UUID,
	from, to domain.ProgressState,
) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE lesson_progress
		SET state = $4, updated_at = $5
		WHERE user_id = $1 AND lesson_id = $2 AND state = $3`,
		userID, lessonID, string(from), string(to), time.Now().UTC(),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update lesson progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("lesson_id", lessonID.String()))
		return wrapError("progress", "update_state", err)
	}
	// No affected rows means the row is gone or already moved on
	return CheckRowsAffected(result, store.ErrProgressNotFound)
}

// Delete implements store.ProgressStore.Delete.
func (s *PostgresProgressStore) Delete(ctx context.Context, userID, lessonID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM lesson_progress WHERE user_id = $1 AND lesson_id = $2`, userID, lessonID)
	if err != nil {
		return wrapError("progress", "delete", err)
	}
	return CheckRowsAffected(result, store.ErrProgressNotFound)
}

// ListByCourse implements store.ProgressStore.ListByCourse.
func (s *PostgresProgressStore) ListByCourse(
	ctx context.Context,
	userID, courseID uuid.UUID,
) ([]*domain.LessonProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.user_id, p.lesson_id, p.state, p.created_at, p.updated_at
		FROM lesson_progress p
		JOIN lessons l ON l.id = p.lesson_id
		WHERE p.user_id = $1 AND l.course_id = $2
		ORDER BY l.rank`,
		userID, courseID,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list lesson progress",
			slog.String("error", err.Error()),
			slog.String("course_id", courseID.String()))
		return nil, wrapError("progress", "list", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.LessonProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, wrapError("progress", "list", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("progress", "list", err)
	}
	return out, nil
}

func scanProgress(row rowScanner) (*domain.LessonProgress, error) {
	var (
		p     domain.LessonProgress
		state string
	)
	if err := row.Scan(&p.UserID, &p.LessonID, &state, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.State = domain.ProgressState(state)
	return &p, nil
}
