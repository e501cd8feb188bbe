package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lessonhub-api/internal/domain"
	"github.com/phrazzld/lessonhub-api/internal/platform/logger"
	"github.com/phrazzld/lessonhub-api/internal/store"
)

// PostgresMembershipStore implements store.MembershipStore. The
// course_memberships primary key on (user_id, course_id) is what makes a
// second join fail.
type PostgresMembershipStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMembershipStore creates a membership store over db.
func NewPostgresMembershipStore(db store.DBTX, logger *slog.Logger) *PostgresMembershipStore {
	// Validate inputs
	if db == nil {
		// ALLOW-PANIC: constructor precondition
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresMembershipStore{
		db:     db,
		logger: logger.With(slog.String("component", "membership_store")),
	}
}

var _ store.MembershipStore = (*PostgresMembershipStore)(nil)

// Create implements store.MembershipStore.Create.
func (s *PostgresMembershipStore) Create(ctx context.Context, m *domain.CourseMembership) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO course_memberships (user_id, course_id, created_at)
		VALUES ($1, $2, $3)`,
		m.UserID, m.CourseID, m.CreatedAt,
	)
	if err != nil {
		// Constraint violations are expected outcomes, only log the rest
		if !IsUniqueViolation(err) && !IsForeignKeyViolation(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to create membership",
				slog.String("error", err.Error()),
				slog.String("user_id", m.UserID.String()),
				slog.String("course_id", m.CourseID.String()))
		}
		return mapConstraintError("membership", "create", err, store.ErrMembershipExists, store.ErrCourseNotFound)
	}
	return nil
}

// Delete implements store.MembershipStore.Delete.
func (s *PostgresMembershipStore) Delete(ctx context.Context, userID, courseID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM course_memberships WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete membership",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("course_id", courseID.String()))
		return wrapError("membership", "delete", err)
	}
	// No affected rows means the user was not a member
	return CheckRowsAffected(result, store.ErrMembershipNotFound)
}

// CountByCourse implements store.MembershipStore.CountByCourse.
func (s *PostgresMembershipStore) CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM course_memberships WHERE course_id = $1`, courseID).Scan(&n)
	if err != nil {
		return 0, wrapError("membership", "count", err)
	}
	return n, nil
}
