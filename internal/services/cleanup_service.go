package services

import (
	"context"
	"database/sql"
	"time"

	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"
)

// DefaultFeedbackRetentionDays is how long resolved feedback is kept before
// the cleanup job may purge it
const DefaultFeedbackRetentionDays = 365

// CleanupService removes data the portal no longer needs to retain
type CleanupService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewCleanupServiceWithLogger creates a new CleanupService instance
func NewCleanupServiceWithLogger(db *sql.DB, logger *observability.Logger) *CleanupService {
	if db == nil {
		panic("NewCleanupServiceWithLogger: db is nil")
	}
	if logger == nil {
		panic("NewCleanupServiceWithLogger: logger is nil")
	}
	return &CleanupService{db: db, logger: logger}
}

// GetCleanupStats reports what a cleanup run would remove without touching
// any rows
func (s *CleanupService) GetCleanupStats(ctx context.Context, retentionDays int) (result0 map[string]int, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "get_cleanup_stats")
	defer observability.FinishSpan(span, &err)

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var expiredResolved int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feedback WHERE status = 'resolved' AND updated_at < $1`,
		cutoff,
	).Scan(&expiredResolved)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to count expired resolved feedback")
	}

	var inactiveUsers int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE is_active = FALSE`,
	).Scan(&inactiveUsers)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to count inactive users")
	}

	return map[string]int{
		"expired_resolved_feedback": expiredResolved,
		"inactive_users":            inactiveUsers,
	}, nil
}

// PurgeResolvedFeedback deletes resolved feedback whose last update is older
// than the retention window. Pending feedback is never touched.
func (s *CleanupService) PurgeResolvedFeedback(ctx context.Context, retentionDays int) (result0 int, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "purge_resolved_feedback")
	defer observability.FinishSpan(span, &err)

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM feedback WHERE status = 'resolved' AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, contextutils.WrapError(err, "failed to purge resolved feedback")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, contextutils.WrapError(err, "failed to check purge result")
	}

	s.logger.Info(ctx, "Purged resolved feedback", map[string]interface{}{
		"removed":        rowsAffected,
		"retention_days": retentionDays,
	})
	return int(rowsAffected), nil
}
