package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	contextutils "feedbackportal/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// FeedbackServiceInterface defines the operations on citizen feedback records
type FeedbackServiceInterface interface {
	GetAllFeedback(ctx context.Context) ([]models.Feedback, error)
	GetFeedbackFiltered(ctx context.Context, status, satisfaction, search string) ([]models.Feedback, error)
	GetFeedbackByID(ctx context.Context, id int) (*models.Feedback, error)
	CreateFeedback(ctx context.Context, fb *models.Feedback) (*models.Feedback, error)
	UpdateFeedbackStatus(ctx context.Context, id int, status models.FeedbackStatus) (*models.Feedback, error)
	GetFeedbackStats(ctx context.Context) (*models.FeedbackStats, error)
}

// FeedbackService manages citizen feedback records
type FeedbackService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewFeedbackServiceWithLogger creates a new FeedbackService instance
func NewFeedbackServiceWithLogger(db *sql.DB, logger *observability.Logger) *FeedbackService {
	if db == nil {
		panic("NewFeedbackServiceWithLogger: db is nil")
	}
	if logger == nil {
		panic("NewFeedbackServiceWithLogger: logger is nil")
	}
	return &FeedbackService{db: db, logger: logger}
}

const feedbackSelectFields = `id, call_id, citizen_mobile, citizen_name, query_type, satisfaction, description, submitted_by, submitted_at, status, created_at, updated_at`

// GetAllFeedback returns every feedback record, newest submission first
func (s *FeedbackService) GetAllFeedback(ctx context.Context) (result0 []models.Feedback, err error) {
	return s.GetFeedbackFiltered(ctx, "", "", "")
}

// GetFeedbackFiltered returns feedback records matching the optional status,
// satisfaction and substring-search filters, newest submission first.
// Empty filters match everything.
func (s *FeedbackService) GetFeedbackFiltered(ctx context.Context, status, satisfaction, search string) (result0 []models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_feedback_filtered",
		observability.AttributeStatusFilter(status),
		observability.AttributeSearch(search),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + feedbackSelectFields + ` FROM feedback`
	var conditions []string
	var args []interface{}
	argIndex := 1

	if status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, status)
		argIndex++
	}
	if satisfaction != "" {
		conditions = append(conditions, fmt.Sprintf("satisfaction = $%d", argIndex))
		args = append(args, satisfaction)
		argIndex++
	}
	if search != "" {
		conditions = append(conditions,
			fmt.Sprintf("(call_id ILIKE $%d OR citizen_mobile ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+search+"%")
		argIndex++
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY submitted_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query feedback")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	feedback := []models.Feedback{}
	for rows.Next() {
		fb, scanErr := scanFeedbackFromRows(rows)
		if scanErr != nil {
			return nil, contextutils.WrapError(scanErr, "failed to scan feedback row")
		}
		feedback = append(feedback, *fb)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate feedback rows")
	}

	span.SetAttributes(attribute.Int("feedback.count", len(feedback)))
	return feedback, nil
}

// GetFeedbackByID returns a single feedback record or ErrRecordNotFound
func (s *FeedbackService) GetFeedbackByID(ctx context.Context, id int) (result0 *models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_feedback_by_id",
		observability.AttributeFeedbackID(id),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + feedbackSelectFields + ` FROM feedback WHERE id = $1`
	fb, err := scanFeedbackFromRow(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, contextutils.WrapError(contextutils.ErrRecordNotFound, "Feedback not found")
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get feedback")
	}
	return fb, nil
}

// ValidateFeedback checks a feedback submission before it is persisted
func ValidateFeedback(fb *models.Feedback) error {
	switch {
	case fb.CallID == "":
		return contextutils.NewAppError(contextutils.ErrorCodeMissingRequired, contextutils.SeverityWarn, "Call ID is required", "")
	case fb.CitizenMobile == "":
		return contextutils.NewAppError(contextutils.ErrorCodeMissingRequired, contextutils.SeverityWarn, "Citizen mobile is required", "")
	case fb.CitizenName == "":
		return contextutils.NewAppError(contextutils.ErrorCodeMissingRequired, contextutils.SeverityWarn, "Citizen name is required", "")
	case fb.Description == "":
		return contextutils.NewAppError(contextutils.ErrorCodeMissingRequired, contextutils.SeverityWarn, "Description is required", "")
	case fb.SubmittedBy == "":
		return contextutils.NewAppError(contextutils.ErrorCodeMissingRequired, contextutils.SeverityWarn, "Submitted by is required", "")
	}

	if !contextutils.IsValidCitizenMobile(fb.CitizenMobile) {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidFormat, contextutils.SeverityWarn,
			"Citizen mobile must be exactly 10 digits", "")
	}
	if !fb.Satisfaction.IsValid() {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
			"Satisfaction must be 'satisfied' or 'not-satisfied'", "")
	}
	if fb.Status != "" && !fb.Status.IsValid() {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
			"Status must be 'pending' or 'resolved'", "")
	}
	return nil
}

// CreateFeedback validates and persists a new feedback record.
// Status defaults from satisfaction when not supplied; submission time defaults to now.
func (s *FeedbackService) CreateFeedback(ctx context.Context, fb *models.Feedback) (result0 *models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "create_feedback",
		observability.AttributeCallID(fb.CallID),
	)
	defer observability.FinishSpan(span, &err)

	if err = ValidateFeedback(fb); err != nil {
		return nil, err
	}

	if fb.Status == "" {
		fb.Status = models.DefaultStatusFor(fb.Satisfaction)
	}
	if fb.SubmittedAt.IsZero() {
		fb.SubmittedAt = time.Now()
	}

	query := `INSERT INTO feedback (call_id, citizen_mobile, citizen_name, query_type, satisfaction, description, submitted_by, submitted_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	now := time.Now()
	err = s.db.QueryRowContext(ctx, query,
		fb.CallID, fb.CitizenMobile, fb.CitizenName, fb.QueryType,
		fb.Satisfaction, fb.Description, fb.SubmittedBy, fb.SubmittedAt,
		fb.Status, now, now,
	).Scan(&fb.ID, &fb.CreatedAt, &fb.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, contextutils.WrapError(contextutils.ErrRecordExists, "Feedback with this call ID already exists")
		}
		return nil, contextutils.WrapError(err, "failed to insert feedback")
	}

	s.logger.Info(ctx, "Feedback created", map[string]interface{}{
		"feedback_id": fb.ID,
		"call_id":     fb.CallID,
		"status":      string(fb.Status),
	})
	return fb, nil
}

// UpdateFeedbackStatus sets the workflow status of an existing feedback record
func (s *FeedbackService) UpdateFeedbackStatus(ctx context.Context, id int, status models.FeedbackStatus) (result0 *models.Feedback, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "update_feedback_status",
		observability.AttributeFeedbackID(id),
		observability.AttributeStatusFilter(string(status)),
	)
	defer observability.FinishSpan(span, &err)

	if !status.IsValid() {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
			"Status must be 'pending' or 'resolved'", "")
	}

	query := `UPDATE feedback SET status = $1, updated_at = $2 WHERE id = $3
		RETURNING ` + feedbackSelectFields
	fb, err := scanFeedbackFromRow(s.db.QueryRowContext(ctx, query, status, time.Now(), id))
	if err == sql.ErrNoRows {
		return nil, contextutils.WrapError(contextutils.ErrRecordNotFound, "Feedback not found")
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to update feedback status")
	}

	s.logger.Info(ctx, "Feedback status updated", map[string]interface{}{
		"feedback_id": fb.ID,
		"status":      string(fb.Status),
	})
	return fb, nil
}

// GetFeedbackStats returns the aggregate counts shown on the admin dashboard
func (s *FeedbackService) GetFeedbackStats(ctx context.Context) (result0 *models.FeedbackStats, err error) {
	ctx, span := observability.TraceFeedbackFunction(ctx, "get_feedback_stats")
	defer observability.FinishSpan(span, &err)

	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE satisfaction = 'satisfied'),
		COUNT(*) FILTER (WHERE satisfaction = 'not-satisfied'),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'resolved')
		FROM feedback`

	stats := &models.FeedbackStats{}
	err = s.db.QueryRowContext(ctx, query).Scan(
		&stats.Total, &stats.Satisfied, &stats.NotSatisfied, &stats.Pending, &stats.Resolved,
	)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query feedback stats")
	}
	return stats, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFeedback(row rowScanner) (*models.Feedback, error) {
	var fb models.Feedback
	err := row.Scan(
		&fb.ID, &fb.CallID, &fb.CitizenMobile, &fb.CitizenName, &fb.QueryType,
		&fb.Satisfaction, &fb.Description, &fb.SubmittedBy, &fb.SubmittedAt,
		&fb.Status, &fb.CreatedAt, &fb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

func scanFeedbackFromRow(row *sql.Row) (*models.Feedback, error) {
	return scanFeedback(row)
}

func scanFeedbackFromRows(rows *sql.Rows) (*models.Feedback, error) {
	return scanFeedback(rows)
}
