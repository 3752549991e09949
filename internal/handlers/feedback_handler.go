package handlers

import (
	"net/http"
	"time"

	"feedbackportal/internal/middleware"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"
	contextutils "feedbackportal/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// SubmitFeedbackRequest is the body for POST /api/feedback
type SubmitFeedbackRequest struct {
	CallID        string    `json:"callId"`
	CitizenMobile string    `json:"citizenMobile"`
	CitizenName   string    `json:"citizenName"`
	QueryType     string    `json:"queryType"`
	Satisfaction  string    `json:"satisfaction"`
	Description   string    `json:"description"`
	SubmittedBy   string    `json:"submittedBy"`
	SubmittedAt   time.Time `json:"submittedAt"`
	Status        string    `json:"status"`
}

// UpdateFeedbackStatusRequest is the body for PUT /api/feedback
type UpdateFeedbackStatusRequest struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

// FeedbackHandler handles citizen feedback HTTP requests
type FeedbackHandler struct {
	feedbackService services.FeedbackServiceInterface
	logger          *observability.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler instance
func NewFeedbackHandler(feedbackService services.FeedbackServiceInterface, logger *observability.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		logger:          logger,
	}
}

// ListFeedback returns feedback records, newest first. Supports optional
// status, satisfaction and search query parameters.
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "list_feedback")
	defer observability.FinishSpan(span, nil)

	status := c.Query("status")
	satisfaction := c.Query("satisfaction")
	search := c.Query("search")

	span.SetAttributes(
		attribute.String("feedback.status_filter", status),
		attribute.String("feedback.satisfaction_filter", satisfaction),
		attribute.Bool("feedback.search_provided", search != ""),
	)

	if status != "" && !models.FeedbackStatus(status).IsValid() {
		HandleValidationError(c, "status", status, "must be 'pending' or 'resolved'")
		return
	}
	if satisfaction != "" && !models.Satisfaction(satisfaction).IsValid() {
		HandleValidationError(c, "satisfaction", satisfaction, "must be 'satisfied' or 'not-satisfied'")
		return
	}

	feedback, err := h.feedbackService.GetFeedbackFiltered(c.Request.Context(), status, satisfaction, search)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to list feedback", err, nil)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}

// SubmitFeedback creates a new feedback record. The status defaults from the
// satisfaction value when the caller does not supply one.
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_feedback")
	defer observability.FinishSpan(span, nil)

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	span.SetAttributes(
		attribute.String("feedback.call_id", req.CallID),
		attribute.String("feedback.satisfaction", req.Satisfaction),
	)

	fb := &models.Feedback{
		CallID:        req.CallID,
		CitizenMobile: req.CitizenMobile,
		CitizenName:   req.CitizenName,
		Satisfaction:  models.Satisfaction(req.Satisfaction),
		Description:   req.Description,
		SubmittedBy:   req.SubmittedBy,
		SubmittedAt:   req.SubmittedAt,
		Status:        models.FeedbackStatus(req.Status),
	}
	if req.QueryType != "" {
		fb.QueryType.String = req.QueryType
		fb.QueryType.Valid = true
	}
	// Attribute the submission to the session user when the body omits it
	if fb.SubmittedBy == "" {
		if username, ok := c.Get(middleware.UsernameKey); ok {
			fb.SubmittedBy, _ = username.(string)
		}
	}

	created, err := h.feedbackService.CreateFeedback(c.Request.Context(), fb)
	if err != nil {
		h.logger.Warn(c.Request.Context(), "Failed to create feedback", map[string]interface{}{
			"call_id": req.CallID,
			"error":   err.Error(),
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"feedback": created,
	})
}

// UpdateFeedbackStatus updates the resolution status of a feedback record
func (h *FeedbackHandler) UpdateFeedbackStatus(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "update_feedback_status")
	defer observability.FinishSpan(span, nil)

	var req UpdateFeedbackStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	span.SetAttributes(
		attribute.Int("feedback.id", req.ID),
		attribute.String("feedback.status", req.Status),
	)

	if !models.FeedbackStatus(req.Status).IsValid() {
		HandleValidationError(c, "status", req.Status, "must be 'pending' or 'resolved'")
		return
	}

	updated, err := h.feedbackService.UpdateFeedbackStatus(c.Request.Context(), req.ID, models.FeedbackStatus(req.Status))
	if err != nil {
		h.logger.Warn(c.Request.Context(), "Failed to update feedback status", map[string]interface{}{
			"feedback_id": req.ID,
			"error":       err.Error(),
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"feedback": updated,
	})
}

// FeedbackStats returns aggregate counts over all feedback records
func (h *FeedbackHandler) FeedbackStats(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "feedback_stats")
	defer observability.FinishSpan(span, nil)

	stats, err := h.feedbackService.GetFeedbackStats(c.Request.Context())
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to compute feedback stats", err, nil)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
