package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedbackportal/internal/middleware"
	"feedbackportal/internal/models"
	contextutils "feedbackportal/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFeedbackService for testing
type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) GetAllFeedback(ctx context.Context) (result0 []models.Feedback, err error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Feedback), args.Error(1)
}

func (m *MockFeedbackService) GetFeedbackFiltered(ctx context.Context, status, satisfaction, search string) (result0 []models.Feedback, err error) {
	args := m.Called(ctx, status, satisfaction, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Feedback), args.Error(1)
}

func (m *MockFeedbackService) GetFeedbackByID(ctx context.Context, id int) (result0 *models.Feedback, err error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *MockFeedbackService) CreateFeedback(ctx context.Context, fb *models.Feedback) (result0 *models.Feedback, err error) {
	args := m.Called(ctx, fb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *MockFeedbackService) UpdateFeedbackStatus(ctx context.Context, id int, status models.FeedbackStatus) (result0 *models.Feedback, err error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *MockFeedbackService) GetFeedbackStats(ctx context.Context) (result0 *models.FeedbackStats, err error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedbackStats), args.Error(1)
}

func setupFeedbackTestRouter(feedbackService *MockFeedbackService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handler := NewFeedbackHandler(feedbackService, testLogger())

	router.GET("/feedback", handler.ListFeedback)
	router.POST("/feedback", handler.SubmitFeedback)
	router.PUT("/feedback", handler.UpdateFeedbackStatus)
	router.GET("/feedback/stats", handler.FeedbackStats)

	return router
}

func sampleFeedback() models.Feedback {
	return models.Feedback{
		ID:            1,
		CallID:        "CALL-1001",
		CitizenMobile: "9876543210",
		CitizenName:   "Asha Rao",
		Satisfaction:  models.SatisfactionSatisfied,
		Description:   "Query resolved quickly",
		SubmittedBy:   "operator1",
		SubmittedAt:   time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Status:        models.FeedbackStatusResolved,
	}
}

func TestFeedbackHandler_ListFeedback(t *testing.T) {
	mockService := new(MockFeedbackService)
	router := setupFeedbackTestRouter(mockService)

	mockService.On("GetFeedbackFiltered", mock.Anything, "", "", "").Return([]models.Feedback{sampleFeedback()}, nil)

	req, _ := http.NewRequest("GET", "/feedback", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "CALL-1001", response[0]["callId"])
	assert.Equal(t, "9876543210", response[0]["citizenMobile"])
	// Unset query type serializes as JSON null, not an empty struct
	assert.Nil(t, response[0]["queryType"])

	mockService.AssertExpectations(t)
}

func TestFeedbackHandler_ListFeedback_WithFilters(t *testing.T) {
	mockService := new(MockFeedbackService)
	router := setupFeedbackTestRouter(mockService)

	mockService.On("GetFeedbackFiltered", mock.Anything, "pending", "not-satisfied", "CALL").Return([]models.Feedback{}, nil)

	req, _ := http.NewRequest("GET", "/feedback?status=pending&satisfaction=not-satisfied&search=CALL", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	mockService.AssertExpectations(t)
}

func TestFeedbackHandler_ListFeedback_InvalidStatusFilter(t *testing.T) {
	mockService := new(MockFeedbackService)
	router := setupFeedbackTestRouter(mockService)

	req, _ := http.NewRequest("GET", "/feedback?status=open", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetFeedbackFiltered")
}

func TestFeedbackHandler_SubmitFeedback_Success(t *testing.T) {
	mockService := new(MockFeedbackService)
	router := setupFeedbackTestRouter(mockService)

	created := sampleFeedback()
	mockService.On("CreateFeedback", mock.Anything, mock.MatchedBy(func(fb *models.Feedback) bool {
		return fb.CallID == "CALL-1001" && fb.Satisfaction == models.SatisfactionSatisfied
	})).Return(&created, nil)

	body := SubmitFeedbackRequest{
		CallID:        "CALL-1001",
		CitizenMobile: "9876543210",
		CitizenName:   "Asha Rao",
		Satisfaction:  "satisfied",
		Description:   "Query resolved quickly",
		SubmittedBy:   "operator1",
	}
	reqBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", "/feedback", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])

	feedback := response["feedback"].(map[string]interface{})
	assert.Equal(t, "CALL-1001", feedback["callId"])

	mockService.AssertExpectations(t)
}

func TestFeedbackHandler_SubmitFeedback_ClientSubmissionTime(t *testing.T) {
	mockService := new(MockFeedbackService)
	router := setupFeedbackTestRouter(mockService)

	submittedAt := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	created := sampleFeedback()
	mockService.On("CreateFeedback", mock.Anything, mock.MatchedBy(func(fb *models.Feedback) bool {
		return fb.SubmittedAt.Equal(submittedAt)
	})).Return(&created, nil)

	body := SubmitFeedbackRequest{
		CallID:        "CALL-1001",
		CitizenMobile: "9876543210",
		CitizenName:   "Asha Rao",
		Satisfaction:  "satisfied",
		Description:   "Query resolved quickly",
		SubmittedBy:   "operator1",
		SubmittedAt:   submittedAt,
	}
	reqBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", "/feedback", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFeedbackHandler_SubmitFeedback_DefaultsSubmitterFromSession(t *testing.T) {
	mockService := new(MockFeedbackService)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewFeedbackHandler(mockService, testLogger())
	router.POST("/feedback", func(c *gin.Context) {
		// The auth middleware exposes the session identity this way
		c.Set(middleware.UsernameKey, "exec7")
		handler.SubmitFeedback(c)
	})

	created := sampleFeedback()
	mockService.On("CreateFeedback", mock.Anything, mock.MatchedBy(func(fb *models.Feedback) bool {
		return fb.SubmittedBy == "exec7"
	})).Return(&created, nil)

	body := SubmitFeedbackRequest{
		CallID:        "CALL-1001",
		CitizenMobile: "9876543210",
		CitizenName:   "Asha Rao",
		Satisfaction:  "satisfied",
		Description:   "Query resolved quickly",
	}
	reqBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", "/feedback", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFeedbackHandler_SubmitFeedback_DuplicateCallID(t *testing.T) {
	mockService := new(MockFeedbackService)
	router := setupFeedbackTestRouter(mockService)

	mockService.On("CreateFeedback", mock.Anything, mock.Anything).Return(nil,
		contextutils.WrapError(contextutils.ErrRecordExists, "Feedback with this call ID already exists"))

	body := SubmitFeedbackRequest{
		CallID:        "CALL-1001",
		CitizenMobile: "9876543210",
		CitizenName:   "Asha Rao",
		Satisfaction:  "satisfied",
		Description:   "Query resolved quickly",
		SubmittedBy:   "operator1",
	}
	reqBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", "/feedback", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Feedback with this call ID already exists")
}

func TestFeedbackHandler_UpdateFeedbackStatus_Success(t *testing.T) {
	mockService := new(MockFeedbackService)
	router := setupFeedbackTestRouter(mockService)

	updated := sampleFeedback()
	updated.Status = models.FeedbackStatusResolved
	mockService.On("UpdateFeedbackStatus", mock.Anything, 1, models.FeedbackStatusResolved).Return(&updated, nil)

	reqBody, _ := json.Marshal(UpdateFeedbackStatusRequest{ID: 1, Status: "resolved"})
	req, _ := http.NewRequest("PUT", "/feedback", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])

	mockService.AssertExpectations(t)
}

func TestFeedbackHandler_UpdateFeedbackStatus_NotFound(t *testing.T) {
	mockService := new(MockFeedbackService)
	router := setupFeedbackTestRouter(mockService)

	mockService.On("UpdateFeedbackStatus", mock.Anything, 999, models.FeedbackStatusResolved).Return(nil,
		contextutils.WrapError(contextutils.ErrRecordNotFound, "Feedback not found"))

	reqBody, _ := json.Marshal(UpdateFeedbackStatusRequest{ID: 999, Status: "resolved"})
	req, _ := http.NewRequest("PUT", "/feedback", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Feedback not found")
}

func TestFeedbackHandler_UpdateFeedbackStatus_InvalidStatus(t *testing.T) {
	mockService := new(MockFeedbackService)
	router := setupFeedbackTestRouter(mockService)

	reqBody, _ := json.Marshal(UpdateFeedbackStatusRequest{ID: 1, Status: "closed"})
	req, _ := http.NewRequest("PUT", "/feedback", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "UpdateFeedbackStatus")
}

func TestFeedbackHandler_FeedbackStats(t *testing.T) {
	mockService := new(MockFeedbackService)
	router := setupFeedbackTestRouter(mockService)

	mockService.On("GetFeedbackStats", mock.Anything).Return(&models.FeedbackStats{
		Total:        10,
		Satisfied:    6,
		NotSatisfied: 4,
		Pending:      3,
		Resolved:     7,
	}, nil)

	req, _ := http.NewRequest("GET", "/feedback/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.FeedbackStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 4, stats.NotSatisfied)
	assert.Equal(t, 3, stats.Pending)
}
