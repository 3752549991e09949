package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedbackportal/internal/config"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"
	contextutils "feedbackportal/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserService for testing
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetAllUsers(ctx context.Context) (result0 []models.User, err error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int) (result0 *models.User, err error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUserByUsername(ctx context.Context, username string) (result0 *models.User, err error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) CreateUserWithPassword(ctx context.Context, username, password string, userType models.UserType, active bool) (result0 *models.User, err error) {
	args := m.Called(ctx, username, password, userType, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id int, username, password string, userType models.UserType, active bool) (result0 *models.User, err error) {
	args := m.Called(ctx, id, username, password, userType, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserService) AuthenticateUser(ctx context.Context, username, password string) (result0 *models.User, err error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetDB() *sql.DB {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*sql.DB)
}

// MockAdminAuthService for testing
type MockAdminAuthService struct {
	mock.Mock
}

func (m *MockAdminAuthService) AuthenticateAdmin(ctx context.Context, username, password string) (result0 *models.AdminCredential, err error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminCredential), args.Error(1)
}

func (m *MockAdminAuthService) EnsureAdminCredentials(ctx context.Context, username, password string) error {
	args := m.Called(ctx, username, password)
	return args.Error(0)
}

func testLogger() *observability.Logger {
	return observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
}

func hashPassword(t *testing.T, password string) sql.NullString {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return sql.NullString{String: string(hash), Valid: true}
}

func setupAuthTestRouter(userService services.UserServiceInterface, adminAuthService services.AdminAuthServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("test-session", store))

	cfg := &config.Config{
		Server: config.ServerConfig{
			SessionSecret: "test-secret",
			AdminUsername: "admin",
		},
	}

	handler := NewAuthHandler(userService, adminAuthService, cfg, testLogger())

	router.POST("/admin/login", handler.AdminLogin)
	router.POST("/executive/login", handler.ExecutiveLogin)
	router.POST("/logout", handler.Logout)
	router.GET("/auth/status", handler.Status)

	return router
}

func TestAuthHandler_AdminLogin_Success(t *testing.T) {
	mockUserService := new(MockUserService)
	mockAdminAuth := new(MockAdminAuthService)
	router := setupAuthTestRouter(mockUserService, mockAdminAuth)

	cred := &models.AdminCredential{ID: 1, Username: "admin"}
	mockAdminAuth.On("AuthenticateAdmin", mock.Anything, "admin", "secret123").Return(cred, nil)

	reqBody, _ := json.Marshal(LoginRequest{Username: "admin", Password: "secret123"})
	req, _ := http.NewRequest("POST", "/admin/login", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Login successful", response["message"])
	assert.NotEmpty(t, w.Result().Cookies())

	mockAdminAuth.AssertExpectations(t)
}

func TestAuthHandler_AdminLogin_InvalidCredentials(t *testing.T) {
	mockUserService := new(MockUserService)
	mockAdminAuth := new(MockAdminAuthService)
	router := setupAuthTestRouter(mockUserService, mockAdminAuth)

	mockAdminAuth.On("AuthenticateAdmin", mock.Anything, "admin", "wrong").Return(nil, contextutils.ErrInvalidCredentials)

	reqBody, _ := json.Marshal(LoginRequest{Username: "admin", Password: "wrong"})
	req, _ := http.NewRequest("POST", "/admin/login", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Invalid credentials", response["error"])
}

func TestAuthHandler_AdminLogin_StoreFailure(t *testing.T) {
	mockUserService := new(MockUserService)
	mockAdminAuth := new(MockAdminAuthService)
	router := setupAuthTestRouter(mockUserService, mockAdminAuth)

	// A credential-store outage must surface as a server error, not as a
	// rejected login
	mockAdminAuth.On("AuthenticateAdmin", mock.Anything, "admin", "secret123").Return(nil,
		contextutils.WrapError(assert.AnError, "failed to query admin credentials"))

	reqBody, _ := json.Marshal(LoginRequest{Username: "admin", Password: "secret123"})
	req, _ := http.NewRequest("POST", "/admin/login", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "Invalid credentials")
	assert.Empty(t, w.Result().Cookies())
}

func TestAuthHandler_ExecutiveLogin_Success(t *testing.T) {
	mockUserService := new(MockUserService)
	mockAdminAuth := new(MockAdminAuthService)
	router := setupAuthTestRouter(mockUserService, mockAdminAuth)

	testUser := &models.User{
		ID:           7,
		Username:     "executive1",
		PasswordHash: hashPassword(t, "secret123"),
		UserType:     models.UserTypeExecutive,
		IsActive:     true,
	}
	mockUserService.On("GetUserByUsername", mock.Anything, "executive1").Return(testUser, nil)

	reqBody, _ := json.Marshal(LoginRequest{Username: "executive1", Password: "secret123"})
	req, _ := http.NewRequest("POST", "/executive/login", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])

	user := response["user"].(map[string]interface{})
	assert.Equal(t, "executive1", user["username"])
	assert.Equal(t, "executive", user["type"])
	// Password material never leaves the server
	assert.NotContains(t, w.Body.String(), testUser.PasswordHash.String)

	mockUserService.AssertExpectations(t)
}

func TestAuthHandler_ExecutiveLogin_UnknownUser(t *testing.T) {
	mockUserService := new(MockUserService)
	mockAdminAuth := new(MockAdminAuthService)
	router := setupAuthTestRouter(mockUserService, mockAdminAuth)

	mockUserService.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, nil)

	reqBody, _ := json.Marshal(LoginRequest{Username: "ghost", Password: "whatever"})
	req, _ := http.NewRequest("POST", "/executive/login", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestAuthHandler_ExecutiveLogin_InactiveAccount(t *testing.T) {
	mockUserService := new(MockUserService)
	mockAdminAuth := new(MockAdminAuthService)
	router := setupAuthTestRouter(mockUserService, mockAdminAuth)

	testUser := &models.User{
		ID:           8,
		Username:     "dormant",
		PasswordHash: hashPassword(t, "secret123"),
		UserType:     models.UserTypeOperator,
		IsActive:     false,
	}
	mockUserService.On("GetUserByUsername", mock.Anything, "dormant").Return(testUser, nil)

	// Wrong password on purpose: the inactive check must win regardless
	reqBody, _ := json.Marshal(LoginRequest{Username: "dormant", Password: "not-the-password"})
	req, _ := http.NewRequest("POST", "/executive/login", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Account is inactive. Please contact administrator.")
}

func TestAuthHandler_ExecutiveLogin_WrongPassword(t *testing.T) {
	mockUserService := new(MockUserService)
	mockAdminAuth := new(MockAdminAuthService)
	router := setupAuthTestRouter(mockUserService, mockAdminAuth)

	testUser := &models.User{
		ID:           9,
		Username:     "executive1",
		PasswordHash: hashPassword(t, "secret123"),
		UserType:     models.UserTypeExecutive,
		IsActive:     true,
	}
	mockUserService.On("GetUserByUsername", mock.Anything, "executive1").Return(testUser, nil)

	reqBody, _ := json.Marshal(LoginRequest{Username: "executive1", Password: "wrong"})
	req, _ := http.NewRequest("POST", "/executive/login", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestAuthHandler_ExecutiveLogin_AdminAccountRejected(t *testing.T) {
	mockUserService := new(MockUserService)
	mockAdminAuth := new(MockAdminAuthService)
	router := setupAuthTestRouter(mockUserService, mockAdminAuth)

	testUser := &models.User{
		ID:           2,
		Username:     "superuser",
		PasswordHash: hashPassword(t, "secret123"),
		UserType:     models.UserTypeAdmin,
		IsActive:     true,
	}
	mockUserService.On("GetUserByUsername", mock.Anything, "superuser").Return(testUser, nil)

	reqBody, _ := json.Marshal(LoginRequest{Username: "superuser", Password: "secret123"})
	req, _ := http.NewRequest("POST", "/executive/login", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied. Admin users cannot login here.")
}

func TestAuthHandler_Logout(t *testing.T) {
	mockUserService := new(MockUserService)
	mockAdminAuth := new(MockAdminAuthService)
	router := setupAuthTestRouter(mockUserService, mockAdminAuth)

	req, _ := http.NewRequest("POST", "/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Logout successful", response["message"])
}

func TestAuthHandler_Status_Unauthenticated(t *testing.T) {
	mockUserService := new(MockUserService)
	mockAdminAuth := new(MockAdminAuthService)
	router := setupAuthTestRouter(mockUserService, mockAdminAuth)

	req, _ := http.NewRequest("GET", "/auth/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, false, response["authenticated"])
	assert.Nil(t, response["user"])
}

func TestAuthHandler_Status_AfterLogin(t *testing.T) {
	mockUserService := new(MockUserService)
	mockAdminAuth := new(MockAdminAuthService)
	router := setupAuthTestRouter(mockUserService, mockAdminAuth)

	cred := &models.AdminCredential{ID: 1, Username: "admin"}
	mockAdminAuth.On("AuthenticateAdmin", mock.Anything, "admin", "secret123").Return(cred, nil)

	reqBody, _ := json.Marshal(LoginRequest{Username: "admin", Password: "secret123"})
	loginReq, _ := http.NewRequest("POST", "/admin/login", bytes.NewBuffer(reqBody))
	loginReq.Header.Set("Content-Type", "application/json")
	loginW := httptest.NewRecorder()
	router.ServeHTTP(loginW, loginReq)
	require.Equal(t, http.StatusOK, loginW.Code)
	cookies := loginW.Result().Cookies()
	require.NotEmpty(t, cookies)

	statusReq, _ := http.NewRequest("GET", "/auth/status", nil)
	statusReq.AddCookie(cookies[0])
	statusW := httptest.NewRecorder()
	router.ServeHTTP(statusW, statusReq)

	assert.Equal(t, http.StatusOK, statusW.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(statusW.Body.Bytes(), &response))
	assert.Equal(t, true, response["authenticated"])

	user := response["user"].(map[string]interface{})
	assert.Equal(t, "admin", user["username"])
	assert.Equal(t, true, user["isAdmin"])
}
