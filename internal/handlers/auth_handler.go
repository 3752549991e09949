package handlers

import (
	"net/http"

	"feedbackportal/internal/config"
	"feedbackportal/internal/middleware"
	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"
	contextutils "feedbackportal/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// LoginRequest is the body for both login endpoints
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	userService      services.UserServiceInterface
	adminAuthService services.AdminAuthServiceInterface
	config           *config.Config
	logger           *observability.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(userService services.UserServiceInterface, adminAuthService services.AdminAuthServiceInterface, cfg *config.Config, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{
		userService:      userService,
		adminAuthService: adminAuthService,
		config:           cfg,
		logger:           logger,
	}
}

// AdminLogin authenticates against the dedicated admin credential store.
// Unknown usernames and wrong passwords get the same response so the
// endpoint cannot be used to enumerate admin accounts.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_login")
	defer observability.FinishSpan(span, nil)

	var req LoginRequest
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
		attribute.String("auth.username", req.Username),
		attribute.Bool("auth.password_provided", req.Password != ""),
	)

	cred, err := h.adminAuthService.AuthenticateAdmin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if contextutils.IsError(err, contextutils.ErrInvalidCredentials) {
			h.logger.Warn(c.Request.Context(), "Admin login failed", map[string]interface{}{"username": req.Username})
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// A credential-store failure must not read as a rejected login
		h.logger.Error(c.Request.Context(), "Admin login lookup failed", err, map[string]interface{}{"username": req.Username})
		HandleAppError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.UserIDKey, cred.ID)
	session.Set(middleware.UsernameKey, cred.Username)
	session.Set(middleware.UserTypeKey, string(models.UserTypeAdmin))
	session.Set(middleware.IsAdminKey, true)

	if err := session.Save(); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to save session", err, nil)
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user": gin.H{
			"id":       cred.ID,
			"username": cred.Username,
			"type":     string(models.UserTypeAdmin),
		},
	})
}

// ExecutiveLogin authenticates portal staff against the users table. The
// inactive check runs before the password compare so a deactivated account
// always sees the inactive message, and admin-type accounts are turned away
// toward the admin login.
func (h *AuthHandler) ExecutiveLogin(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "executive_login")
	defer observability.FinishSpan(span, nil)

	var req LoginRequest
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
		attribute.String("auth.username", req.Username),
		attribute.Bool("auth.password_provided", req.Password != ""),
	)

	user, err := h.userService.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to look up user for login", err, map[string]interface{}{"username": req.Username})
		HandleAppError(c, contextutils.ErrInternalError)
		return
	}

	if user == nil || !user.PasswordHash.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.IsActive {
		span.SetAttributes(attribute.Bool("auth.account_active", false))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is inactive. Please contact administrator."})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.UserType == models.UserTypeAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied. Admin users cannot login here."})
		return
	}

	span.SetAttributes(
		attribute.Int("user.id", user.ID),
		attribute.String("user.type", string(user.UserType)),
	)

	session := sessions.Default(c)
	session.Set(middleware.UserIDKey, user.ID)
	session.Set(middleware.UsernameKey, user.Username)
	session.Set(middleware.UserTypeKey, string(user.UserType))
	session.Set(middleware.IsAdminKey, false)

	if err := session.Save(); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to save session", err, nil)
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    user,
	})
}

// Logout clears the current session
func (h *AuthHandler) Logout(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer observability.FinishSpan(span, nil)

	session := sessions.Default(c)
	if username, ok := session.Get(middleware.UsernameKey).(string); ok {
		span.SetAttributes(attribute.String("user.username", username))
	}

	session.Clear()
	if err := session.Save(); err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to clear session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout successful",
	})
}

// Status reports whether the caller holds a valid session and who it belongs to
func (h *AuthHandler) Status(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "auth_status")
	defer observability.FinishSpan(span, nil)

	session := sessions.Default(c)
	userID := session.Get(middleware.UserIDKey)
	username, usernameOK := session.Get(middleware.UsernameKey).(string)

	if userID == nil || !usernameOK {
		span.SetAttributes(attribute.Bool("auth.authenticated", false))
		c.JSON(http.StatusOK, gin.H{
			"authenticated": false,
			"user":          nil,
		})
		return
	}

	userType, _ := session.Get(middleware.UserTypeKey).(string)
	isAdmin, _ := session.Get(middleware.IsAdminKey).(bool)

	span.SetAttributes(
		attribute.Bool("auth.authenticated", true),
		attribute.String("user.username", username),
	)

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user": gin.H{
			"username": username,
			"type":     userType,
			"isAdmin":  isAdmin,
		},
	})
}
