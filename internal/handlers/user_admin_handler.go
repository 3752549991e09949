package handlers

import (
	"net/http"
	"strconv"

	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"
	contextutils "feedbackportal/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// CreateUserRequest is the body for POST /api/users
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Type     string `json:"type"`
	Active   *bool  `json:"active"`
}

// UpdateUserRequest is the body for PUT /api/users/:id. An empty password
// keeps the stored one.
type UpdateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Type     string `json:"type"`
	Active   *bool  `json:"active"`
}

// UserAdminHandler handles admin management of portal user accounts
type UserAdminHandler struct {
	userService services.UserServiceInterface
	logger      *observability.Logger
}

// NewUserAdminHandler creates a new UserAdminHandler instance
func NewUserAdminHandler(userService services.UserServiceInterface, logger *observability.Logger) *UserAdminHandler {
	return &UserAdminHandler{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers returns all portal accounts without password material
func (h *UserAdminHandler) ListUsers(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "list_users")
	defer observability.FinishSpan(span, nil)

	users, err := h.userService.GetAllUsers(c.Request.Context())
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to list users", err, nil)
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("users.count", len(users)))
	c.JSON(http.StatusOK, users)
}

// CreateUser creates a new portal account. Accounts default to active unless
// the request says otherwise.
func (h *UserAdminHandler) CreateUser(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "create_user")
	defer observability.FinishSpan(span, nil)

	var req CreateUserRequest
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
		attribute.String("user.username", req.Username),
		attribute.String("user.type", req.Type),
	)

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	user, err := h.userService.CreateUserWithPassword(c.Request.Context(), req.Username, req.Password, models.UserType(req.Type), active)
	if err != nil {
		h.logger.Warn(c.Request.Context(), "Failed to create user", map[string]interface{}{
			"username": req.Username,
			"error":    err.Error(),
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

// UpdateUser updates an existing portal account
func (h *UserAdminHandler) UpdateUser(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "update_user")
	defer observability.FinishSpan(span, nil)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "id", c.Param("id"), "must be an integer")
		return
	}

	var req UpdateUserRequest
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
		attribute.Int("user.id", id),
		attribute.String("user.username", req.Username),
	)

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), id, req.Username, req.Password, models.UserType(req.Type), active)
	if err != nil {
		h.logger.Warn(c.Request.Context(), "Failed to update user", map[string]interface{}{
			"user_id": id,
			"error":   err.Error(),
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

// DeleteUser removes a portal account
func (h *UserAdminHandler) DeleteUser(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_user")
	defer observability.FinishSpan(span, nil)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "id", c.Param("id"), "must be an integer")
		return
	}

	span.SetAttributes(attribute.Int("user.id", id))

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		h.logger.Warn(c.Request.Context(), "Failed to delete user", map[string]interface{}{
			"user_id": id,
			"error":   err.Error(),
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
	})
}
