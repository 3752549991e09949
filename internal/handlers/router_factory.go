package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"feedbackportal/internal/config"
	"feedbackportal/internal/middleware"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"
	"feedbackportal/internal/version"
)

// NewRouter creates the portal router with all middleware and routes wired up
func NewRouter(
	cfg *config.Config,
	feedbackService services.FeedbackServiceInterface,
	userService services.UserServiceInterface,
	adminAuthService services.AdminAuthServiceInterface,
	logger *observability.Logger,
) *gin.Engine {
	// Setup Gin mode before the engine is created
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorRecoveryMiddleware(nil))

	// HTTP request logging middleware using our observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		if statusCode >= 500 {
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		} else if statusCode >= 400 {
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		} else {
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := userService.GetDB().PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "feedback-backend",
				"error":   "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "feedback-backend",
			"version": version.Version,
		})
	})

	// OpenTelemetry middleware for HTTP tracing and context propagation
	router.Use(observability.GinMiddlewareWithErrorHandling("feedback-backend"))

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	// Setup CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Setup session middleware
	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	// Security middleware
	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	// Initialize handlers
	authHandler := NewAuthHandler(userService, adminAuthService, cfg, logger)
	feedbackHandler := NewFeedbackHandler(feedbackService, logger)
	userAdminHandler := NewUserAdminHandler(userService, logger)

	api := router.Group("/api")
	{
		// Login endpoints are public
		api.POST("/admin/login", authHandler.AdminLogin)
		api.POST("/executive/login", authHandler.ExecutiveLogin)
		api.POST("/logout", authHandler.Logout)
		api.GET("/auth/status", authHandler.Status)

		// Feedback submission is open to any authenticated session
		api.POST("/feedback", middleware.RequireAuth(), middleware.RequestValidationMiddleware(), feedbackHandler.SubmitFeedback)

		// Reading and resolving feedback is admin-only
		api.GET("/feedback", middleware.RequireAdmin(), feedbackHandler.ListFeedback)
		api.PUT("/feedback", middleware.RequireAdmin(), middleware.RequestValidationMiddleware(), feedbackHandler.UpdateFeedbackStatus)
		api.GET("/feedback/stats", middleware.RequireAdmin(), feedbackHandler.FeedbackStats)

		// User management is admin-only
		users := api.Group("/users")
		users.Use(middleware.RequireAdmin())
		users.Use(middleware.RequestValidationMiddleware())
		{
			users.GET("", userAdminHandler.ListUsers)
			users.POST("", userAdminHandler.CreateUser)
			users.PUT("/:id", userAdminHandler.UpdateUser)
			users.DELETE("/:id", userAdminHandler.DeleteUser)
		}
	}

	return router
}
