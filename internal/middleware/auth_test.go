package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("test-session", store))
	return router
}

func setSessionCookie(t *testing.T, router *gin.Engine, values map[string]interface{}) *http.Cookie {
	setupPath := "/setup-session-" + t.Name()
	router.GET(setupPath, func(c *gin.Context) {
		session := sessions.Default(c)
		for k, v := range values {
			session.Set(k, v)
		}
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", setupPath, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestRequireAuth_AllowsValidSession(t *testing.T) {
	router := newTestRouter()

	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		assert.Equal(t, 42, c.GetInt(UserIDKey))
		assert.Equal(t, "operator1", c.GetString(UsernameKey))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	sessionCookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   42,
		UsernameKey: "operator1",
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_Unauthenticated(t *testing.T) {
	router := newTestRouter()

	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication required")
}

func TestRequireAuth_MissingUsername(t *testing.T) {
	router := newTestRouter()

	router.GET("/protected", RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	sessionCookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey: 42,
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin_AllowsAdminSession(t *testing.T) {
	router := newTestRouter()

	router.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		assert.Equal(t, 1, c.GetInt(UserIDKey))
		assert.Equal(t, "admin", c.GetString(UsernameKey))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	sessionCookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   1,
		UsernameKey: "admin",
		IsAdminKey:  true,
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin_ForbiddenForRegularSession(t *testing.T) {
	router := newTestRouter()

	router.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	sessionCookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   9,
		UsernameKey: "executive1",
		IsAdminKey:  false,
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Admin access required")
}

func TestRequireAdmin_ForbiddenWhenFlagMissing(t *testing.T) {
	router := newTestRouter()

	router.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	sessionCookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   9,
		UsernameKey: "executive1",
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_Unauthenticated(t *testing.T) {
	router := newTestRouter()

	router.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
