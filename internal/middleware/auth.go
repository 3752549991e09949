// Package middleware provides authentication and authorization middleware for the Gin web framework.
package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Session keys for storing user information
const (
	// UserIDKey is the key used to store user ID in session
	UserIDKey = "user_id"
	// UsernameKey is the key used to store username in session
	UsernameKey = "username"
	// UserTypeKey is the key used to store the account role in session
	UserTypeKey = "user_type"
	// IsAdminKey marks sessions established through the admin credential store
	IsAdminKey = "is_admin"
)

func abortUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": "Authentication required",
		"code":  "UNAUTHORIZED",
	})
	c.Abort()
}

// sessionIdentity extracts and validates the identity stored in the session.
// Returns ok=false when the session is missing or malformed.
func sessionIdentity(c *gin.Context) (userID int, username string, ok bool) {
	session := sessions.Default(c)

	rawID := session.Get(UserIDKey)
	if rawID == nil {
		return 0, "", false
	}
	userID, idOK := rawID.(int)
	if !idOK {
		// JSON-decoded session values may come back as float64
		if idFloat, floatOK := rawID.(float64); floatOK {
			userID = int(idFloat)
		} else {
			return 0, "", false
		}
	}

	rawUsername := session.Get(UsernameKey)
	username, nameOK := rawUsername.(string)
	if !nameOK || username == "" {
		return 0, "", false
	}

	return userID, username, true
}

// RequireAuth returns a middleware that requires an authenticated session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, username, ok := sessionIdentity(c)
		if !ok {
			abortUnauthorized(c)
			return
		}

		// Store user info in context for handlers to use
		c.Set(UserIDKey, userID)
		c.Set(UsernameKey, username)

		c.Next()
	}
}

// RequireAdmin returns a middleware that requires a session established
// through the admin login. Regular portal sessions are rejected with 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, username, ok := sessionIdentity(c)
		if !ok {
			abortUnauthorized(c)
			return
		}

		session := sessions.Default(c)
		isAdmin, adminOK := session.Get(IsAdminKey).(bool)
		if !adminOK || !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
				"code":  "FORBIDDEN",
			})
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UsernameKey, username)

		c.Next()
	}
}
