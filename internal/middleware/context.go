package middleware

import "github.com/gin-gonic/gin"

// Context keys set by this package.
const (
	UserIDKey    = "user_id"
	EmailKey     = "email"
	RequestIDKey = "request_id"
)

// UserID returns the authenticated user's id, if AuthMiddleware ran.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// RequestID returns the id assigned by RequestIDMiddleware.
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
