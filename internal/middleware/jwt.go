package middleware

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes

	"asso_funds/internal/auth"   // Credential checks
	"asso_funds/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// Context keys set by JWTAuthMiddleware
const (
	UserKey   = "user"   // *domain.User without password
	UserIDKey = "userID" // string user ID
)

// JWTAuthMiddleware validates the bearer token and attaches the resolved user to the context
func JWTAuthMiddleware(guard *auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := guard.Authenticate(c.Request.Context(), c.GetHeader("Authorization")) // Verify token and load user
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthenticated) {
				// Store failure, not a bad credential
				logrus.WithFields(logrus.Fields{"path": c.FullPath(), "error": err.Error()}).Error("Authentication failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, token failed"})
			return
		}
		c.Set(UserKey, user)      // Store user in context
		c.Set(UserIDKey, user.ID) // Store userID in context
		c.Next()                  // Proceed to the next handler
	}
}

// CurrentUser returns the user attached by JWTAuthMiddleware, or nil
func CurrentUser(c *gin.Context) *domain.User {
	v, exists := c.Get(UserKey) // Get user from context
	if !exists {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}
