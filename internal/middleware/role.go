package middleware

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes

	"asso_funds/internal/auth"   // Role checks
	"asso_funds/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// RoleMiddleware allows the request through only for users holding one of roles.
// It must run after JWTAuthMiddleware.
func RoleMiddleware(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := auth.RequireRole(CurrentUser(c), roles...) // Check the role of the authenticated user
		switch {
		case err == nil:
			c.Next() // Allowed, proceed to the next handler
		case errors.Is(err, domain.ErrUnauthenticated):
			// No user in context, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		default:
			// Role not allowed, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		}
	}
}
