package api

import (
	"net/http" // HTTP status codes

	"asso_funds/internal/middleware" // Current user helpers
	"asso_funds/internal/service"    // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request struct for registration
type RegisterRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"` // Current password
	NewPassword string `json:"newPassword" binding:"required"` // Replacement password
}

// RegisterHandler creates a member account
func RegisterHandler(users *service.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := users.Register(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, err, "Failed to create user")
			return
		}
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(users *service.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		res, err := users.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, err, "Failed to log in")
			return
		}
		// Return the identity and token in the response
		c.JSON(http.StatusOK, res)
	}
}

// ChangePasswordHandler replaces the password of the authenticated user
func ChangePasswordHandler(users *service.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c) // Set by JWTAuthMiddleware
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req ChangePasswordRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := users.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
			respondError(c, err, "Failed to change password")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
	}
}
