package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes

	"asso_funds/internal/domain" // Importing domain errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// statusOf maps a domain failure class to its HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrAlreadyDecided):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err as a JSON error; unexpected failures are logged and hidden from the client
func respondError(c *gin.Context, err error, internalMsg string) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		// Log the error with context
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method, // HTTP method
			"path":   c.FullPath(),     // Route pattern
			"error":  err.Error(),      // Error message
		}).Error(internalMsg)
		c.JSON(status, gin.H{"error": internalMsg})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
