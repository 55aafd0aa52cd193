package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"asso_funds/internal/service" // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListMembersHandler returns one page of the user directory for board members
func ListMembersHandler(users *service.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := 1                           // Default page number
		pageSize := service.DefaultPageSize // Default page size
		if p := c.Query("page"); p != "" {
			// If valid, set page number
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v
			}
		}
		// Check and set page size within limits
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= service.MaxPageSize {
				pageSize = v
			}
		}
		res, err := users.List(c.Request.Context(), page, pageSize)
		if err != nil {
			respondError(c, err, "Failed to fetch users")
			return
		}
		c.JSON(http.StatusOK, res) // Return the page
	}
}
