// internal/interfaces/http/handlers/common.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/shopping-cart-backend/internal/pkg/apperr"
)

// respondError renders a service error in the uniform envelope:
// {"error": {"message", "status", "timestamp", ...extra fields}}
func respondError(c *gin.Context, err error) {
	appErr := apperr.From(err)

	if appErr.Err != nil {
		// Surface the cause to the request logger, not the client
		_ = c.Error(appErr.Err)
	}

	body := gin.H{
		"message":   appErr.Message,
		"status":    appErr.Status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range appErr.Extra {
		body[k] = v
	}

	c.JSON(appErr.Status, gin.H{"error": body})
}

// respondValidation renders a request binding failure as a 400
func respondValidation(c *gin.Context, err error) {
	respondError(c, apperr.Validation(err.Error()))
}

// parseIDParam parses a positive integer path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"message":   "Invalid " + name + " parameter",
				"status":    http.StatusBadRequest,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			},
		})
		return 0, false
	}
	return uint(id), true
}
