// internal/interfaces/http/middleware/recovery.go
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/shopping-cart-backend/internal/config"
)

// Recovery converts panics into a 500 response. The stack trace is
// included in the body only in development.
func Recovery(cfg *config.Config, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.WithFields(logrus.Fields{
					"request_id": c.GetString("request_id"),
					"panic":      r,
					"stack":      stack,
				}).Error("Panic recovered")

				body := gin.H{
					"error": gin.H{
						"message":   "Internal server error",
						"status":    http.StatusInternalServerError,
						"timestamp": time.Now().UTC().Format(time.RFC3339),
					},
				}
				if cfg.IsDevelopment() {
					body["stack"] = stack
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()

		c.Next()
	}
}
