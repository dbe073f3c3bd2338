package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"renewables-pnl/internal/api/models"
	"renewables-pnl/internal/logger"
)

// ErrorHandler recovers panics into a JSON error envelope.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.FromContext(c.Request.Context()).Error("Handler panicked",
			"path", c.Request.URL.Path, "panic", fmt.Sprint(recovered))

		message := "An unexpected error occurred"
		if err, ok := recovered.(string); ok {
			message = err
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INTERNAL_ERROR", Message: message},
		})
	})
}
