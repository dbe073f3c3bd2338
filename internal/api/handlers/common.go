package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"renewables-pnl/internal/aggregate"
	"renewables-pnl/internal/api/models"
	"renewables-pnl/internal/model"
	"renewables-pnl/internal/store"
)

// Catalog resolves configured assets and prices their buckets.
type Catalog interface {
	aggregate.Pricer
	Asset(key string) (*model.Asset, bool)
	Assets() []*model.Asset
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: message},
	})
}

func snapshot(s store.State) *model.Snapshot {
	if s == nil {
		return model.NewSnapshot()
	}
	if snap := s.Snapshot(); snap != nil {
		return snap
	}
	return model.NewSnapshot()
}

// Health handles GET /health
func Health(s store.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{Status: "ok", UpdatedAt: snapshot(s).UpdatedAt})
	}
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
