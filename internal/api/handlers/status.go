package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"renewables-pnl/internal/api/models"
	"renewables-pnl/internal/logger"
	"renewables-pnl/internal/model"
	"renewables-pnl/internal/store"
)

// Trigger starts an out-of-schedule refresh and reports which sources it started.
type Trigger interface {
	Trigger() []string
}

// StatusHandler reports and drives the refresh loops.
type StatusHandler struct {
	state   store.State
	trigger Trigger
}

// NewStatusHandler creates a status handler. trigger may be nil, which disables POST /refresh.
func NewStatusHandler(state store.State, trigger Trigger) *StatusHandler {
	return &StatusHandler{state: state, trigger: trigger}
}

// Status handles GET /api/v1/status
func (h *StatusHandler) Status(c *gin.Context) {
	snap := snapshot(h.state)
	sources := make([]model.SourceStatus, 0, len(snap.Sources))
	for _, s := range snap.Sources {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	c.JSON(http.StatusOK, models.StatusResponse{UpdatedAt: snap.UpdatedAt, Sources: sources})
}

// Refresh handles POST /api/v1/refresh
func (h *StatusHandler) Refresh(c *gin.Context) {
	if h.trigger == nil {
		abortError(c, http.StatusServiceUnavailable, "REFRESH_UNAVAILABLE", "no refresh sources are running")
		return
	}
	started := h.trigger.Trigger()
	if started == nil {
		started = []string{}
	}
	logger.FromContext(c.Request.Context()).Info("Manual refresh requested", "started", started)
	c.JSON(http.StatusAccepted, models.RefreshResponse{Started: started})
}
