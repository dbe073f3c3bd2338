package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"renewables-pnl/internal/analysis"
	"renewables-pnl/internal/api/models"
	"renewables-pnl/internal/model"
	"renewables-pnl/internal/store"
)

// BasisHandler serves the worst-basis ranking and the recent basis trend.
type BasisHandler struct {
	state      store.State
	catalog    Catalog
	worst      *model.Asset
	topK       int
	thresholds analysis.Thresholds
	now        func() time.Time
}

// BasisOptions configures a BasisHandler. Now defaults to time.Now.
type BasisOptions struct {
	WorstAsset *model.Asset
	TopK       int
	Thresholds analysis.Thresholds
	Now        func() time.Time
}

func NewBasisHandler(state store.State, catalog Catalog, opts BasisOptions) *BasisHandler {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	return &BasisHandler{
		state:      state,
		catalog:    catalog,
		worst:      opts.WorstAsset,
		topK:       opts.TopK,
		thresholds: opts.Thresholds,
		now:        opts.Now,
	}
}

// WorstBasis handles GET /api/v1/worst-basis. top limits the entries returned; count and
// recoverable impact cover the full list.
func (h *BasisHandler) WorstBasis(c *gin.Context) {
	var q models.WorstBasisQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if h.worst == nil {
		abortError(c, http.StatusNotFound, "NOT_CONFIGURED", "no worst-basis asset is configured")
		return
	}
	k := q.Top
	if k <= 0 {
		k = h.topK
	}

	list := analysis.Current(snapshot(h.state).WorstBasis, h.worst, clock(h.now))
	top := analysis.TopK(list, k)
	if top == nil {
		top = []model.WorstBasisEntry{}
	}
	c.JSON(http.StatusOK, models.WorstBasisResponse{
		Asset:             h.worst.Key,
		Date:              list.Date,
		Count:             len(top),
		TotalCount:        len(list.Entries),
		RecoverableImpact: analysis.RecoverableImpact(list.Entries),
		Entries:           top,
	})
}

// AssetBasis handles GET /api/v1/basis/:asset
func (h *BasisHandler) AssetBasis(c *gin.Context) {
	var q models.BasisQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	key := c.Param("asset")
	snap := snapshot(h.state)
	recent, seen := snap.Recent[key]
	if _, known := h.catalog.Asset(key); !known && !seen {
		abortError(c, http.StatusNotFound, "ASSET_NOT_FOUND", "unknown asset "+key)
		return
	}
	if q.Limit > 0 && len(recent) > q.Limit {
		recent = recent[len(recent)-q.Limit:]
	}
	if recent == nil {
		recent = []model.BasisPoint{}
	}

	resp := models.BasisResponse{
		Asset:   key,
		Recent:  recent,
		Profile: analysis.ComputeProfile(key, recent, h.thresholds),
	}
	if len(recent) > 0 {
		latest := recent[len(recent)-1]
		resp.Latest = &latest
		resp.Status = latest.Status
	}
	c.JSON(http.StatusOK, resp)
}

// RankAssets handles GET /api/v1/basis
func (h *BasisHandler) RankAssets(c *gin.Context) {
	ranked := analysis.RankByBasis(snapshot(h.state).Recent, h.thresholds)
	out := make([]models.Ranking, len(ranked))
	for i, p := range ranked {
		out[i] = models.Ranking{Rank: i + 1, BasisProfile: p}
	}
	c.JSON(http.StatusOK, models.RankResponse{Rankings: out})
}
