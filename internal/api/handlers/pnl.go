package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"renewables-pnl/internal/aggregate"
	"renewables-pnl/internal/api/models"
	"renewables-pnl/internal/model"
	"renewables-pnl/internal/store"
)

// PnLHandler serves the published PnL histories.
type PnLHandler struct {
	state   store.State
	catalog Catalog
}

func NewPnLHandler(state store.State, catalog Catalog) *PnLHandler {
	return &PnLHandler{state: state, catalog: catalog}
}

// ListAssets handles GET /api/v1/assets
func (h *PnLHandler) ListAssets(c *gin.Context) {
	assets := h.catalog.Assets()
	out := make([]models.AssetInfo, 0, len(assets))
	for _, a := range assets {
		tz := "UTC"
		if a.Location != nil {
			tz = a.Location.String()
		}
		out = append(out, models.AssetInfo{
			Key:                  a.Key,
			Name:                 a.Name,
			SettlementPoint:      a.SettlementPoint,
			Hub:                  a.Hub,
			Timezone:             tz,
			SettlementMode:       string(a.Mode),
			MerchantPercent:      a.MerchantPercent,
			PPAPercent:           a.PPAPercent,
			PPAPrice:             a.PPAPrice,
			BasisExposurePercent: a.BasisExposurePercent,
			CapacityMW:           a.CapacityMW,
		})
	}
	c.JSON(http.StatusOK, models.AssetsResponse{Assets: out})
}

// Portfolio handles GET /api/v1/pnl
func (h *PnLHandler) Portfolio(c *gin.Context) {
	snap := snapshot(h.state)

	keys := make([]string, 0, len(snap.Assets))
	for k := range snap.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	summaries := make([]models.AssetSummary, 0, len(keys))
	for _, k := range keys {
		a, _ := h.catalog.Asset(k)
		s := models.AssetSummary{
			Asset: k,
			Total: aggregate.View("total", snap.Assets[k].Totals(), a, h.catalog),
		}
		if a != nil {
			s.Name = a.Name
		}
		if recent := snap.Recent[k]; len(recent) > 0 {
			latest := recent[len(recent)-1]
			s.LatestBasis = &latest
		}
		summaries = append(summaries, s)
	}

	c.JSON(http.StatusOK, models.PortfolioResponse{
		UpdatedAt: snap.UpdatedAt,
		Combined:  aggregate.ViewHistory(snap.Combined, nil, nil),
		Assets:    summaries,
	})
}

// AssetHistory handles GET /api/v1/pnl/:asset
func (h *PnLHandler) AssetHistory(c *gin.Context) {
	var q models.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	from, to, ok := parseRange(c, q)
	if !ok {
		return
	}

	key := c.Param("asset")
	snap := snapshot(h.state)

	var hist *model.AssetHistory
	var a *model.Asset
	var pricer aggregate.Pricer
	if key == model.AllAssets {
		hist = snap.Combined
	} else {
		var known bool
		a, known = h.catalog.Asset(key)
		hist = snap.Assets[key]
		if !known && hist == nil {
			abortError(c, http.StatusNotFound, "ASSET_NOT_FOUND", "unknown asset "+key)
			return
		}
		pricer = h.catalog
	}
	if hist == nil {
		hist = model.NewAssetHistory(key)
	}
	if from != "" || to != "" {
		hist = filterDaily(hist, from, to)
	}

	view := aggregate.ViewHistory(hist, a, pricer)
	view.Asset = key
	c.JSON(http.StatusOK, models.HistoryResponse{UpdatedAt: snap.UpdatedAt, HistoryView: view})
}

func parseRange(c *gin.Context, q models.HistoryQuery) (string, string, bool) {
	for _, d := range []string{q.From, q.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(model.DayLayout, d); err != nil {
			abortError(c, http.StatusBadRequest, "INVALID_DATE", "from and to must be in YYYY-MM-DD format")
			return "", "", false
		}
	}
	if q.From != "" && q.To != "" && q.From > q.To {
		abortError(c, http.StatusBadRequest, "INVALID_DATE", "from must not be after to")
		return "", "", false
	}
	return q.From, q.To, true
}

// filterDaily keeps the days in [from, to] and rebuilds the rollups from them.
func filterDaily(h *model.AssetHistory, from, to string) *model.AssetHistory {
	out := model.NewAssetHistory(h.AssetKey)
	out.UpdatedAt = h.UpdatedAt
	for day, agg := range h.Daily {
		if (from != "" && day < from) || (to != "" && day > to) {
			continue
		}
		out.Daily[day] = agg
		if tier, ok := h.DayTiers[day]; ok {
			out.DayTiers[day] = tier
		}
	}
	out.Monthly, out.Annual = aggregate.Rollup(out.Daily)
	return out
}
