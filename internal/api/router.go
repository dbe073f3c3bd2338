// Package api wires the HTTP surface over the published snapshot.
package api

import (
	"github.com/gin-gonic/gin"

	"renewables-pnl/internal/api/handlers"
	"renewables-pnl/internal/api/middleware"
	"renewables-pnl/internal/store"
)

type RouterConfig struct {
	State       store.State
	Catalog     handlers.Catalog
	Basis       handlers.BasisOptions
	Trigger     handlers.Trigger
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	pnl := handlers.NewPnLHandler(cfg.State, cfg.Catalog)
	basis := handlers.NewBasisHandler(cfg.State, cfg.Catalog, cfg.Basis)
	status := handlers.NewStatusHandler(cfg.State, cfg.Trigger)

	router.GET("/health", handlers.Health(cfg.State))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/assets", pnl.ListAssets)
		v1.GET("/pnl", pnl.Portfolio)
		v1.GET("/pnl/:asset", pnl.AssetHistory)

		v1.GET("/worst-basis", basis.WorstBasis)
		v1.GET("/basis", basis.RankAssets)
		v1.GET("/basis/:asset", basis.AssetBasis)

		v1.GET("/status", status.Status)
		v1.POST("/refresh", status.Refresh)
	}
	return router
}
