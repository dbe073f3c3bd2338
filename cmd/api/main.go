package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"renewables-pnl/internal/api"
	"renewables-pnl/internal/api/handlers"
	"renewables-pnl/internal/config"
	"renewables-pnl/internal/logger"
	"renewables-pnl/internal/refresh"
	"renewables-pnl/internal/service"
)

func main() {
	cfgPath := flag.String("config", envOr("CONFIG_PATH", "config.yaml"), "Path to YAML config")
	flag.Parse()

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadUnchecked(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		logger.L.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Coordinator.Restore(ctx); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if err := svc.ImportHistorical(ctx); err != nil {
		return err
	}

	tasks, err := svc.Tasks()
	if err != nil {
		return err
	}

	routerCfg := api.RouterConfig{
		State:   svc.State,
		Catalog: svc.Engine,
		Basis: handlers.BasisOptions{
			WorstAsset: svc.WorstAsset(),
			TopK:       cfg.WorstBasis.TopK,
			Thresholds: svc.Thresholds(),
		},
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	var runner *refresh.Runner
	if len(tasks) > 0 {
		runner = refresh.NewRunner(svc.Coordinator, tasks...)
		routerCfg.Trigger = runner
	} else {
		logger.L.Warn("No sources configured, serving the persisted snapshot only")
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if runner != nil {
		g.Go(func() error { return runner.Run(gctx) })
	}
	g.Go(func() error {
		logger.L.Info("Starting API server", "addr", srv.Addr, "sources", len(tasks), "assets", len(svc.Assets))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.L.Info("Shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
