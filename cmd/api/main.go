package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"github.com/samirrijal/terraview/internal/adapters/http"
	natsadapter "github.com/samirrijal/terraview/internal/adapters/nats"
	"github.com/samirrijal/terraview/internal/adapters/postgres"
	"github.com/samirrijal/terraview/internal/adapters/valkey"
	"github.com/samirrijal/terraview/internal/adapters/wms"
	"github.com/samirrijal/terraview/internal/core/ports"
	"github.com/samirrijal/terraview/internal/core/usecases"
	"github.com/samirrijal/terraview/internal/pkg/config"
	"github.com/samirrijal/terraview/internal/pkg/logging"
	"github.com/samirrijal/terraview/internal/pkg/metrics"
	"github.com/samirrijal/terraview/internal/pkg/telemetry"
	"github.com/samirrijal/terraview/internal/workflows"
)

func main() {
	cfg, err := config.Load("terraview-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	deps := &http.Dependencies{
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		RateLimit:      cfg.Server.RateLimit,
		AllowOrigins:   cfg.Server.AllowOrigins,
	}

	// Every backing service is optional: without them the engine still
	// answers from the provider, or from synthetic terrain.
	var store ports.ElevationStore
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			slog.Warn("database unavailable, readings will not be persisted", "error", err)
		} else {
			defer db.Close()
			store = postgres.NewElevationRepo(db, cfg.Elevation.CacheTTL)
			deps.DB = db
			go reportPoolStats(ctx, db)
		}
	}

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
		deps.Events = pub
		deps.NATS = pub.Conn()
		deps.Surveys = pub // queued for the surveyor unless Temporal is reachable below
	}

	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    tlog.NewStructuredLogger(slog.Default()),
		})
		if err != nil {
			slog.Warn("temporal unavailable", "error", err)
		} else {
			defer tc.Close()
			starter := &workflows.TemporalStarter{Client: tc, TaskQueue: cfg.Temporal.TaskQueue}
			deps.Surveys = starter
			deps.Temporal = starter
		}
	}

	var provider ports.ElevationProvider
	if cfg.Elevation.WMSURL != "" {
		provider = wms.NewClient(wms.Config{
			URL:                cfg.Elevation.WMSURL,
			GroundLayer:        cfg.Elevation.GroundLayer,
			ObstructionLayer:   cfg.Elevation.ObstructionLayer,
			Timeout:            cfg.Elevation.Timeout,
			ObstructionTimeout: cfg.Elevation.ObstructionTimeout,
		})
	} else {
		slog.Warn("elevation.wms_url not set, serving synthetic terrain only")
	}

	elevation := usecases.NewElevationService(provider, cache, store, usecases.ElevationOptions{
		Timeout:            cfg.Elevation.Timeout,
		ObstructionTimeout: cfg.Elevation.ObstructionTimeout,
		Concurrency:        cfg.Elevation.Concurrency,
		CacheTTL:           cfg.Elevation.CacheTTL,
	})
	deps.Profiles = usecases.NewProfileService(elevation, events)
	deps.Radial = usecases.NewRadialService(elevation, events)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024,
		AppName:      "TerraView API",
	})
	app.Use(recover.New())

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "wms", cfg.Elevation.WMSURL != "")
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		}
	}
}
