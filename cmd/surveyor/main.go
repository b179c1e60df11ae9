package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/terraview/internal/adapters/nats"
	"github.com/samirrijal/terraview/internal/adapters/postgres"
	"github.com/samirrijal/terraview/internal/adapters/valkey"
	"github.com/samirrijal/terraview/internal/adapters/wms"
	"github.com/samirrijal/terraview/internal/core/ports"
	"github.com/samirrijal/terraview/internal/core/usecases"
	"github.com/samirrijal/terraview/internal/pkg/config"
	"github.com/samirrijal/terraview/internal/pkg/logging"
	"github.com/samirrijal/terraview/internal/pkg/telemetry"
	"github.com/samirrijal/terraview/internal/workflows"
)

// surveyor runs the Temporal worker for radial surveys and turns queued
// survey requests from NATS into workflow executions.
func main() {
	cfg, err := config.Load("terraview-surveyor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	var store ports.ElevationStore
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			slog.Warn("database unavailable", "error", err)
		} else {
			defer db.Close()
			store = postgres.NewElevationRepo(db, cfg.Elevation.CacheTTL)
		}
	}

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, survey results will not be published", "error", err)
	} else {
		defer pub.Close()
		events = pub
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
	}

	elevation := usecases.NewElevationService(provider, cache, store, usecases.ElevationOptions{
		Timeout:            cfg.Elevation.Timeout,
		ObstructionTimeout: cfg.Elevation.ObstructionTimeout,
		Concurrency:        cfg.Elevation.Concurrency,
		CacheTTL:           cfg.Elevation.CacheTTL,
	})

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.RadialSurveyWorkflow)
	// Per-scan events are skipped; the survey publishes one summary event.
	w.RegisterActivity(&workflows.SurveyActivities{
		Scanner: usecases.NewRadialService(elevation, nil),
		Events:  events,
	})

	if events != nil {
		var sub ports.EventSubscriber
		nsub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("survey queue unavailable", "error", err)
		} else {
			defer nsub.Close()
			sub = nsub
		}
		if sub != nil {
			starter := &workflows.TemporalStarter{Client: c, TaskQueue: cfg.Temporal.TaskQueue}
			if err := workflows.DispatchSurveys(ctx, sub, starter); err != nil {
				log.Fatalf("subscribe survey requests: %v", err)
			}
		}
	}

	if err := w.Start(); err != nil {
		log.Fatalf("worker start: %v", err)
	}
	slog.Info("surveyor worker started", "task_queue", cfg.Temporal.TaskQueue)

	<-ctx.Done()
	slog.Info("shutdown signal received")
	w.Stop()
}
