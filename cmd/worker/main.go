package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harmonia-app/matchcore/internal/app"
	"github.com/harmonia-app/matchcore/internal/cache"
	"github.com/harmonia-app/matchcore/internal/clock"
	"github.com/harmonia-app/matchcore/internal/config"
	"github.com/harmonia-app/matchcore/internal/db"
	"github.com/harmonia-app/matchcore/internal/events"
	"github.com/harmonia-app/matchcore/internal/logger"
	"github.com/harmonia-app/matchcore/internal/scheduler"
	"github.com/harmonia-app/matchcore/internal/service"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		return
	}

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log, clock.Real{}, events.NewDispatcher(), cfg.Domain)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	registry := service.NewRegistry(appCtx)

	sched, err := scheduler.New(log)
	if err != nil {
		log.Error("failed to create scheduler", "err", err)
		return
	}

	if err := sched.AddCron("retention-sweep", cfg.Jobs.SweepCron, func() {
		if _, err := registry.Retention.SweepExpired(context.Background()); err != nil {
			log.Error("sweep run had failures", "err", err)
		}
	}); err != nil {
		log.Error("failed to register sweep job", "err", err)
		return
	}

	if err := sched.AddCron("subscription-reconcile", cfg.Jobs.ReconcileCron, func() {
		if _, err := registry.Access.ReconcileExpired(context.Background()); err != nil {
			log.Error("reconcile run failed", "err", err)
		}
	}); err != nil {
		log.Error("failed to register reconcile job", "err", err)
		return
	}

	sched.Start()
	log.Info("worker started", "metrics_addr", cfg.Metrics.Addr)

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.Metrics.Addr, nil); err != nil {
			log.Error("metrics server stopped", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	if err := sched.Shutdown(); err != nil {
		log.Error("scheduler shutdown failed", "err", err)
	}
	log.Info("worker stopped")
}
