package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"canvass/internal/audit"
	"canvass/internal/hierarchy"
	httptransport "canvass/internal/http"
	"canvass/internal/jwtviewer"
	"canvass/internal/platform/config"
	"canvass/internal/platform/httpserver"
	"canvass/internal/platform/logger"
	platformmetrics "canvass/internal/platform/metrics"
	"canvass/internal/platform/postgres"
	platformredis "canvass/internal/platform/redis"
	"canvass/internal/visibility"
	"canvass/internal/voter/handler"
	votermetrics "canvass/internal/voter/metrics"
	"canvass/internal/voter/service"
	"canvass/internal/voter/store"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Production)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var (
		directory  hierarchy.Directory
		voterStore store.Store
		auditStore audit.Store
	)

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		directory = hierarchy.NewPostgresDirectory(db)
		voterStore = store.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
	} else {
		log.Warn("DATABASE_URL not set, running with in-memory storage")
		memDir := hierarchy.NewInMemoryDirectory()
		directory = memDir
		voterStore = store.NewInMemory(memDir)
		auditStore = audit.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(config.RedisFromEnv())
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		directory = hierarchy.NewRedisCache(directory, redisClient.Client, hierarchy.DefaultCacheTTL, log)
	} else {
		directory = hierarchy.NewLocalCache(directory, hierarchy.DefaultCacheTTL)
	}

	engine := visibility.NewEngine(directory, visibility.DefaultRules()...)

	auditor := audit.NewPublisher(auditStore, log, audit.WithAsyncBuffer(256))
	defer auditor.Close()

	voterService, err := service.New(
		voterStore,
		engine,
		auditor,
		log,
		service.Config{
			Production:       cfg.Production,
			PrivilegedUserID: cfg.PrivilegedUserID,
		},
		service.WithMetrics(votermetrics.New(registry)),
	)
	if err != nil {
		log.Error("service wiring failed", "error", err)
		os.Exit(1)
	}

	jwtService := jwtviewer.NewJWTService(cfg.JWTSigningKey, "canvass", "canvass-api")

	voterHandler := handler.New(
		voterService,
		log,
		platformmetrics.New(registry),
		jwtService,
		cfg.Production,
		cfg.MaintenanceSecretHash,
		cfg.RequestTimeout,
	)

	router := httptransport.NewRouter(registry, allowedOrigins(), voterHandler)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting canvass server", "addr", cfg.Addr, "production", cfg.Production)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

func allowedOrigins() []string {
	if raw := os.Getenv("CANVASS_ALLOWED_ORIGINS"); raw != "" {
		return strings.Split(raw, ",")
	}
	return []string{"http://localhost:5173", "http://localhost:3000"}
}
