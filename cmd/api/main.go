package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-recruiter/internal/audit"
	"ai-recruiter/internal/auth"
	"ai-recruiter/internal/config"
	"ai-recruiter/internal/httpapi"
	"ai-recruiter/internal/interview"
	"ai-recruiter/internal/realtime"
	"ai-recruiter/internal/relay"
	"ai-recruiter/internal/reporting"
	"ai-recruiter/internal/voice"
	"ai-recruiter/pkg/logger"
	"ai-recruiter/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional .env for local development; real deployments set env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Postgres is degradable: without it the webhook relay and realtime fanout
	// keep working, while record endpoints answer 503.
	var store interview.Store
	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres unavailable, continuing without persistence", "err", err)
		db = nil
	} else {
		defer db.Close()
		store = interview.NewPostgresStore(db)
	}

	hub := realtime.NewHub(log)
	directory := relay.NewDirectory()
	provider := voice.NewVapiProvider(cfg.Vapi)

	// Redis is optional: it adds cross-instance fanout and the concurrent
	// call cap. Without it both fall back to single-instance behavior.
	var broadcaster interview.Broadcaster = hub
	var limiter interview.CallLimiter
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()

		bridge := realtime.NewBridge(rdb, hub, log)
		broadcaster = bridge
		go func() {
			if err := bridge.Run(rootCtx); err != nil {
				log.Error("realtime bridge stopped", "err", err)
				stop()
			}
		}()

		if cfg.Calls.MaxConcurrent > 0 {
			limiter = interview.NewRedisCallLimiter(rdb, cfg.Calls.MaxConcurrent)
		}
	}

	var audits *audit.Service
	if db != nil {
		audits = audit.NewService(audit.NewPostgresRepo(db))
	}

	var authManager *auth.Manager
	if cfg.AuthEnabled() {
		authManager, err = auth.NewManager(cfg.Auth)
		if err != nil {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
	} else {
		log.Warn("JWT_SECRET not set, recruiter endpoints are unauthenticated")
	}

	interviews := interview.NewService(store, provider, directory, broadcaster, limiter, audits)
	events := relay.New(store, directory, broadcaster, audits, limiter, relay.Options{
		TrustProviderTime: cfg.Webhook.TrustProviderTime,
	})

	var stats *reporting.Service
	if store != nil {
		stats = reporting.NewService(store)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		handlers: httpapi.Handlers{
			Interviews: interviews,
			Stats:      stats,
			Auth:       authManager,
			DB:         db,
		},
		webhook: relay.WebhookHandler{Relay: events},
		hub:     hub,
		auth:    authManager,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	directory.Clear()
}
