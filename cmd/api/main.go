package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"foodshare/internal/app"
	"foodshare/internal/core/config"
	"foodshare/internal/core/server"
	"foodshare/internal/transport/http/handler"
	"foodshare/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := app.NewLogger(cfg, nil)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer a.Close()

	// 变更推送
	hub := handler.NewEventHub(log, a.Listings.Now)
	detach := hub.Attach(a.Listings)
	defer func() { detach(); hub.Close() }()

	reg := router.NewRegistry(handler.Modules(a.HandlerDeps(hub))...)
	r, err := router.NewAPIEngine(router.Options{
		Log:         log,
		Mode:        ginMode(cfg.App.Env),
		CORSOrigins: cfg.App.HTTP.CORSOrigins,
		Metrics:     a.Metrics,
	}, reg)
	if err != nil {
		log.Fatal("build router", zap.Error(err))
	}

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r, log,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	baseURL := server.HumanURL(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
		zap.String("auth_provider", cfg.Auth.Provider),
		zap.String("db", cfg.DB.Driver),
		zap.Bool("redis", cfg.Redis.Enabled()),
	)

	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Fatal("user api FAILED", zap.Error(err))
	}
	log.Info("user api stopped gracefully")
}

func ginMode(env string) string {
	if env == "prod" {
		return "release"
	}
	return "debug"
}
