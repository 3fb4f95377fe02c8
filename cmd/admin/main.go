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
	"foodshare/internal/core/database"
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
	if cfg.DB.Driver == database.DriverMemory {
		log.Warn("admin api on the memory driver sees only its own listings")
	}

	reg := router.NewRegistry(handler.NewAdminModule(a.HandlerDeps(nil)))
	r, err := router.NewAdminEngine(router.Options{
		Log:     log,
		Mode:    ginMode(cfg.App.Env),
		Metrics: a.Metrics,
	}, reg, a.JWT, a.Denylist)
	if err != nil {
		log.Fatal("build router", zap.Error(err))
	}

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, log, 5*time.Second, 10*time.Second, 60*time.Second)

	baseURL := server.HumanURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Fatal("admin api FAILED", zap.Error(err))
	}
	log.Info("admin api stopped gracefully")
}

func ginMode(env string) string {
	if env == "prod" {
		return "release"
	}
	return "debug"
}
