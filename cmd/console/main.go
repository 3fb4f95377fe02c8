package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"foodshare/internal/app"
	"foodshare/internal/console"
	"foodshare/internal/core/config"
	"foodshare/internal/core/logger"
	"foodshare/internal/session"
)

func main() { os.Exit(run()) }

// run 持有全部 defer，os.Exit 只在它返回之后调用
func run() int {
	_ = godotenv.Load()
	cfg, err := config.LoadE(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return console.Fail(nil, os.Stderr, "load config failed", err)
	}
	// stdout 留给表格输出，日志写 stderr 且只要 warn 以上
	cfg.Log.Level = logger.AtLeast(cfg.Log.Level, zapcore.WarnLevel)
	log, cleanup := app.NewLogger(cfg, os.Stderr)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return console.Fail(log, os.Stderr, "bootstrap failed", err)
	}
	defer a.Close()

	sess := session.NewStore(a.Provider, a.SessionPersister(), log)
	if err := sess.Restore(ctx); err != nil {
		log.Warn("restore session failed", zap.Error(err))
	}

	root := console.NewCommand(&console.Console{Out: os.Stdout, Session: sess, Listings: a.Listings})
	return console.Execute(ctx, root, log, os.Stderr)
}
