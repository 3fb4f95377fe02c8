// Package app assembles the stores and their infrastructure from config.
// Every entry point (api, admin, console) builds one App and injects its
// parts; nothing here is global.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodshare/internal/core/auth"
	"foodshare/internal/core/cache"
	"foodshare/internal/core/config"
	"foodshare/internal/core/database"
	"foodshare/internal/core/logger"
	"foodshare/internal/domain"
	"foodshare/internal/listing"
	"foodshare/internal/repo"
	"foodshare/internal/session"
)

type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	DB       *gorm.DB     // nil: memory driver
	Cache    *cache.Cache // nil: redis 未配置
	Listings *listing.Store
	Users    domain.UserRepository // nil: mock provider
	Provider session.IdentityProvider
	JWT      *auth.JWTer
	Denylist *auth.Denylist
	Metrics  *prometheus.Registry

	closers []func()
}

// NewLogger out 为 nil 时写 stdout
func NewLogger(cfg *config.Config, out io.Writer) (*zap.Logger, func()) {
	r := cfg.Log.Rotate
	return logger.New(logger.Options{
		Name:   cfg.App.Name,
		Level:  cfg.Log.Level,
		JSON:   cfg.Log.JSON,
		Output: out,
		Rotate: logger.FileRotate{
			Enable:     r.Enable,
			Filename:   r.Filename,
			MaxSizeMB:  r.MaxSizeMB,
			MaxBackups: r.MaxBackups,
			MaxAgeDays: r.MaxAgeDays,
			Compress:   r.Compress,
		},
	})
}

func New(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	a := &App{
		Cfg: cfg,
		Log: l,
		JWT: &auth.JWTer{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
			TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		},
		Metrics: prometheus.NewRegistry(),
	}
	a.Metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := a.openDB(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openRedis(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var listings domain.ListingRepository = listing.NewMemoryRepository()
	if a.DB != nil {
		listings = repo.NewListingRepo(a.DB)
		a.Users = repo.NewUserRepo(a.DB)
	}
	a.Listings = listing.NewStore(listings, l)
	if cfg.Listing.Seed {
		n, err := a.Listings.SeedIfEmpty(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seed listings: %w", err)
		}
		l.Info("listings ready", zap.Int("seeded", n))
	}
	cancel, err := listing.RegisterMetrics(a.Metrics, a.Listings)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, cancel)

	switch cfg.Auth.Provider {
	case "password":
		pp := session.NewPasswordProvider(a.Users)
		pp.Cost = a.Cfg.Auth.BcryptCost
		a.Provider = pp
	default:
		a.Provider = session.MockProvider{}
	}
	return a, nil
}

func (a *App) openDB() error {
	if a.Cfg.DB.Driver == database.DriverMemory {
		return nil
	}
	db, err := database.NewGorm(database.Opts{
		Driver:             a.Cfg.DB.Driver,
		DSN:                a.Cfg.DB.DSN,
		Username:           a.Cfg.DB.Username,
		Password:           a.Cfg.DB.Password,
		MaxOpenConns:       a.Cfg.DB.MaxOpenConns,
		MaxIdleConns:       a.Cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: a.Cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           a.Cfg.DB.LogLevel,
		Log:                a.Log,
	})
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	a.Log.Info("database connected", zap.String("driver", a.Cfg.DB.Driver))

	if a.Cfg.DB.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		a.Log.Info("automigrate done")
	}
	return nil
}

func (a *App) openRedis(ctx context.Context) error {
	if !a.Cfg.Redis.Enabled() {
		return nil
	}
	c := cache.New(a.Cfg.Redis.Addr, a.Cfg.Redis.Password, a.Cfg.Redis.DB)
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pctx); err != nil {
		_ = c.Close()
		return fmt.Errorf("redis ping: %w", err)
	}
	a.Cache = c
	a.Denylist = auth.NewDenylist(c)
	a.closers = append(a.closers, func() { _ = c.Close() })
	a.Log.Info("redis connected", zap.String("addr", a.Cfg.Redis.Addr))
	return nil
}

// SessionPersister 控制台用的本地身份缓存
func (a *App) SessionPersister() session.Persister {
	if a.Cfg.Session.Persist == "redis" && a.Cache != nil {
		return session.NewRedisPersister(a.Cache, a.Cfg.Session.Key)
	}
	return session.NewFilePersister(a.Cfg.Session.Path)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
