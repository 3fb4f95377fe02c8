package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"

	"foodshare/internal/core/database"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	CORSOrigins     []string `mapstructure:"cors_origins"`
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int `mapstructure:"access_token_ttl_min"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled 未配置地址即不启用 redis
func (r Redis) Enabled() bool { return r.Addr != "" }

type DB struct {
	Driver             string // memory | sqlite | postgres | mysql
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

type Auth struct {
	Provider   string // mock | password
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

type Session struct {
	Persist string // file | redis
	Path    string
	Key     string
}

type Listing struct {
	Seed bool
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Auth    Auth
	Session Session
	Listing Listing
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "foodshare")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "foodshare")
	v.SetDefault("jwt.access_token_ttl_min", 120)
	v.SetDefault("db.driver", database.DriverMemory)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_level", "warn")
	v.SetDefault("auth.provider", "mock")
	v.SetDefault("auth.bcrypt_cost", 0)
	v.SetDefault("session.persist", "file")
	v.SetDefault("session.path", ".foodshare/session.json")
	v.SetDefault("session.key", "foodshare:session:user")
	v.SetDefault("listing.seed", true)
}

// LoadE 读取 YAML + APP_ 环境变量；默认路径下文件缺失时仅用默认值
func LoadE(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.JWT.Secret == "" && c.App.Env != "prod" {
		c.JWT.Secret = "dev-secret-change-me"
	}
	return &c, c.Validate()
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case database.DriverMemory, "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("db.driver %q not supported", c.DB.Driver)
	}
	switch c.Auth.Provider {
	case "mock":
	case "password":
		if c.DB.Driver == database.DriverMemory {
			return errors.New("auth.provider=password needs a database driver")
		}
	default:
		return fmt.Errorf("auth.provider %q not supported", c.Auth.Provider)
	}
	switch c.Session.Persist {
	case "file":
	case "redis":
		if !c.Redis.Enabled() {
			return errors.New("session.persist=redis needs redis.addr")
		}
	default:
		return fmt.Errorf("session.persist %q not supported", c.Session.Persist)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	return nil
}

func Load(path string) *Config {
	c, err := LoadE(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return c
}
