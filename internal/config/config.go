package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	Wishlist  WishlistConfig  `mapstructure:"wishlist"`
	Carousel  CarouselConfig  `mapstructure:"carousel"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	Document string `mapstructure:"document"`
	// SeedPath is read when the postgres row does not exist yet.
	SeedPath string `mapstructure:"seed_path"`
}

type WishlistConfig struct {
	Policy string `mapstructure:"policy"`
}

type CarouselConfig struct {
	Size int    `mapstructure:"size"`
	Seed uint64 `mapstructure:"seed"`
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	AdminUsername     string        `mapstructure:"admin_username"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
}

// Enabled reports whether product creation is guarded by admin tokens.
func (a AuthConfig) Enabled() bool {
	return a.AdminPasswordHash != ""
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Load reads .env (if present), the optional config file and the environment,
// in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "minishop")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.path", "./database.json")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.document", "default")
	v.SetDefault("store.seed_path", "")

	v.SetDefault("wishlist.policy", "strict")

	v.SetDefault("carousel.size", 5)
	v.SetDefault("carousel.seed", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.token_ttl", "15m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.token", "")

	v.SetDefault("ratelimit.rps", 0)
	v.SetDefault("ratelimit.burst", 20)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	binds := map[string]string{
		"app.env":                    "APP_ENV",
		"server.port":                "PORT",
		"server.read_header_timeout": "SERVER_READ_HEADER_TIMEOUT",
		"server.shutdown_timeout":    "SERVER_SHUTDOWN_TIMEOUT",
		"log.level":                  "LOG_LEVEL",
		"log.format":                 "LOG_FORMAT",
		"store.driver":               "STORE_DRIVER",
		"store.path":                 "DATA_FILE",
		"store.dsn":                  "DATABASE_URL",
		"store.document":             "STORE_DOCUMENT",
		"store.seed_path":            "SEED_FILE",
		"wishlist.policy":            "WISHLIST_POLICY",
		"carousel.size":              "CAROUSEL_SIZE",
		"carousel.seed":              "CAROUSEL_SEED",
		"auth.jwt_secret":            "JWT_SECRET",
		"auth.admin_username":        "ADMIN_USERNAME",
		"auth.admin_password_hash":   "ADMIN_PASSWORD_HASH",
		"auth.token_ttl":             "TOKEN_TTL",
		"metrics.enabled":            "METRICS_ENABLED",
		"metrics.token":              "METRICS_TOKEN",
		"ratelimit.rps":              "RATE_LIMIT_RPS",
		"ratelimit.burst":            "RATE_LIMIT_BURST",
	}
	for key, env := range binds {
		_ = v.BindEnv(key, env)
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server port must be between 1 and 65535")
	}

	switch c.Store.Driver {
	case DriverFile:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the file driver")
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch strings.ToLower(c.Wishlist.Policy) {
	case "strict", "lenient":
	default:
		return fmt.Errorf("unknown wishlist policy %q", c.Wishlist.Policy)
	}

	if c.Carousel.Size <= 0 {
		return errors.New("carousel.size must be positive")
	}

	if c.Auth.Enabled() && len(c.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 chars when admin auth is enabled")
	}

	if c.RateLimit.RPS < 0 {
		return errors.New("ratelimit.rps must not be negative")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
