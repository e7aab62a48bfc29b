package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/scd-backend/internal/data/db"
	"github.com/yungbote/scd-backend/internal/http/middleware"
	"github.com/yungbote/scd-backend/internal/platform/envutil"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	LogMode  string `yaml:"log_mode"`
	HTTPAddr string `yaml:"http_addr"`

	DB      DBConfig      `yaml:"db"`
	Auth    AuthConfig    `yaml:"auth"`
	Redis   RedisConfig   `yaml:"redis"`
	HTTP    HTTPConfig    `yaml:"http"`
	Otel    OtelConfig    `yaml:"otel"`
	Metrics MetricsConfig `yaml:"metrics"`
	Migrate bool          `yaml:"auto_migrate"`
}

type DBConfig struct {
	Driver        string        `yaml:"driver"`
	URL           string        `yaml:"url"`
	Host          string        `yaml:"host"`
	Port          string        `yaml:"port"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	Name          string        `yaml:"name"`
	SSLMode       string        `yaml:"sslmode"`
	SQLitePath    string        `yaml:"sqlite_path"`
	MaxOpenConns  int           `yaml:"max_open_conns"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

type AuthConfig struct {
	JWTSecretKey       string        `yaml:"jwt_secret_key"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl"`
	ValidationInterval time.Duration `yaml:"validation_interval"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	CacheTTL  time.Duration `yaml:"catalog_cache_ttl"`
}

type HTTPConfig struct {
	CORSOrigins     []string      `yaml:"cors_allowed_origins"`
	SlowRequest     time.Duration `yaml:"slow_request"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	Environment string  `yaml:"environment"`
}

type MetricsConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Addr           string        `yaml:"addr"`
	ScrapeInterval time.Duration `yaml:"scrape_interval"`
}

func DefaultConfig() Config {
	return Config{
		LogMode:  "development",
		HTTPAddr: ":8080",
		DB: DBConfig{
			Driver:        db.DriverPostgres,
			Host:          "localhost",
			Port:          "5432",
			User:          "postgres",
			Name:          "scd",
			SSLMode:       "disable",
			SQLitePath:    "scd.db",
			MaxOpenConns:  20,
			SlowThreshold: time.Second,
		},
		Auth: AuthConfig{
			JWTSecretKey:       defaultJWTSecret,
			AccessTokenTTL:     time.Hour,
			ValidationInterval: time.Minute,
		},
		Redis: RedisConfig{KeyPrefix: "scd", CacheTTL: 5 * time.Minute},
		HTTP: HTTPConfig{
			CORSOrigins:     middleware.DefaultCORSOrigins,
			SlowRequest:     2 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Otel:    OtelConfig{ServiceName: "scd-backend", SampleRatio: 1},
		Metrics: MetricsConfig{Addr: ":9090", ScrapeInterval: 15 * time.Second},
		Migrate: true,
	}
}

// LoadConfig layers defaults, the optional YAML file named by
// SCD_CONFIG_FILE, then environment overrides.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if path := envutil.String("SCD_CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)
	c.HTTPAddr = envutil.String("HTTP_ADDR", c.HTTPAddr)
	if port := envutil.String("PORT", ""); port != "" && os.Getenv("HTTP_ADDR") == "" {
		c.HTTPAddr = ":" + port
	}
	c.Migrate = envutil.Bool("AUTO_MIGRATE", c.Migrate)

	c.DB.Driver = strings.ToLower(envutil.String("DB_DRIVER", c.DB.Driver))
	c.DB.URL = envutil.String("DATABASE_URL", c.DB.URL)
	c.DB.Host = envutil.String("POSTGRES_HOST", c.DB.Host)
	c.DB.Port = envutil.String("POSTGRES_PORT", c.DB.Port)
	c.DB.User = envutil.String("POSTGRES_USER", c.DB.User)
	c.DB.Password = envutil.String("POSTGRES_PASSWORD", c.DB.Password)
	c.DB.Name = envutil.String("POSTGRES_NAME", c.DB.Name)
	c.DB.SSLMode = envutil.String("POSTGRES_SSLMODE", c.DB.SSLMode)
	c.DB.SQLitePath = envutil.String("SQLITE_PATH", c.DB.SQLitePath)
	c.DB.MaxOpenConns = envutil.Int("DB_MAX_OPEN_CONNS", c.DB.MaxOpenConns)
	c.DB.SlowThreshold = envutil.Duration("DB_SLOW_THRESHOLD", c.DB.SlowThreshold)

	c.Auth.JWTSecretKey = envutil.String("JWT_SECRET_KEY", c.Auth.JWTSecretKey)
	c.Auth.AccessTokenTTL = envutil.Duration("ACCESS_TOKEN_TTL", c.Auth.AccessTokenTTL)
	c.Auth.ValidationInterval = envutil.Duration("TOKEN_VALIDATION_INTERVAL", c.Auth.ValidationInterval)

	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envutil.String("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envutil.Int("REDIS_DB", c.Redis.DB)
	c.Redis.KeyPrefix = envutil.String("REDIS_KEY_PREFIX", c.Redis.KeyPrefix)
	c.Redis.CacheTTL = envutil.Duration("CATALOG_CACHE_TTL", c.Redis.CacheTTL)

	c.HTTP.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", c.HTTP.CORSOrigins)
	c.HTTP.SlowRequest = envutil.Duration("HTTP_SLOW_REQUEST", c.HTTP.SlowRequest)
	c.HTTP.ShutdownTimeout = envutil.Duration("HTTP_SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout)

	c.Otel.Enabled = envutil.Bool("OTEL_ENABLED", c.Otel.Enabled)
	c.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", c.Otel.ServiceName)
	c.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Otel.Endpoint)
	c.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", c.Otel.Headers)
	c.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", c.Otel.Insecure)
	c.Otel.Environment = envutil.String("OTEL_ENVIRONMENT", c.Otel.Environment)
	if v := envutil.String("OTEL_SAMPLER_RATIO", ""); v != "" {
		if ratio, err := strconv.ParseFloat(v, 64); err == nil {
			c.Otel.SampleRatio = ratio
		}
	}

	c.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Addr = envutil.String("METRICS_ADDR", c.Metrics.Addr)
	c.Metrics.ScrapeInterval = envutil.Duration("METRICS_SCRAPE_INTERVAL", c.Metrics.ScrapeInterval)
}

func (c Config) Validate() error {
	var errs []error
	switch c.DB.Driver {
	case db.DriverPostgres:
		if c.DB.URL == "" && c.DB.Host == "" {
			errs = append(errs, errors.New("db: DATABASE_URL or POSTGRES_HOST required"))
		}
	case db.DriverSQLite:
		if strings.TrimSpace(c.DB.SQLitePath) == "" {
			errs = append(errs, errors.New("db: SQLITE_PATH required"))
		}
	default:
		errs = append(errs, fmt.Errorf("db: unsupported DB_DRIVER %q", c.DB.Driver))
	}
	if strings.TrimSpace(c.Auth.JWTSecretKey) == "" {
		errs = append(errs, errors.New("auth: JWT_SECRET_KEY required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("auth: ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Redis.CacheTTL < 0 {
		errs = append(errs, errors.New("redis: CATALOG_CACHE_TTL must not be negative"))
	}
	if c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1 {
		errs = append(errs, errors.New("otel: OTEL_SAMPLER_RATIO must be within [0,1]"))
	}
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Addr) == "" {
		errs = append(errs, errors.New("metrics: METRICS_ADDR required when enabled"))
	}
	return errors.Join(errs...)
}

// DBConn resolves the driver config handed to db.Open.
func (c Config) DBConn() db.Config {
	out := db.Config{
		Driver:        c.DB.Driver,
		SlowThreshold: c.DB.SlowThreshold,
		MaxOpenConns:  c.DB.MaxOpenConns,
	}
	switch c.DB.Driver {
	case db.DriverSQLite:
		out.DSN = c.DB.SQLitePath
	default:
		out.DSN = c.DB.URL
		if out.DSN == "" {
			u := url.URL{
				Scheme:   "postgres",
				User:     url.UserPassword(c.DB.User, c.DB.Password),
				Host:     c.DB.Host + ":" + c.DB.Port,
				Path:     "/" + c.DB.Name,
				RawQuery: "sslmode=" + c.DB.SSLMode,
			}
			out.DSN = u.String()
		}
	}
	return out
}

// InsecureSecret reports whether the dev default JWT secret is in use.
func (c Config) InsecureSecret() bool { return c.Auth.JWTSecretKey == defaultJWTSecret }
