package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

type Config struct {
	Env  string `env:"APP_ENV, default=dev"`
	Port int    `env:"PORT, default=8080"`

	// DatabaseURL wins over the DB_* parts when set.
	DatabaseURL string `env:"DATABASE_URL"`
	DB          DBConfig

	JWTSecret    string `env:"JWT_SECRET"`
	JWTExpiresIn Expiry `env:"JWT_EXPIRES_IN, default=7d"`

	Redis RedisConfig

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:3000"`
	MaxBodyBytes       int64    `env:"MAX_BODY_BYTES, default=1048576"`

	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT, default=10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW, default=1m"`

	CacheTTL time.Duration `env:"CACHE_TTL, default=30s"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME, default=Administrator"`

	Worker WorkerConfig
}

type DBConfig struct {
	Host     string `env:"DB_HOST, default=127.0.0.1"`
	Port     string `env:"DB_PORT, default=5432"`
	User     string `env:"DB_USER, default=bookinghub"`
	Password string `env:"DB_PASSWORD, default=bookinghub"`
	Name     string `env:"DB_NAME, default=bookinghub"`
	SSLMode  string `env:"DB_SSLMODE, default=disable"`
}

type RedisConfig struct {
	// empty disables Redis; rate limits then stay in-process
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type WorkerConfig struct {
	Concurrency     int           `env:"WORKER_CONCURRENCY, default=4"`
	PollInterval    time.Duration `env:"WORKER_POLL_INTERVAL, default=500ms"`
	ShutdownGrace   time.Duration `env:"WORKER_SHUTDOWN_GRACE, default=10s"`
	HealthPort      int           `env:"WORKER_HEALTH_PORT, default=8081"`
	NotifierTimeout time.Duration `env:"NOTIFIER_TIMEOUT, default=3s"`
}

// Load reads .env (when present) and the process environment.
func Load(ctx context.Context) (Config, error) {
	// a missing .env is normal outside local dev
	_ = godotenv.Load()

	return LoadFrom(ctx, envconfig.OsLookuper())
}

func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	})
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}

	return cfg, nil
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func (c Config) DBURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     c.DB.Host + ":" + c.DB.Port,
		Path:     "/" + c.DB.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.DB.SSLMode),
	}
	return u.String()
}

// WithTimeout bounds a request-scoped call. A nil parent means Background.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}
