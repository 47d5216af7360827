package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Server        ServerConfig        `envconfig:"SERVER"`
	Database      DatabaseConfig      `envconfig:"DB"`
	JWT           JWTConfig           `envconfig:"JWT"`
	Redis         RedisConfig         `envconfig:"REDIS"`
	Cache         CacheConfig         `envconfig:"CACHE"`
	Catalog       CatalogConfig       `envconfig:"CATALOG"`
	Sync          SyncConfig          `envconfig:"SYNC"`
	Bootstrap     BootstrapConfig     `envconfig:"BOOTSTRAP"`
	Observability ObservabilityConfig `envconfig:"OBSERVABILITY"`
	CORS          CORSConfig          `envconfig:"CORS"`
	Log           LogConfig           `envconfig:"LOG"`
	AWS           AWSConfig           `envconfig:"AWS"`
}

type AWSConfig struct {
	Region     string `envconfig:"REGION" default:"us-east-1"`
	Profile    string `envconfig:"PROFILE" default:""`
	SecretName string `envconfig:"SECRET_NAME" default:""`
}

type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"3000"`
	Environment  string        `envconfig:"ENVIRONMENT" default:"development"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
}

type DatabaseConfig struct {
	Driver          string        `envconfig:"DRIVER" default:"postgres"` // postgres or memory
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            int           `envconfig:"PORT" default:"5432"`
	Name            string        `envconfig:"NAME" default:"movies"`
	User            string        `envconfig:"USERNAME" default:"postgres"`
	Password        string        `envconfig:"PASSWORD" default:""`
	SSLMode         string        `envconfig:"SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"30m"`
	ConnectTimeout  time.Duration `envconfig:"CONNECT_TIMEOUT" default:"5s"`
	MigrateOnStart  bool          `envconfig:"MIGRATE_ON_START" default:"true"`
}

type JWTConfig struct {
	AccessSecret      string        `envconfig:"ACCESS_SECRET" default:""`
	AccessExpiration  time.Duration `envconfig:"ACCESS_EXPIRATION" default:"15m"`
	RefreshSecret     string        `envconfig:"REFRESH_SECRET" default:""`
	RefreshExpiration time.Duration `envconfig:"REFRESH_EXPIRATION" default:"168h"`
}

type RedisConfig struct {
	Address      string        `envconfig:"ADDRESS" default:"localhost:6379"`
	Password     string        `envconfig:"PASSWORD" default:""`
	Database     int           `envconfig:"DATABASE" default:"0"`
	MaxRetries   int           `envconfig:"MAX_RETRIES" default:"3"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"50"`
	PoolTimeout  time.Duration `envconfig:"POOL_TIMEOUT" default:"4s"`
	MinIdleConns int           `envconfig:"MIN_IDLE_CONNS" default:"5"`
	TLSEnabled   bool          `envconfig:"TLS_ENABLED" default:"false"`
}

// CacheConfig toggles the Redis read-through cache for the movie listing.
type CacheConfig struct {
	Enabled bool          `envconfig:"ENABLED" default:"false"`
	TTL     time.Duration `envconfig:"TTL" default:"5m"`
	Prefix  string        `envconfig:"PREFIX" default:"movies-api"`
}

type CatalogConfig struct {
	BaseURL  string        `envconfig:"BASE_URL" default:"https://swapi.dev/api/films"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s"`
	MaxPages int           `envconfig:"MAX_PAGES" default:"10"`
}

type SyncConfig struct {
	Enabled    bool          `envconfig:"ENABLED" default:"true"`
	Schedule   string        `envconfig:"SCHEDULE" default:"*/30 * * * *"`
	RunOnStart bool          `envconfig:"RUN_ON_START" default:"true"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"2m"`
}

// BootstrapConfig describes an optional user created at startup when absent.
type BootstrapConfig struct {
	Username string `envconfig:"USERNAME" default:""`
	Password string `envconfig:"PASSWORD" default:""`
	Role     string `envconfig:"ROLE" default:"admin"`
}

type ObservabilityConfig struct {
	MetricsPath    string  `envconfig:"METRICS_PATH" default:"/metrics"`
	OTLPEndpoint   string  `envconfig:"OTLP_ENDPOINT" default:"http://localhost:4318"`
	TracingEnabled bool    `envconfig:"TRACING_ENABLED" default:"false"`
	SampleRate     float64 `envconfig:"SAMPLE_RATE" default:"0.1"`
}

type CORSConfig struct {
	AllowOrigins string `envconfig:"ALLOW_ORIGINS" default:"*"`
}

type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
}

func Load() (*Config, error) {
	// A missing .env file is fine outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplySecrets overrides sensitive settings with values fetched from a secret store.
// Keys use the same names as the environment variables they replace.
func (c *Config) ApplySecrets(values map[string]string) error {
	for key, value := range values {
		if value == "" {
			continue
		}
		switch strings.ToUpper(key) {
		case "DB_PASSWORD":
			c.Database.Password = value
		case "JWT_ACCESS_SECRET":
			c.JWT.AccessSecret = value
		case "JWT_REFRESH_SECRET":
			c.JWT.RefreshSecret = value
		case "REDIS_PASSWORD":
			c.Redis.Password = value
		}
	}
	return validateConfig(c)
}

// DSN builds a PostgreSQL connection URL understood by the pgx driver.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	q.Set("connect_timeout", strconv.Itoa(int(d.ConnectTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}

// Version returns the build version reported by logs, traces and /version.
func Version() string {
	if version := os.Getenv("APP_VERSION"); version != "" {
		return version
	}
	return "dev"
}

func validateConfig(cfg *Config) error {
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", cfg.Server.Port)
	}

	switch cfg.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	if cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	// Equal secrets would let an access token pass as a refresh token on signature alone
	if cfg.JWT.AccessSecret == cfg.JWT.RefreshSecret {
		return fmt.Errorf("access and refresh secrets must differ")
	}
	if cfg.JWT.AccessExpiration <= 0 || cfg.JWT.RefreshExpiration <= 0 {
		return fmt.Errorf("token expirations must be positive")
	}

	if cfg.Sync.Enabled {
		if _, err := cron.ParseStandard(cfg.Sync.Schedule); err != nil {
			return fmt.Errorf("invalid sync schedule %q: %w", cfg.Sync.Schedule, err)
		}
	}

	if cfg.Catalog.MaxPages < 1 {
		return fmt.Errorf("catalog max pages must be at least 1")
	}

	if cfg.Bootstrap.Username != "" {
		if cfg.Bootstrap.Password == "" {
			return fmt.Errorf("BOOTSTRAP_PASSWORD is required when BOOTSTRAP_USERNAME is set")
		}
		if cfg.Bootstrap.Role != "admin" && cfg.Bootstrap.Role != "standard" {
			return fmt.Errorf("invalid bootstrap role: %s", cfg.Bootstrap.Role)
		}
	}

	if cfg.Observability.SampleRate < 0 || cfg.Observability.SampleRate > 1 {
		return fmt.Errorf("invalid tracing sample rate: %f", cfg.Observability.SampleRate)
	}

	return nil
}
