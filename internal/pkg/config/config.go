package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultAdminPassword is the bootstrap credential used when
// ADMIN_BOOTSTRAP_PASSWORD is unset. The account is flagged for rotation.
const DefaultAdminPassword = "admin123"

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=8h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	StorageBackend string `env:"STORAGE_BACKEND, default=memory"`

	AdminBootstrapPassword string `env:"ADMIN_BOOTSTRAP_PASSWORD, default=admin123"`
	SeedSampleData         bool   `env:"SEED_SAMPLE_DATA,         default=false"`
	AuditWorkers           int    `env:"AUDIT_WORKERS,            default=4"`

	// LoginRateLimit is the sustained login attempts per second allowed per
	// client IP, with LoginBurst on top. Zero disables throttling.
	LoginRateLimit float64 `env:"LOGIN_RATE_LIMIT, default=0.2"`
	LoginBurst     int     `env:"LOGIN_BURST,      default=10"`

	Mongo  MongoConfig
	SQLite SQLiteConfig
	Redis  RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=service_desk"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=service-desk.db"`
}

// RedisConfig configures the token revocation list. An empty Addr keeps
// revocations in process memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMongo, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of %s, %s, %s; got %q",
			BackendMongo, BackendSQLite, BackendMemory, c.StorageBackend)
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.LoginRateLimit < 0 || c.LoginBurst < 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_BURST must not be negative")
	}
	if c.LoginRateLimit > 0 && c.LoginBurst < 1 {
		return fmt.Errorf("LOGIN_BURST must be at least 1 when LOGIN_RATE_LIMIT is set")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
