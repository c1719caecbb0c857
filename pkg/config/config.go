package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	JWT       JWTConfig
	Floor     FloorConfig
	Sweeper   SweeperConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver        string `envconfig:"DB_DRIVER" default:"postgres"` // "postgres" or "memory"
	Host          string `envconfig:"DB_HOST" default:"localhost"`
	Port          string `envconfig:"DB_PORT" default:"5432"`
	User          string `envconfig:"DB_USER" default:"postgres"`
	Password      string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name          string `envconfig:"DB_NAME" default:"assembly"`
	SSLMode       string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns      int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns      int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate   bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
	MigrationsDir string `envconfig:"DB_MIGRATIONS_DIR" default:"migrations"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled       bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host          string `envconfig:"REDIS_HOST" default:"localhost"`
	Port          string `envconfig:"REDIS_PORT" default:"6379"`
	Password      string `envconfig:"REDIS_PASSWORD" default:""`
	DB            int    `envconfig:"REDIS_DB" default:"0"`
	ChannelPrefix string `envconfig:"REDIS_CHANNEL_PREFIX" default:"assembly"`
}

// StorageConfig holds object storage configuration for closing snapshots
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"assembly-archive"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// JWTConfig holds admin token configuration
type JWTConfig struct {
	AdminSecret string        `envconfig:"JWT_ADMIN_SECRET" default:"change-me-admin-secret"`
	Expiry      time.Duration `envconfig:"JWT_EXPIRY" default:"8h"`
	Issuer      string        `envconfig:"JWT_ISSUER" default:"assembly-floor"`
}

// FloorConfig holds the speaking-queue timers
type FloorConfig struct {
	AcceptWindow  time.Duration `envconfig:"FLOOR_ACCEPT_WINDOW" default:"1m"`
	SpeakingLimit time.Duration `envconfig:"FLOOR_SPEAKING_LIMIT" default:"5m"`
	// StrictAccept rejects an accept from an attendee that does not hold a live offer
	StrictAccept bool `envconfig:"FLOOR_STRICT_ACCEPT" default:"true"`
}

// SweeperConfig holds the expiration sweeper settings
type SweeperConfig struct {
	Enabled        bool          `envconfig:"SWEEPER_ENABLED" default:"true"`
	Interval       time.Duration `envconfig:"SWEEPER_INTERVAL" default:"20s"`
	MeetingTimeout time.Duration `envconfig:"SWEEPER_MEETING_TIMEOUT" default:"10s"`
	Concurrency    int           `envconfig:"SWEEPER_CONCURRENCY" default:"4"`
}

// RateLimitConfig holds the per-IP limit for attendee registration
type RateLimitConfig struct {
	RegisterRPS   float64 `envconfig:"RATE_LIMIT_REGISTER_RPS" default:"5"`
	RegisterBurst int     `envconfig:"RATE_LIMIT_REGISTER_BURST" default:"10"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or memory, got %q", c.Database.Driver)
	}
	if c.Floor.AcceptWindow <= 0 {
		return fmt.Errorf("FLOOR_ACCEPT_WINDOW must be positive")
	}
	if c.Floor.SpeakingLimit <= 0 {
		return fmt.Errorf("FLOOR_SPEAKING_LIMIT must be positive")
	}
	if c.Sweeper.Interval <= 0 {
		return fmt.Errorf("SWEEPER_INTERVAL must be positive")
	}
	if c.Sweeper.Concurrency < 1 {
		return fmt.Errorf("SWEEPER_CONCURRENCY must be at least 1")
	}
	if c.JWT.AdminSecret == "" {
		return fmt.Errorf("JWT_ADMIN_SECRET is required")
	}
	if c.IsProduction() && c.JWT.AdminSecret == "change-me-admin-secret" {
		return fmt.Errorf("JWT_ADMIN_SECRET must be changed in production")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
