package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Store backends selectable with TASKTRACK_STORE.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Store     string
	Database  DatabaseConfig
	Redis     RedisConfig
	NATS      NATSConfig
	JWT       JWTConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string //nolint:gosec // G117: DB connection config
	DBName      string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings. An empty Addr disables
// event streaming and keeps token revocations in memory.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// NATSConfig holds the optional NATS connection. When URL is set, task
// events travel over NATS instead of Redis pub/sub.
type NATSConfig struct {
	URL string
}

// Enabled reports whether a NATS URL is configured.
func (c NATSConfig) Enabled() bool {
	return c.URL != ""
}

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// RateLimitConfig holds per-client request budgets.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("TASKTRACK_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("TASKTRACK_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	autoMigrate, err := getEnvBool("TASKTRACK_DB_AUTO_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("TASKTRACK_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("TASKTRACK_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refreshTTL, err := getEnvDuration("TASKTRACK_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("TASKTRACK_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("TASKTRACK_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	shutdownTimeout, err := getEnvDuration("TASKTRACK_SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rps, err := getEnvFloat("TASKTRACK_RATE_LIMIT_RPS", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	burst, err := getEnvInt("TASKTRACK_RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("TASKTRACK_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Store: strings.ToLower(getEnv("TASKTRACK_STORE", StorePostgres)),
		Database: DatabaseConfig{
			Host:        getEnv("TASKTRACK_DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("TASKTRACK_DB_USER", "tasktrack"),
			Password:    getEnv("TASKTRACK_DB_PASSWORD", ""),
			DBName:      getEnv("TASKTRACK_DB_NAME", "tasktrack_dev"),
			SSLMode:     getEnv("TASKTRACK_DB_SSLMODE", "disable"),
			MaxConns:    dbMaxConns,
			AutoMigrate: autoMigrate,
		},
		Redis: RedisConfig{
			Addr:     getEnv("TASKTRACK_REDIS_ADDR", ""),
			Password: getEnv("TASKTRACK_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		NATS: NATSConfig{
			URL: getEnv("TASKTRACK_NATS_URL", ""),
		},
		JWT: JWTConfig{
			Secret:     getEnv("TASKTRACK_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:            getEnv("TASKTRACK_SERVER_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			CORSOrigins:     corsOrigins,
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("TASKTRACK_LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("TASKTRACK_LOG_FORMAT", "json")),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("TASKTRACK_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("TASKTRACK_JWT_SECRET must be at least 32 characters")
	}

	switch c.Store {
	case StorePostgres:
		if c.Database.SSLMode == "disable" {
			log.Warn().Msg("TASKTRACK_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("TASKTRACK_DB_PORT must be 1-65535, got %d", c.Database.Port)
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("TASKTRACK_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
		}
	case StoreMemory:
		log.Warn().Msg("TASKTRACK_STORE=memory keeps all data in process; it is lost on restart")
	default:
		return fmt.Errorf("TASKTRACK_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}

	if c.Redis.DB < 0 {
		return fmt.Errorf("TASKTRACK_REDIS_DB must be >= 0, got %d", c.Redis.DB)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("TASKTRACK_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("TASKTRACK_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return fmt.Errorf("TASKTRACK_JWT_REFRESH_TTL (%s) must not be shorter than TASKTRACK_JWT_ACCESS_TTL (%s)", c.JWT.RefreshTTL, c.JWT.AccessTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("TASKTRACK_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("TASKTRACK_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("TASKTRACK_SERVER_SHUTDOWN_TIMEOUT must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("TASKTRACK_RATE_LIMIT_RPS must be positive, got %g", c.RateLimit.RPS)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("TASKTRACK_RATE_LIMIT_BURST must be >= 1, got %d", c.RateLimit.Burst)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("TASKTRACK_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
