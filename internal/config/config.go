package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Seed      SeedConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Name           string
	Version        string
	Port           int
	Env            string
	LogLevel       string
	Store          string
	AllowedOrigins []string
}

// RedisConfig enables the weekly report cache when Addr is set.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	ReportTTL time.Duration
}

type RateLimitConfig struct {
	ClockPerMinute int
	ClockBurst     int
}

// SeedConfig creates an admin account at startup when both fields are set.
type SeedConfig struct {
	AdminUsername string
	AdminPassword string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "roster"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	reportTTL, err := time.ParseDuration(getEnv("REPORT_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_CACHE_TTL: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:      getEnv("REDIS_ADDR", ""),
		Password:  getEnv("REDIS_PASSWORD", ""),
		DB:        redisDB,
		ReportTTL: reportTTL,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Name:           getEnv("APP_NAME", "roster-cmlabs"),
		Version:        getEnv("APP_VERSION", "v1.0.0"),
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Store:          strings.ToLower(getEnv("APP_STORE", StorePostgres)),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// Rate limit configuration
	clockPerMinute, err := strconv.Atoi(getEnv("CLOCK_RATE_PER_MINUTE", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOCK_RATE_PER_MINUTE: %w", err)
	}
	clockBurst, err := strconv.Atoi(getEnv("CLOCK_RATE_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOCK_RATE_BURST: %w", err)
	}

	config.RateLimit = RateLimitConfig{
		ClockPerMinute: clockPerMinute,
		ClockBurst:     clockBurst,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Seed = SeedConfig{
		AdminUsername: getEnv("SEED_ADMIN_USERNAME", ""),
		AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.App.Store {
	case StorePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("APP_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.App.Store)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if c.Redis.Addr != "" && c.Redis.ReportTTL <= 0 {
		return fmt.Errorf("REPORT_CACHE_TTL must be positive")
	}
	if c.RateLimit.ClockPerMinute < 0 || c.RateLimit.ClockBurst < 0 {
		return fmt.Errorf("clock rate limit must not be negative")
	}
	if (c.Seed.AdminUsername == "") != (c.Seed.AdminPassword == "") {
		return fmt.Errorf("SEED_ADMIN_USERNAME and SEED_ADMIN_PASSWORD must be set together")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// LogLevel maps LOG_LEVEL onto slog, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback []string) []string {
	value := getEnv(env, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
