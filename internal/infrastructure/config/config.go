package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// loaded from environment variables, no magic defaults for required fields.
type Config struct {
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Server   ServerConfig
	Feed      FeedConfig
	Ingestion IngestionConfig
	Trending  TrendingConfig
	LogLevel  string
}

// DatabaseConfig contains database connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Schema   string
}

// AuthConfig contains authentication configuration.
type AuthConfig struct {
	// JWTSecret is the HMAC secret bearer tokens are signed with.
	JWTSecret string
}

// RedisConfig contains the optional redis connection.
// an empty URL disables the trending board.
type RedisConfig struct {
	URL string
}

// Enabled reports whether redis is configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// ServerConfig contains http server settings.
type ServerConfig struct {
	Port string
}

// FeedConfig contains feed serving parameters.
type FeedConfig struct {
	DefaultLimit       int
	MaxLimit           int
	PopularWindow      time.Duration
	CandidateCacheSize int
	CandidateCacheTTL  time.Duration
	RequestTimeout     time.Duration
}

// IngestionConfig sizes the interaction ingestion worker.
type IngestionConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	Workers       int
}

// TrendingConfig controls how fast the trending board forgets.
type TrendingConfig struct {
	DecayInterval time.Duration
	DecayFactor   float64
}

// ConnectionString returns the postgres connection string.
func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
		c.Schema,
	)
}

// Load reads configuration from environment variables.
// loads .env file if present, but doesn't fail if it's missing.
func Load() (*Config, error) {
	// try to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*Config, error) {
	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}

	authConfig, err := loadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("auth config: %w", err)
	}

	feedConfig, err := loadFeedConfig()
	if err != nil {
		return nil, fmt.Errorf("feed config: %w", err)
	}

	ingestionConfig, err := loadIngestionConfig()
	if err != nil {
		return nil, fmt.Errorf("ingestion config: %w", err)
	}

	trendingConfig, err := loadTrendingConfig()
	if err != nil {
		return nil, fmt.Errorf("trending config: %w", err)
	}

	return &Config{
		Database:  dbConfig,
		Auth:      authConfig,
		Redis:     RedisConfig{URL: os.Getenv("REDIS_URL")},
		Server:    ServerConfig{Port: getEnvOrDefault("PORT", "8080")},
		Feed:      feedConfig,
		Ingestion: ingestionConfig,
		Trending:  trendingConfig,
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
	}, nil
}

func loadAuthConfig() (AuthConfig, error) {
	config := AuthConfig{
		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	if config.JWTSecret == "" {
		return config, errors.New("JWT_SECRET is required")
	}

	return config, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	config := DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		SSLMode:  getEnvOrDefault("DB_SSL_MODE", "require"),
		Schema:   getEnvOrDefault("DB_SCHEMA", "pulsefeed"),
	}

	// required fields must be set
	if config.User == "" {
		return config, errors.New("DB_USER is required")
	}
	if config.Password == "" {
		return config, errors.New("DB_PASSWORD is required")
	}
	if config.Name == "" {
		return config, errors.New("DB_NAME is required")
	}

	return config, nil
}

func loadFeedConfig() (FeedConfig, error) {
	var (
		config FeedConfig
		err    error
	)

	if config.DefaultLimit, err = getEnvInt("FEED_DEFAULT_LIMIT", 20); err != nil {
		return config, err
	}
	if config.MaxLimit, err = getEnvInt("FEED_MAX_LIMIT", 100); err != nil {
		return config, err
	}
	windowHours, err := getEnvInt("FEED_POPULAR_WINDOW_HOURS", 72)
	if err != nil {
		return config, err
	}
	config.PopularWindow = time.Duration(windowHours) * time.Hour
	if config.CandidateCacheSize, err = getEnvInt("FEED_CANDIDATE_CACHE_SIZE", 1024); err != nil {
		return config, err
	}
	if config.CandidateCacheTTL, err = getEnvDuration("FEED_CANDIDATE_CACHE_TTL", 15*time.Second); err != nil {
		return config, err
	}
	if config.RequestTimeout, err = getEnvDuration("FEED_REQUEST_TIMEOUT", 2*time.Second); err != nil {
		return config, err
	}

	switch {
	case config.MaxLimit < 1 || config.MaxLimit > 100:
		return config, errors.New("FEED_MAX_LIMIT must be between 1 and 100")
	case config.DefaultLimit < 1 || config.DefaultLimit > config.MaxLimit:
		return config, errors.New("FEED_DEFAULT_LIMIT must be between 1 and FEED_MAX_LIMIT")
	case windowHours < 1:
		return config, errors.New("FEED_POPULAR_WINDOW_HOURS must be positive")
	case config.CandidateCacheSize < 0:
		return config, errors.New("FEED_CANDIDATE_CACHE_SIZE cannot be negative")
	}

	return config, nil
}

func loadIngestionConfig() (IngestionConfig, error) {
	var (
		config IngestionConfig
		err    error
	)

	if config.BufferSize, err = getEnvInt("INGEST_BUFFER_SIZE", 10000); err != nil {
		return config, err
	}
	if config.BatchSize, err = getEnvInt("INGEST_BATCH_SIZE", 100); err != nil {
		return config, err
	}
	if config.FlushInterval, err = getEnvDuration("INGEST_FLUSH_INTERVAL", 500*time.Millisecond); err != nil {
		return config, err
	}
	if config.Workers, err = getEnvInt("INGEST_WORKERS", 4); err != nil {
		return config, err
	}

	if config.BufferSize < 1 || config.BatchSize < 1 || config.Workers < 1 {
		return config, errors.New("INGEST_BUFFER_SIZE, INGEST_BATCH_SIZE and INGEST_WORKERS must be positive")
	}
	if config.FlushInterval <= 0 {
		return config, errors.New("INGEST_FLUSH_INTERVAL must be positive")
	}

	return config, nil
}

func loadTrendingConfig() (TrendingConfig, error) {
	var (
		config TrendingConfig
		err    error
	)

	if config.DecayInterval, err = getEnvDuration("TRENDING_DECAY_INTERVAL", 15*time.Minute); err != nil {
		return config, err
	}
	if config.DecayFactor, err = getEnvFloat("TRENDING_DECAY_FACTOR", 0.5); err != nil {
		return config, err
	}

	if config.DecayInterval <= 0 {
		return config, errors.New("TRENDING_DECAY_INTERVAL must be positive")
	}
	if config.DecayFactor <= 0 || config.DecayFactor >= 1 {
		return config, errors.New("TRENDING_DECAY_FACTOR must be between 0 and 1")
	}

	return config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
