package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	Backend BackendConfig
	Redis   RedisConfig
	S3      S3Config
	AWS     AWSConfig
	Staging StagingConfig
	Worker  WorkerConfig
	Cache   CacheConfig
	CORS    CORSConfig
}

// BackendConfig points at the marketplace REST backend.
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// RedisConfig contains Redis connection parameters. An empty Host disables
// Redis and the catalog is cached in memory.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// S3Config contains the bucket used for shop logos. An empty Bucket sends
// logos to the backend as multipart parts instead.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	PublicURL       string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether logo uploads go to S3.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// AWSConfig contains AWS Rekognition settings for image moderation.
type AWSConfig struct {
	AccessKeyID       string
	SecretAccessKey   string
	RekognitionRegion string
	ModerationEnabled bool
	MinConfidence     float64
}

// StagingConfig limits staged images and names the preview route.
type StagingConfig struct {
	MaxBytes        int64
	LogoMaxBytes    int64
	PreviewBasePath string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	FormIdleTTL            time.Duration
	SweepInterval          time.Duration
	CatalogRefreshInterval time.Duration
}

// CacheConfig contains cache lifetimes.
type CacheConfig struct {
	CategoryTTL time.Duration
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")

	// Marketplace backend
	cfg.Backend.URL = strings.TrimRight(getEnv("BACKEND_URL", ""), "/")

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// S3 (logos)
	cfg.S3 = S3Config{
		Region:          getEnv("S3_REGION", "us-east-1"),
		Bucket:          getEnv("S3_BUCKET", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		PublicURL:       strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
		Prefix:          strings.Trim(getEnv("S3_PREFIX", "logos"), "/"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	// AWS Rekognition (moderation)
	cfg.AWS = AWSConfig{
		AccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		RekognitionRegion: getEnv("AWS_REKOGNITION_REGION", "us-east-1"),
		ModerationEnabled: getEnvBool("MODERATION_ENABLED", false),
		MinConfidence:     getEnvFloat("MODERATION_MIN_CONFIDENCE", 80),
	}

	// Staging
	cfg.Staging = StagingConfig{
		MaxBytes:        int64(getEnvInt("STAGING_MAX_BYTES", 5<<20)),
		LogoMaxBytes:    int64(getEnvInt("LOGO_MAX_BYTES", 2<<20)),
		PreviewBasePath: strings.TrimRight(getEnv("PREVIEW_BASE_PATH", "/v1/previews"), "/"),
	}

	// CORS
	cfg.CORS.AllowedOrigins = splitList(getEnv("CORS_ORIGINS", "http://localhost:5173"))

	// Durations
	var err error
	if cfg.Backend.Timeout, err = parseDurationEnv("BACKEND_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid BACKEND_TIMEOUT: %w", err)
	}
	if cfg.Worker.FormIdleTTL, err = parseDurationEnv("FORM_IDLE_TTL", "30m"); err != nil {
		return nil, fmt.Errorf("invalid FORM_IDLE_TTL: %w", err)
	}
	if cfg.Worker.SweepInterval, err = parseDurationEnv("SWEEP_INTERVAL", "1m"); err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}
	if cfg.Worker.CatalogRefreshInterval, err = parseDurationEnv("CATALOG_REFRESH_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid CATALOG_REFRESH_INTERVAL: %w", err)
	}
	if cfg.Cache.CategoryTTL, err = parseDurationEnv("CATEGORY_CACHE_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid CATEGORY_CACHE_TTL: %w", err)
	}

	if cfg.Backend.URL == "" {
		return nil, errors.New("BACKEND_URL must be set to the marketplace API base URL")
	}
	if cfg.Staging.MaxBytes <= 0 || cfg.Staging.LogoMaxBytes <= 0 {
		return nil, errors.New("STAGING_MAX_BYTES and LOGO_MAX_BYTES must be positive")
	}
	if cfg.Worker.SweepInterval <= 0 || cfg.Worker.CatalogRefreshInterval <= 0 {
		return nil, errors.New("SWEEP_INTERVAL and CATALOG_REFRESH_INTERVAL must be greater than zero")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
