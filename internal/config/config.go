package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	NATS struct {
		URL  string
		Name string
	}

	S3 struct {
		Endpoint  string
		Region    string
		Bucket    string
		AccessKey string
		SecretKey string
	}

	Telegram struct {
		BotToken string
	}

	Matching struct {
		CompletenessThreshold int
		SearchCooldown        time.Duration
		CacheTTL              time.Duration
		CacheSize             int
	}

	Metrics struct {
		Addr string
	}
}

func New() *Config {
	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "dating")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// NATS
	cfg.NATS.URL = getEnvDefault("NATS_URL", "nats://localhost:4222")
	cfg.NATS.Name = getEnvDefault("NATS_CLIENT_NAME", "datingbot")

	// Object store (MinIO in docker-compose, any S3-compatible endpoint works)
	cfg.S3.Endpoint = getEnvDefault("S3_ENDPOINT", "http://localhost:9000")
	cfg.S3.Region = getEnvDefault("S3_REGION", "us-east-1")
	cfg.S3.Bucket = getEnvDefault("S3_BUCKET", "photos")
	cfg.S3.AccessKey = getEnvDefault("S3_ACCESS_KEY", "")
	cfg.S3.SecretKey = getEnvDefault("S3_SECRET_KEY", "")

	// Telegram
	cfg.Telegram.BotToken = os.Getenv("BOT_TOKEN")

	// Matching
	cfg.Matching.CompletenessThreshold = getEnvInt("MATCH_COMPLETENESS_THRESHOLD", 80)
	cfg.Matching.SearchCooldown = getEnvDuration("MATCH_SEARCH_COOLDOWN", 5*time.Minute)
	cfg.Matching.CacheTTL = getEnvDuration("MATCH_CACHE_TTL", time.Hour)
	cfg.Matching.CacheSize = getEnvInt("MATCH_CACHE_SIZE", 10)

	// Metrics
	cfg.Metrics.Addr = getEnvDefault("METRICS_ADDR", ":9091")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
