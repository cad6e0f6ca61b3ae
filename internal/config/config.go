package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel        slog.Level
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	OpenWeatherURL    string
	OpenWeatherAPIKey string
	WeatherTimeout    time.Duration
	WeatherRetries    int

	RecomputeInterval    time.Duration
	RecomputeConcurrency int
	IncidentMaxAge       time.Duration

	RedisEnabled       bool
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	WeatherCacheTTL    time.Duration
	AssessmentCacheTTL time.Duration

	ArchiveEnabled       bool
	ArchiveDir           string
	ArchiveFlushInterval time.Duration
	ArchiveMaxRecords    int

	RateLimitPerWindow int
	RateLimitWindow    time.Duration
	RateLimitWhitelist []string

	ModelPath string
	Model     Model
}

// Load reads the service configuration from the environment. Model
// tunables come from the YAML file named by MODEL_CONFIG, layered over the
// built-in defaults. Without OPENWEATHER_API_KEY the service runs on
// synthesized weather.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:        getLogLevelEnv("LOG_LEVEL", slog.LevelInfo),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:     getDurationEnv("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		OpenWeatherURL:    getEnv("OPENWEATHER_URL", "https://api.openweathermap.org/data/2.5/weather"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		WeatherTimeout:    getDurationEnv("WEATHER_TIMEOUT", 10*time.Second),
		WeatherRetries:    getIntEnv("WEATHER_RETRIES", 2),

		RecomputeInterval:    getDurationEnv("RECOMPUTE_INTERVAL", time.Minute),
		RecomputeConcurrency: getIntEnv("RECOMPUTE_CONCURRENCY", 4),
		IncidentMaxAge:       getDurationEnv("INCIDENT_MAX_AGE", 72*time.Hour),

		RedisEnabled:       getBoolEnv("REDIS_ENABLED", false),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getIntEnv("REDIS_DB", 0),
		WeatherCacheTTL:    getDurationEnv("WEATHER_CACHE_TTL", 10*time.Minute),
		AssessmentCacheTTL: getDurationEnv("ASSESSMENT_CACHE_TTL", time.Hour),

		ArchiveEnabled:       getBoolEnv("ARCHIVE_ENABLED", false),
		ArchiveDir:           getEnv("ARCHIVE_DIR", "data/archive"),
		ArchiveFlushInterval: getDurationEnv("ARCHIVE_FLUSH_INTERVAL", 5*time.Minute),
		ArchiveMaxRecords:    getIntEnv("ARCHIVE_MAX_RECORDS", 1000),

		RateLimitPerWindow: getIntEnv("RATE_LIMIT_PER_WINDOW", 120),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitWhitelist: getCSVEnv("RATE_LIMIT_WHITELIST"),

		ModelPath: os.Getenv("MODEL_CONFIG"),
		Model:     DefaultModel(),
	}

	if cfg.RecomputeInterval <= 0 {
		return nil, fmt.Errorf("RECOMPUTE_INTERVAL must be positive")
	}

	if cfg.ModelPath != "" {
		m, err := LoadModel(cfg.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("loading model config: %w", err)
		}
		cfg.Model = m
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}

func getCSVEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	return result
}
