package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// StaticDir is the absolute path to the directory served at /static/.
	// Set via STATIC_DIR (relative paths are resolved against the process working directory at startup).
	StaticDir string

	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	// SlowQueryThreshold promotes SQL statement logs from debug to warn.
	SlowQueryThreshold time.Duration

	OpenMeteoBaseURL      string
	OpenMeteoTimeout      time.Duration
	ForecastDays          int
	WeatherCacheTTL       time.Duration
	WeatherCacheSize      int
	WeatherSnapshotMaxAge time.Duration
	// WeatherRefreshCron is a standard 5-field cron spec; empty disables the refresh job.
	WeatherRefreshCron string

	MapTileURL     string
	MapAttribution string

	MQTTEnabled     bool
	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTTopicPrefix string

	ShutdownTimeout time.Duration
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	staticDir := envOrDefault("STATIC_DIR", "static")
	staticDir, err = filepath.Abs(staticDir)
	if err != nil {
		return Config{}, fmt.Errorf("STATIC_DIR %q: %w", staticDir, err)
	}

	maxOpenConns, err := parseInt("DB_MAX_OPEN_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := parseInt("DB_MAX_IDLE_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := parseDuration("DB_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return Config{}, err
	}

	slowQuery, err := parseDuration("DB_SLOW_QUERY_THRESHOLD", "200ms")
	if err != nil {
		return Config{}, err
	}

	openMeteoTimeout, err := parseDuration("OPEN_METEO_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	if openMeteoTimeout <= 0 {
		return Config{}, fmt.Errorf("OPEN_METEO_TIMEOUT must be > 0")
	}

	forecastDays, err := parseInt("FORECAST_DAYS", "7")
	if err != nil {
		return Config{}, err
	}
	if forecastDays < 1 || forecastDays > 16 {
		return Config{}, fmt.Errorf("FORECAST_DAYS must be between 1 and 16, got %d", forecastDays)
	}

	cacheTTL, err := parseDuration("WEATHER_CACHE_TTL", "5h")
	if err != nil {
		return Config{}, err
	}
	cacheSize, err := parseInt("WEATHER_CACHE_SIZE", "1000")
	if err != nil {
		return Config{}, err
	}
	if cacheSize <= 0 {
		return Config{}, fmt.Errorf("WEATHER_CACHE_SIZE must be > 0, got %d", cacheSize)
	}
	snapshotMaxAge, err := parseDuration("WEATHER_SNAPSHOT_MAX_AGE", "1h")
	if err != nil {
		return Config{}, err
	}

	refreshCron := envOrDefault("WEATHER_REFRESH_CRON", "0 * * * *")
	if refreshCron != "off" {
		if _, err := cron.ParseStandard(refreshCron); err != nil {
			return Config{}, fmt.Errorf("invalid WEATHER_REFRESH_CRON %q: %w", refreshCron, err)
		}
	} else {
		refreshCron = ""
	}

	mqttEnabled, err := parseBool("MQTT_ENABLED", "false")
	if err != nil {
		return Config{}, err
	}
	mqttPort, err := parseInt("MQTT_PORT", "1883")
	if err != nil {
		return Config{}, err
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:    appEnv,
		LogLevel:  level,
		HTTPAddr:  envOrDefault("HTTP_ADDR", ":8080"),
		StaticDir: staticDir,

		SQLiteDSN:             strings.TrimSpace(os.Getenv("SQLITE_DSN")),
		SQLitePath:            envOrDefault("SQLITE_PATH", "dev/sqlite/cragcast.db"),
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SlowQueryThreshold:    slowQuery,

		OpenMeteoBaseURL:      strings.TrimRight(envOrDefault("OPEN_METEO_BASE_URL", "https://api.open-meteo.com/v1"), "/"),
		OpenMeteoTimeout:      openMeteoTimeout,
		ForecastDays:          forecastDays,
		WeatherCacheTTL:       cacheTTL,
		WeatherCacheSize:      cacheSize,
		WeatherSnapshotMaxAge: snapshotMaxAge,
		WeatherRefreshCron:    refreshCron,

		MapTileURL:     envOrDefault("MAP_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		MapAttribution: envOrDefault("MAP_ATTRIBUTION", "© OpenStreetMap contributors"),

		MQTTEnabled:     mqttEnabled,
		MQTTBroker:      envOrDefault("MQTT_BROKER", "localhost"),
		MQTTPort:        mqttPort,
		MQTTClientID:    envOrDefault("MQTT_CLIENT_ID", "cragcast-server"),
		MQTTTopicPrefix: strings.Trim(envOrDefault("MQTT_TOPIC_PREFIX", "cragcast"), "/"),

		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func envOrDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseInt(key, def string) (int, error) {
	s := envOrDefault(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func parseBool(key, def string) (bool, error) {
	s := envOrDefault(key, def)
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
