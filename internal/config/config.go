package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Open-Meteo forecast API.
	ForecastBaseURL    string
	ForecastTimeout    time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// Open-Meteo geocoding API.
	GeocodingBaseURL   string
	GeocodingCountry   string
	GeocodingTimeout   time.Duration
	GeocodingCacheSize int

	// Initial location and refresh policy.
	DefaultLocationName string
	DefaultLat          float64
	DefaultLon          float64
	RefreshInterval     time.Duration // 0 disables periodic refresh
	ObservationMaxAge   time.Duration // 0 disables age-based staleness

	// Assessment publishing (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	KafkaEnabled         bool
	KafkaBrokers         []string
	KafkaAssessmentTopic string

	// Last-good observation persistence (feature-flagged via REDIS_ENABLED / REDIS_ADDR).
	RedisEnabled   bool
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	RedisTTL       time.Duration
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present; it
// never overrides variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	forecastTimeout, err := parsePositiveDuration("FORECAST_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocodingTimeout, err := parsePositiveDuration("GEOCODING_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	breakerOpenTimeout, err := parsePositiveDuration("BREAKER_OPEN_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseNonNegativeDuration("REFRESH_INTERVAL", "0s")
	if err != nil {
		return nil, err
	}
	maxAge, err := parseNonNegativeDuration("OBSERVATION_MAX_AGE", "1h")
	if err != nil {
		return nil, err
	}
	redisTTL, err := parseNonNegativeDuration("REDIS_TTL", "24h")
	if err != nil {
		return nil, err
	}

	lat, err := parseFloat("DEFAULT_LAT", "58.97")
	if err != nil {
		return nil, err
	}
	lon, err := parseFloat("DEFAULT_LON", "5.73")
	if err != nil {
		return nil, err
	}

	breakerMaxFailures, err := parsePositiveInt("BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseNonNegativeInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	var kafkaBrokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		kafkaBrokers = sharedcfg.ParseBrokers(raw)
	}
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	redisEnabled := redisAddr != ""
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		redisEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ForecastBaseURL:    sharedcfg.EnvOrDefault("FORECAST_BASE_URL", "https://api.open-meteo.com"),
		ForecastTimeout:    forecastTimeout,
		BreakerMaxFailures: uint32(breakerMaxFailures),
		BreakerOpenTimeout: breakerOpenTimeout,

		GeocodingBaseURL:   sharedcfg.EnvOrDefault("GEOCODING_BASE_URL", "https://geocoding-api.open-meteo.com"),
		GeocodingCountry:   sharedcfg.EnvOrDefault("GEOCODING_COUNTRY", "NO"),
		GeocodingTimeout:   geocodingTimeout,
		GeocodingCacheSize: parseCacheSize(),

		DefaultLocationName: sharedcfg.EnvOrDefault("DEFAULT_LOCATION_NAME", "Stavanger"),
		DefaultLat:          lat,
		DefaultLon:          lon,
		RefreshInterval:     refreshInterval,
		ObservationMaxAge:   maxAge,

		KafkaEnabled:         kafkaEnabled,
		KafkaBrokers:         kafkaBrokers,
		KafkaAssessmentTopic: sharedcfg.EnvOrDefault("KAFKA_ASSESSMENT_TOPIC", "field-risk-assessments"),

		RedisEnabled:   redisEnabled,
		RedisAddr:      redisAddr,
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		RedisKeyPrefix: sharedcfg.EnvOrDefault("REDIS_KEY_PREFIX", "field-risk"),
		RedisTTL:       redisTTL,
	}

	if cfg.DefaultLat < -90 || cfg.DefaultLat > 90 {
		return nil, errors.New("DEFAULT_LAT must be within [-90, 90]")
	}
	if cfg.DefaultLon < -180 || cfg.DefaultLon > 180 {
		return nil, errors.New("DEFAULT_LON must be within [-180, 180]")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaAssessmentTopic == "" {
		return nil, errors.New("KAFKA_ASSESSMENT_TOPIC is required when Kafka is enabled")
	}
	if cfg.RedisEnabled && cfg.RedisAddr == "" {
		return nil, errors.New("REDIS_ENABLED is true but REDIS_ADDR is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseCacheSize() int {
	if s := os.Getenv("GEOCODING_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
