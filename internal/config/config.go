package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Record source kinds selectable via RECORD_SOURCE.
const (
	SourceAPI = "api"
	SourceCSV = "csv"
)

// MaxResultLimit caps how many incidents a single snapshot returns.
const MaxResultLimit = 1000

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Record source configuration.
	RecordSource  string
	APIBaseURL    string
	APITimeout    time.Duration
	CSVPath       string
	ResultLimit   int
	CacheSize     int
	CacheTTL      time.Duration
	DisplayTZ     *time.Location
	DisplayTZName string

	// Streaming ETL configuration.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := parsePositiveDuration("INCIDENTS_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parsePositiveDuration("SOURCE_CACHE_TTL", "1m")
	if err != nil {
		return nil, err
	}

	resultLimit, err := parseResultLimit()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	tzName := sharedcfg.EnvOrDefault("DISPLAY_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RecordSource:  strings.ToLower(sharedcfg.EnvOrDefault("RECORD_SOURCE", SourceAPI)),
		APIBaseURL:    strings.TrimRight(sharedcfg.EnvOrDefault("INCIDENTS_API_URL", "http://localhost:5000"), "/"),
		APITimeout:    apiTimeout,
		CSVPath:       os.Getenv("INCIDENTS_CSV_PATH"),
		ResultLimit:   resultLimit,
		CacheSize:     cacheSize,
		CacheTTL:      cacheTTL,
		DisplayTZ:     loc,
		DisplayTZName: tzName,

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-crime-incidents"),
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "normalized-crime-incidents"),
		KafkaGroupID:     sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "la-crime-etl"),
	}

	switch cfg.RecordSource {
	case SourceAPI:
		if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
			return nil, fmt.Errorf("invalid INCIDENTS_API_URL: %w", err)
		}
	case SourceCSV:
		if cfg.CSVPath == "" {
			return nil, errors.New("RECORD_SOURCE is csv but INCIDENTS_CSV_PATH is not set")
		}
	default:
		return nil, fmt.Errorf("invalid RECORD_SOURCE %q: want api or csv", cfg.RecordSource)
	}

	if cfg.KafkaEnabled {
		if err := loadKafka(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadKafka validates the streaming settings, which are only read when the
// Kafka pipeline is enabled.
func loadKafka(cfg *Config) error {
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return err
	}
	cfg.BatchSize = batchSize
	cfg.BatchFlushInterval = flushInterval

	if len(cfg.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	return nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseResultLimit() (int, error) {
	s := os.Getenv("RESULT_LIMIT")
	if s == "" {
		return MaxResultLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > MaxResultLimit {
		return 0, fmt.Errorf("invalid RESULT_LIMIT: must be between 1 and %d", MaxResultLimit)
	}
	return n, nil
}

// parseCacheSize returns SOURCE_CACHE_SIZE; 0 disables the cache.
func parseCacheSize() (int, error) {
	s := os.Getenv("SOURCE_CACHE_SIZE")
	if s == "" {
		return 100, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid SOURCE_CACHE_SIZE: must be a non-negative integer")
	}
	return n, nil
}
