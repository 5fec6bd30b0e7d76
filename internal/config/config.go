// Package config loads service settings from the environment, with an
// optional .env file for local development and a TOML file for the
// etype-to-event-type mapping table.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize int

	// Conversion settings.
	AgencyID          string
	AuthorityID       string
	RIDSchema         string
	DOI               string
	ETypeMap          map[string]string
	AutomaticAuthors  []string
	PreferredMagTypes []string

	// Entity classes assembled per event.
	ConvertPicks     bool
	ConvertStaMags   bool
	ConvertFocalMech bool
	ANSS             bool

	// Nearest-place enrichment.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is merged first without
// overriding real environment variables.
func Load() (*Config, error) {
	// Ignore a missing .env; it only exists in development.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	batchSize, err := parsePositiveInt("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("MAPBOX_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	etypes, err := loadETypeMap(os.Getenv("ETYPE_MAP_FILE"))
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:     splitCSV(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "css-event-bundles"),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "quakeml-events"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "css2quakeml-etl"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		BatchSize:        batchSize,

		AgencyID:          envOrDefault("AGENCY_ID", "XX"),
		AuthorityID:       envOrDefault("AUTHORITY_ID", "local"),
		RIDSchema:         envOrDefault("RID_SCHEMA", "quakeml"),
		DOI:               os.Getenv("DOI"),
		ETypeMap:          etypes,
		AutomaticAuthors:  splitCSV(os.Getenv("AUTOMATIC_AUTHORS")),
		PreferredMagTypes: splitCSV(envOrDefault("PREFERRED_MAGTYPES", "mw,ml,mb,ms")),

		ConvertPicks:     envBool("CONVERT_PICKS", true),
		ConvertStaMags:   envBool("CONVERT_STAMAGS", true),
		ConvertFocalMech: envBool("CONVERT_FOCALMECH", true),
		ANSS:             envBool("ANSS", false),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: cacheSize,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.AgencyID == "" {
		return nil, errors.New("AGENCY_ID is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// etypeFile is the TOML layout of the mapping file: one [etypes] table of
// flag = "event type" pairs.
type etypeFile struct {
	ETypes map[string]string `toml:"etypes"`
}

// loadETypeMap reads etype overrides from a TOML file. An empty path means
// no overrides; the converter's built-in defaults still apply.
func loadETypeMap(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read etype map: %w", err)
	}
	var f etypeFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse etype map %s: %w", path, err)
	}
	return f.ETypes, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1"
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// splitCSV splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
