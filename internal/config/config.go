package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
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

	BatchSize          int
	BatchFlushInterval time.Duration

	// DefaultZenith applies to queries that do not name one.
	DefaultZenith solar.Zenith

	// WatchLocations get a report published at every sunrise and sunset.
	WatchLocations []WatchLocation

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// WatchLocation is a named coordinate with an optional IANA time zone.
type WatchLocation struct {
	Name      string
	Latitude  float64
	Longitude float64
	TimeZone  string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err2 := time.ParseDuration(mapboxTimeoutStr)
	if err2 != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	zenith, err := solar.ParseZenith(os.Getenv("DEFAULT_ZENITH"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_ZENITH: %w", err)
	}

	watch, err := ParseWatchLocations(os.Getenv("WATCH_LOCATIONS"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCH_LOCATIONS: %w", err)
	}

	mapboxCacheSize := parseMapboxCacheSize()

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "solar-queries"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "solar-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "solar-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		DefaultZenith:  zenith,
		WatchLocations: watch,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
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
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// ParseWatchLocations parses "name@lat,lon[@tz]" entries separated by
// semicolons, e.g. "london@51.5085,-0.1257@Europe/London;quito@-0.22,-78.51".
func ParseWatchLocations(s string) ([]WatchLocation, error) {
	var out []WatchLocation
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "@")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
			return nil, fmt.Errorf("entry %q: want name@lat,lon[@tz]", entry)
		}
		latlon := strings.Split(parts[1], ",")
		if len(latlon) != 2 {
			return nil, fmt.Errorf("entry %q: want lat,lon", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latlon[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("entry %q: latitude: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(latlon[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("entry %q: longitude: %w", entry, err)
		}
		if _, err := solar.NewCoordinate(lat, lon); err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, err)
		}
		loc := WatchLocation{Name: parts[0], Latitude: lat, Longitude: lon}
		if len(parts) == 3 {
			if _, err := time.LoadLocation(parts[2]); err != nil {
				return nil, fmt.Errorf("entry %q: %w", entry, err)
			}
			loc.TimeZone = parts[2]
		}
		out = append(out, loc)
	}
	return out, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
