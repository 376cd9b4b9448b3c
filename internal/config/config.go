package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// FIRMS ingestion configuration.
	FIRMSEndpoint string
	FIRMSMapKey   string
	FIRMSSource   string
	FIRMSArea     string
	FIRMSDays     int
	FIRMSTimeout  time.Duration
	CacheTTL      time.Duration

	// Dashboard view configuration.
	TopN                int
	RegionGrouping      domain.Grouping
	HistogramDense      bool
	DensityExcludeOther bool
	Areas               domain.AreaTable

	// Mapbox geocoding configuration.
	MapboxToken          string
	MapboxEnabled        bool
	MapboxTimeout        time.Duration
	MapboxCacheSize      int
	MapboxCacheTTL       time.Duration
	MapboxRateLimit      float64
	GeocodeConcurrency   int
	GeocodeGridPrecision int
	// GeocodeTimeout bounds reverse geocoding within one refresh.
	GeocodeTimeout time.Duration

	// Optional shared fetch cache.
	RedisAddr string

	// Optional enriched detection publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables (and a .env file when
// present), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	firmsTimeout, err := parseDuration("FIRMS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	mapboxCacheTTL, err := parseDuration("MAPBOX_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	days, err := parseIntRange("FIRMS_DAYS", "1", 1, 10)
	if err != nil {
		return nil, err
	}
	topN, err := parseIntRange("TOP_N", strconv.Itoa(domain.DefaultTopN), 1, 1000)
	if err != nil {
		return nil, err
	}
	concurrency, err := parseIntRange("GEOCODE_CONCURRENCY", strconv.Itoa(domain.DefaultGeocodeConcurrency), 1, 256)
	if err != nil {
		return nil, err
	}
	precision, err := parseIntRange("GEOCODE_GRID_PRECISION", "1", 0, 6)
	if err != nil {
		return nil, err
	}

	grouping, err := domain.ParseGrouping(sharedcfg.EnvOrDefault("REGION_GROUPING", string(domain.GroupByContinent)))
	if err != nil {
		return nil, fmt.Errorf("invalid REGION_GROUPING: %w", err)
	}

	area := strings.TrimSpace(sharedcfg.EnvOrDefault("FIRMS_AREA", "world"))
	if err := validateArea(area); err != nil {
		return nil, fmt.Errorf("invalid FIRMS_AREA: %w", err)
	}

	areas, err := loadAreas()
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("MAPBOX_RATE_LIMIT", "10"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid MAPBOX_RATE_LIMIT")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     parseList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		FIRMSEndpoint: strings.TrimRight(sharedcfg.EnvOrDefault("FIRMS_ENDPOINT", "https://firms.modaps.eosdis.nasa.gov/api/area/csv"), "/"),
		FIRMSMapKey:   os.Getenv("FIRMS_MAP_KEY"),
		FIRMSSource:   sharedcfg.EnvOrDefault("FIRMS_SOURCE", "VIIRS_SNPP_NRT"),
		FIRMSArea:     area,
		FIRMSDays:     days,
		FIRMSTimeout:  firmsTimeout,
		CacheTTL:      cacheTTL,

		TopN:                topN,
		RegionGrouping:      grouping,
		HistogramDense:      os.Getenv("HISTOGRAM_DENSE") == "true",
		DensityExcludeOther: os.Getenv("DENSITY_EXCLUDE_OTHER") == "true",
		Areas:               areas,

		MapboxToken:          mapboxToken,
		MapboxEnabled:        mapboxEnabled,
		MapboxTimeout:        mapboxTimeout,
		MapboxCacheSize:      parseMapboxCacheSize(),
		MapboxCacheTTL:       mapboxCacheTTL,
		MapboxRateLimit:      rateLimit,
		GeocodeConcurrency:   concurrency,
		GeocodeGridPrecision: precision,
		GeocodeTimeout:       geocodeTimeout,

		RedisAddr: os.Getenv("REDIS_ADDR"),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "enriched-fire-detections"),
	}

	if len(cfg.CORSOrigins) == 0 {
		return nil, errors.New("CORS_ALLOWED_ORIGINS must name at least one origin")
	}
	if cfg.FIRMSMapKey == "" {
		return nil, errors.New("FIRMS_MAP_KEY is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntRange(key, def string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 10000
}

// validateArea accepts "world" or a "west,south,east,north" bounding box.
func validateArea(area string) error {
	if area == "world" {
		return nil
	}
	parts := strings.Split(area, ",")
	if len(parts) != 4 {
		return fmt.Errorf("%q is neither \"world\" nor west,south,east,north", area)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("bounding box value %q: %w", p, err)
		}
		v[i] = f
	}
	west, south, east, north := v[0], v[1], v[2], v[3]
	if west < -180 || east > 180 || south < -90 || north > 90 || west >= east || south >= north {
		return fmt.Errorf("bounding box %q out of range", area)
	}
	return nil
}

// loadAreas builds the density area table: the built-in continent areas,
// overlaid with REGION_AREAS_FILE (YAML) and DEFAULT_AREA when set.
func loadAreas() (domain.AreaTable, error) {
	areas := domain.DefaultAreaTable()

	if path := os.Getenv("REGION_AREAS_FILE"); path != "" {
		overrides, err := LoadAreaFile(path)
		if err != nil {
			return domain.AreaTable{}, fmt.Errorf("invalid REGION_AREAS_FILE: %w", err)
		}
		areas = areas.Merge(overrides)
	}

	if s := os.Getenv("DEFAULT_AREA"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return domain.AreaTable{}, errors.New("invalid DEFAULT_AREA")
		}
		areas.DefaultArea = v
	}
	return areas, nil
}

// LoadAreaFile reads a YAML region-area table:
//
//	default_area: 1
//	areas:
//	  US: 9.83
//	  Europe: 10.18
func LoadAreaFile(path string) (domain.AreaTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.AreaTable{}, fmt.Errorf("read area file: %w", err)
	}
	var tbl domain.AreaTable
	if err := yaml.Unmarshal(data, &tbl); err != nil {
		return domain.AreaTable{}, fmt.Errorf("parse area file: %w", err)
	}
	for region, a := range tbl.Areas {
		if a <= 0 {
			return domain.AreaTable{}, fmt.Errorf("area for %q must be positive, got %g", region, a)
		}
	}
	return tbl, nil
}

// parseList splits a comma-separated value, dropping blank entries.
func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
