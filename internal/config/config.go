package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	Port      string
	JWTSecret string // empty disables bearer auth
	LogLevel  slog.Level

	// Sources
	StopEventsSource string // "file" or "sql"
	StopEventsPath   string
	RidershipPath    string
	StopEventsTable  string
	RidershipTable   string
	DBDriver         string
	DBDSN            string
	ReferencePath    string // empty uses the embedded tables

	SourceLocation   *time.Location
	AnalysisLocation *time.Location

	CacheSize int
	CacheTTL  time.Duration

	ReloadLimitPerMinute int // 0 disables the limit

	Analysis AnalysisConfig
}

// AnalysisConfig holds the tuning knobs of the metrics pipeline
type AnalysisConfig struct {
	// Arrival variance outlier trim, percentiles in 0-100
	TrimLowerPercentile float64
	TrimUpperPercentile float64
	// Only consider events with a known expected frequency for arrival variance
	RequireExpectedFreq bool

	// Headway IQR trim multiplier and bunching threshold (fraction of expected frequency)
	IQRMultiplier float64
	BunchingRatio float64

	// Frequency assigned to routes absent from the schedule table; nil leaves them unknown
	UnmatchedFrequency *float64
	// Hours below this are treated as a continuation of the previous service day
	EarlyMorningCutoffHour float64

	TrafficLowQuantile  float64
	TrafficHighQuantile float64
}

// DefaultAnalysisConfig returns the documented defaults
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		TrimLowerPercentile:    10,
		TrimUpperPercentile:    90,
		RequireExpectedFreq:    true,
		IQRMultiplier:          1.5,
		BunchingRatio:          0.5,
		EarlyMorningCutoffHour: 4,
		TrafficLowQuantile:     0.33,
		TrafficHighQuantile:    0.66,
	}
}

// Load 加载配置
// Values come from .env (if present) and the process environment.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getenvDefault("PORT", ":8080"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		StopEventsSource: strings.ToLower(getenvDefault("STOP_EVENTS_SOURCE", "file")),
		StopEventsPath:   getenvDefault("STOP_EVENTS_PATH", "data/processed/StopEvents.tsv"),
		RidershipPath:    lookupDefault("RIDERSHIP_PATH", "data/processed/25-23-24-StopEvents.tsv"),
		StopEventsTable:  getenvDefault("STOP_EVENTS_TABLE", "stop_events"),
		RidershipTable:   lookupDefault("RIDERSHIP_TABLE", "stop_events"),
		DBDriver:         getenvDefault("DB_DRIVER", "sqlite"),
		DBDSN:            getenvDefault("DB_DSN", "./data/shuttle.db"),
		ReferencePath:    os.Getenv("REFERENCE_PATH"),
		Analysis:         DefaultAnalysisConfig(),
	}

	if cfg.StopEventsSource != "file" && cfg.StopEventsSource != "sql" {
		return nil, fmt.Errorf("invalid STOP_EVENTS_SOURCE: %q", cfg.StopEventsSource)
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getenvDefault("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.SourceLocation, err = loadLocation("SOURCE_TZ", "UTC"); err != nil {
		return nil, err
	}
	if cfg.AnalysisLocation, err = loadLocation("ANALYSIS_TZ", "America/Chicago"); err != nil {
		return nil, err
	}

	if cfg.CacheSize, err = intEnv("CACHE_SIZE", 8, 1); err != nil {
		return nil, err
	}
	ttl, err := intEnv("CACHE_TTL_SECONDS", 600, 0)
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = time.Duration(ttl) * time.Second
	if cfg.ReloadLimitPerMinute, err = intEnv("RELOAD_LIMIT_PER_MINUTE", 6, 0); err != nil {
		return nil, err
	}

	a := &cfg.Analysis
	if a.TrimLowerPercentile, err = floatEnv("TRIM_LOWER_PERCENTILE", a.TrimLowerPercentile, 0, 100); err != nil {
		return nil, err
	}
	if a.TrimUpperPercentile, err = floatEnv("TRIM_UPPER_PERCENTILE", a.TrimUpperPercentile, 0, 100); err != nil {
		return nil, err
	}
	if a.TrimLowerPercentile > a.TrimUpperPercentile {
		return nil, fmt.Errorf("TRIM_LOWER_PERCENTILE must not exceed TRIM_UPPER_PERCENTILE")
	}
	if a.IQRMultiplier, err = floatEnv("IQR_MULTIPLIER", a.IQRMultiplier, 0, 10); err != nil {
		return nil, err
	}
	if a.BunchingRatio, err = floatEnv("BUNCHING_RATIO", a.BunchingRatio, 0, 1); err != nil {
		return nil, err
	}
	if a.EarlyMorningCutoffHour, err = floatEnv("EARLY_MORNING_CUTOFF_HOUR", a.EarlyMorningCutoffHour, 0, 12); err != nil {
		return nil, err
	}
	if a.TrafficLowQuantile, err = floatEnv("TRAFFIC_LOW_QUANTILE", a.TrafficLowQuantile, 0, 1); err != nil {
		return nil, err
	}
	if a.TrafficHighQuantile, err = floatEnv("TRAFFIC_HIGH_QUANTILE", a.TrafficHighQuantile, 0, 1); err != nil {
		return nil, err
	}
	if a.TrafficLowQuantile > a.TrafficHighQuantile {
		return nil, fmt.Errorf("TRAFFIC_LOW_QUANTILE must not exceed TRAFFIC_HIGH_QUANTILE")
	}
	if v := os.Getenv("REQUIRE_EXPECTED_FREQ"); v != "" {
		a.RequireExpectedFreq = parseBool(v)
	}
	if v := os.Getenv("UNMATCHED_FREQUENCY_MINUTES"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid UNMATCHED_FREQUENCY_MINUTES: %q", v)
		}
		a.UnmatchedFrequency = &f
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// lookupDefault keeps an explicitly empty value, which disables the source
func lookupDefault(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func intEnv(k string, def, min int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return n, nil
}

func floatEnv(k string, def, min, max float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < min || f > max {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return f, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func parseLevel(v string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %q", v)
	}
	return level, nil
}

func loadLocation(k, def string) (*time.Location, error) {
	name := getenvDefault(k, def)
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %v", k, err)
	}
	return loc, nil
}
