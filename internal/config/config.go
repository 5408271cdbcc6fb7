package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	LogLevel     string
	DatabasePath string

	// External collaborators
	BrokerageBaseURL   string
	BrokerageAPIKey    string
	BrokerageAPISecret string
	FeatureServiceURL  string

	// StrictStartup makes missing brokerage credentials fatal at startup.
	// When false the service starts in a degraded mode and reports the
	// missing configuration via the health endpoint.
	StrictStartup bool

	// Capture job
	Universe            []string
	ScanIntervalMinutes int
	ScanWindowStart     int // local hour, inclusive
	ScanWindowEnd       int // local hour, exclusive
	ScanWeekdays        []string
	Timezone            string

	Discovery  DiscoveryConfig
	Classifier ClassifierConfig
	Alerts     AlertConfig
}

// DiscoveryConfig holds thresholds for the dedup/quality pipeline and the
// discovery repository.
type DiscoveryConfig struct {
	PriceCap           float64 // upsert rejects prices above this
	MinPrice           float64
	MaxPrice           float64
	MinScore           float64
	MinRelVolume       float64
	SentinelPrices     []float64 // placeholder prices leaked from unfilled defaults
	ScoreDiffThreshold float64   // near-duplicate: |score a - score b| below this
	MinVolumeSim       float64   // near-duplicate: volume similarity at or above this
	MinMomentumSim     float64   // near-duplicate: momentum similarity at or above this
	DedupBySymbol      bool
	NearDupFilter      bool
	QualityFilter      bool
	RecencyWindowHours int
	CacheTTLSeconds    int
}

// ClassifierConfig holds the score band cutoffs on the canonical 0-10 scale.
// A score above Buy maps to BUY; at or above Monitor to MONITOR; at or above
// Watchlist to WATCHLIST; anything lower to IGNORE.
type ClassifierConfig struct {
	Buy       float64
	Monitor   float64
	Watchlist float64
}

// AlertConfig holds alert generation thresholds.
type AlertConfig struct {
	MaxAlerts          int
	DailyPnLAbs        float64 // absolute daily P&L that warrants a summary alert
	DailyPnLPct        float64 // daily P&L as a fraction of portfolio value
	LargeGainPct       float64
	LargeLossPct       float64
	LargePositionValue float64
	DiscoveryMinScore  float64 // discoveries at or above this raise an alert
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8090),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./data/scout.db"),

		BrokerageBaseURL:   getEnv("BROKERAGE_BASE_URL", ""),
		BrokerageAPIKey:    getEnv("BROKERAGE_API_KEY", ""),
		BrokerageAPISecret: getEnv("BROKERAGE_API_SECRET", ""),
		FeatureServiceURL:  getEnv("FEATURE_SERVICE_URL", ""),

		StrictStartup: getEnvAsBool("STRICT_STARTUP", false),

		Universe:            getEnvAsList("SCAN_UNIVERSE", nil),
		ScanIntervalMinutes: getEnvAsInt("SCAN_INTERVAL_MINUTES", 10),
		ScanWindowStart:     getEnvAsInt("SCAN_WINDOW_START_HOUR", 9),
		ScanWindowEnd:       getEnvAsInt("SCAN_WINDOW_END_HOUR", 16),
		ScanWeekdays:        getEnvAsList("SCAN_WEEKDAYS", []string{"MON", "TUE", "WED", "THU", "FRI"}),
		Timezone:            getEnv("SCAN_TIMEZONE", "America/New_York"),

		Discovery: DiscoveryConfig{
			PriceCap:           getEnvAsFloat("DISCOVERY_PRICE_CAP", 500.0),
			MinPrice:           getEnvAsFloat("DISCOVERY_MIN_PRICE", 0.10),
			MaxPrice:           getEnvAsFloat("DISCOVERY_MAX_PRICE", 100.0),
			MinScore:           getEnvAsFloat("DISCOVERY_MIN_SCORE", 2.0),
			MinRelVolume:       getEnvAsFloat("DISCOVERY_MIN_REL_VOLUME", 1.5),
			SentinelPrices:     []float64{50.0},
			ScoreDiffThreshold: getEnvAsFloat("DEDUP_SCORE_DIFF", 0.05),
			MinVolumeSim:       getEnvAsFloat("DEDUP_MIN_VOLUME_SIM", 0.95),
			MinMomentumSim:     getEnvAsFloat("DEDUP_MIN_MOMENTUM_SIM", 0.95),
			DedupBySymbol:      getEnvAsBool("DEDUP_BY_SYMBOL", true),
			NearDupFilter:      getEnvAsBool("DEDUP_NEAR_DUPLICATES", true),
			QualityFilter:      getEnvAsBool("QUALITY_FILTER", true),
			RecencyWindowHours: getEnvAsInt("DISCOVERY_RECENCY_HOURS", 24),
			CacheTTLSeconds:    getEnvAsInt("DISCOVERY_CACHE_TTL_SECONDS", 120),
		},

		Classifier: ClassifierConfig{
			Buy:       getEnvAsFloat("CLASSIFIER_BUY_THRESHOLD", 7.0),
			Monitor:   getEnvAsFloat("CLASSIFIER_MONITOR_THRESHOLD", 2.0),
			Watchlist: getEnvAsFloat("CLASSIFIER_WATCHLIST_THRESHOLD", 1.0),
		},

		Alerts: AlertConfig{
			MaxAlerts:          getEnvAsInt("ALERT_MAX_COUNT", 5),
			DailyPnLAbs:        getEnvAsFloat("ALERT_DAILY_PNL_ABS", 1000.0),
			DailyPnLPct:        getEnvAsFloat("ALERT_DAILY_PNL_PCT", 0.02),
			LargeGainPct:       getEnvAsFloat("ALERT_LARGE_GAIN_PCT", 25.0),
			LargeLossPct:       getEnvAsFloat("ALERT_LARGE_LOSS_PCT", -15.0),
			LargePositionValue: getEnvAsFloat("ALERT_LARGE_POSITION_VALUE", 5000.0),
			DiscoveryMinScore:  getEnvAsFloat("ALERT_DISCOVERY_MIN_SCORE", 7.0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present.
// Brokerage credentials are only required in strict-startup mode; without
// them the portfolio endpoints fall back to disconnected results.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.ScanIntervalMinutes <= 0 {
		return fmt.Errorf("SCAN_INTERVAL_MINUTES must be positive")
	}
	if c.ScanWindowStart < 0 || c.ScanWindowStart > 23 || c.ScanWindowEnd < 1 || c.ScanWindowEnd > 24 {
		return fmt.Errorf("scan window hours out of range")
	}
	if c.StrictStartup && (c.BrokerageAPIKey == "" || c.BrokerageAPISecret == "") {
		return fmt.Errorf("brokerage API credentials required in strict startup mode")
	}
	return nil
}

// MissingCredentials reports whether the brokerage collaborator is
// unconfigured. Surfaced through the health endpoint in degraded mode.
func (c *Config) MissingCredentials() bool {
	return c.BrokerageAPIKey == "" || c.BrokerageAPISecret == ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
