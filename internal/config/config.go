package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"soilmm/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Paths    PathConfig
	Analysis AnalysisConfig
	Runtime  RuntimeConfig
}

// PathConfig holds file system locations. Relative source files in the
// location catalog resolve against DataDir.
type PathConfig struct {
	LocationsFile string
	DataDir       string
}

// AnalysisConfig holds the defaults of the numeric pipeline
type AnalysisConfig struct {
	LagMin         int
	LagMax         int
	Partition      string // "none", "year" or "hydrological_year"
	Driver         string // driver kind correlated against every layer
	DetrendMethod  string // "linear", "moving_average" or "none"
	DetrendWindow  int
	TrendMonths    []time.Month
	UnitScale      float64
	Significance   bool
	ReferenceShift bool // express series relative to 1 January of the second year
	PartialYears   bool // keep hydrological years missing their first or last day
}

// RuntimeConfig holds batch execution settings
type RuntimeConfig struct {
	Workers  int
	LogLevel string
}

// Load reads configuration from environment variables and validates it.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	months, err := parseMonths(getEnvOrDefault("SOILMM_TREND_MONTHS", "1,2"))
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to load analysis configuration")
	}

	config := &Config{
		Paths: PathConfig{
			LocationsFile: getEnvOrDefault("SOILMM_LOCATIONS_FILE", "locations.yaml"),
			DataDir:       getEnvOrDefault("SOILMM_DATA_DIR", "."),
		},
		Analysis: AnalysisConfig{
			LagMin:         getEnvIntOrDefault("SOILMM_LAG_MIN", -100*24+1),
			LagMax:         getEnvIntOrDefault("SOILMM_LAG_MAX", 100*24-1),
			Partition:      getEnvOrDefault("SOILMM_PARTITION", "year"),
			Driver:         getEnvOrDefault("SOILMM_DRIVER", "precipitation_deficit"),
			DetrendMethod:  getEnvOrDefault("SOILMM_DETREND", "linear"),
			DetrendWindow:  getEnvIntOrDefault("SOILMM_DETREND_WINDOW", 7),
			TrendMonths:    months,
			UnitScale:      getEnvFloatOrDefault("SOILMM_UNIT_SCALE", 10),
			Significance:   getEnvBoolOrDefault("SOILMM_SIGNIFICANCE", false),
			ReferenceShift: getEnvBoolOrDefault("SOILMM_REFERENCE_SHIFT", false),
			PartialYears:   getEnvBoolOrDefault("SOILMM_PARTIAL_YEARS", false),
		},
		Runtime: RuntimeConfig{
			Workers:  getEnvIntOrDefault("SOILMM_WORKERS", 4),
			LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Validate checks the settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	a := c.Analysis
	if a.LagMin > a.LagMax {
		return errors.ConfigInvalid(fmt.Sprintf("lag range [%d, %d] is empty", a.LagMin, a.LagMax))
	}
	switch a.Partition {
	case "none", "year", "hydrological_year":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown partition %q", a.Partition))
	}
	switch a.DetrendMethod {
	case "none", "linear", "moving_average":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown detrend method %q", a.DetrendMethod))
	}
	if a.DetrendWindow < 1 {
		return errors.ConfigInvalid("detrend window must be positive")
	}
	if len(a.TrendMonths) == 0 {
		return errors.ConfigInvalid("trend months are required")
	}
	if a.UnitScale == 0 {
		return errors.ConfigInvalid("unit scale cannot be zero")
	}
	if c.Runtime.Workers < 1 {
		return errors.ConfigInvalid("workers must be at least 1")
	}
	return nil
}

func parseMonths(s string) ([]time.Month, error) {
	var months []time.Month
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := strconv.Atoi(part)
		if err != nil || m < 1 || m > 12 {
			return nil, fmt.Errorf("invalid month %q in SOILMM_TREND_MONTHS", part)
		}
		months = append(months, time.Month(m))
	}
	return months, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
