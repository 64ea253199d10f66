package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Provider    ProviderConfig `toml:"provider"`
	Screen      ScreenConfig   `toml:"screen"`
	Schedule    ScheduleConfig `toml:"schedule"`
	Ingest      IngestConfig   `toml:"ingest"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Format     string   `toml:"format" validate:"oneof=text json"`
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// ProviderConfig contains market data provider configuration
type ProviderConfig struct {
	BaseURL        string        `toml:"base_url"`
	RateLimit      int           `toml:"rate_limit" validate:"gte=1"` // Requests per second; the inter-request courtesy delay
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// ScreenConfig contains candidate screening configuration
type ScreenConfig struct {
	Period         string            `toml:"period" validate:"oneof=1d 5d 1mo 3mo 6mo 1y 2y ytd"`
	MinMarketCap   float64           `toml:"min_market_cap" validate:"gte=0"`
	OptionableOnly bool              `toml:"optionable_only"`
	Limit          int               `toml:"limit" validate:"gte=0"`     // Max symbols per run, largest caps first
	MaxPrice       float64           `toml:"max_price" validate:"gte=0"` // Skip candidates above this close price; 0 disables
	SectorETFs     map[string]string `toml:"sector_etfs"`                // Overrides merged onto the default sector map
}

// ScheduleConfig contains the optional cron-driven screen run
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Spec    string `toml:"spec"` // Standard 5-field cron expression
}

// IngestConfig contains exchange listing file paths
type IngestConfig struct {
	NasdaqFile string `toml:"nasdaq_file"`
	OtherFile  string `toml:"other_file"`
}

// NewDefaultConfig creates a configuration with default values.
// Defaults follow the screening workflow this tool grew out of: top 200
// mega-caps with listed options, six-month lookback, $120 price cap.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Provider: ProviderConfig{
			BaseURL:        "https://query1.finance.yahoo.com",
			RateLimit:      1, // 1 request per second - courtesy throttle, keep fetches sequential
			RequestTimeout: 30 * time.Second,
		},
		Screen: ScreenConfig{
			Period:         "6mo",
			MinMarketCap:   100_000_000_000,
			OptionableOnly: true,
			Limit:          200,
			MaxPrice:       120,
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Spec:    "30 17 * * MON-FRI", // After US close, weekdays
		},
		Ingest: IngestConfig{
			NasdaqFile: "./data/nasdaqlisted.txt",
			OtherFile:  "./data/otherlisted.txt",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks field constraints and the cron expression.
func Validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if config.Schedule.Enabled {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(config.Schedule.Spec); err != nil {
			return fmt.Errorf("invalid schedule spec %q: %w", config.Schedule.Spec, err)
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SECTORSCAN_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if badgerPath := os.Getenv("SECTORSCAN_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("SECTORSCAN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SECTORSCAN_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Provider configuration
	if baseURL := os.Getenv("SECTORSCAN_PROVIDER_BASE_URL"); baseURL != "" {
		config.Provider.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("SECTORSCAN_PROVIDER_RATE_LIMIT"); rateLimit != "" {
		if r, err := strconv.Atoi(rateLimit); err == nil {
			config.Provider.RateLimit = r
		}
	}

	// Screen configuration
	if period := os.Getenv("SECTORSCAN_SCREEN_PERIOD"); period != "" {
		config.Screen.Period = period
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, period string, maxPrice float64) {
	if period != "" {
		config.Screen.Period = period
	}
	if maxPrice >= 0 {
		config.Screen.MaxPrice = maxPrice
	}
}
