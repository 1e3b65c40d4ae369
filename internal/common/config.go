package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/billleddy/finapp/internal/models"
)

// Config holds all configuration for finapp
type Config struct {
	Environment string          `toml:"environment"`
	Output      OutputConfig    `toml:"output"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Data        DataConfig      `toml:"data"`
	Clients     ClientsConfig   `toml:"clients"`
	Logging     LoggingConfig   `toml:"logging"`
	Metrics     MetricsConfig   `toml:"metrics"`
	Schedule    ScheduleConfig  `toml:"schedule"`
	Companies   []CompanyConfig `toml:"companies"`
}

// OutputConfig controls where and how chart images are written
type OutputConfig struct {
	Dir    string `toml:"dir"`
	Layout string `toml:"layout"` // "nested" (<ticker>/<name>.png) or "flat" (<ticker>_<name>.png)
	Theme  string `toml:"theme"`  // "dark" or "light"
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// PipelineConfig controls a deck run
type PipelineConfig struct {
	Workers      int      `toml:"workers"`       // concurrent chart renders
	HistoryYears int      `toml:"history_years"` // fetch range ending today
	Headlines    int      `toml:"headlines"`     // narrated headline cap
	Kinds        []string `toml:"kinds"`         // chart kinds to render, empty for all
}

// DataConfig selects the market data source
type DataConfig struct {
	Source  string `toml:"source"`   // "eodhd" or "file"
	FeedDir string `toml:"feed_dir"` // <ticker>.csv and <ticker>.json for the file source
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Exchange  string `toml:"exchange"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// MetricsConfig holds metrics export configuration
type MetricsConfig struct {
	Textfile string `toml:"textfile"` // Prometheus textfile written after each run, empty to disable
}

// ScheduleConfig holds the regeneration schedule
type ScheduleConfig struct {
	Cron    string   `toml:"cron"` // six-field cron expression, seconds first
	Tickers []string `toml:"tickers"`
}

// CompanyConfig names the company behind a ticker for narration
type CompanyConfig struct {
	Ticker string `toml:"ticker"`
	Name   string `toml:"name"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Output: OutputConfig{
			Dir:    "decks",
			Layout: "nested",
			Theme:  "dark",
			Width:  700,
			Height: 500,
		},
		Pipeline: PipelineConfig{
			Workers:      4,
			HistoryYears: 5,
			Headlines:    8,
		},
		Data: DataConfig{
			Source:  "eodhd",
			FeedDir: "data",
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				Exchange:  "US",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Outputs:  []string{"console"},
			FilePath: "./logs/finapp.log",
		},
		Schedule: ScheduleConfig{
			Cron: "0 30 22 * * 1-5",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINAPP_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("FINAPP_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if dir := os.Getenv("FINAPP_OUTPUT_DIR"); dir != "" {
		config.Output.Dir = dir
	}

	if theme := os.Getenv("FINAPP_THEME"); theme != "" {
		config.Output.Theme = theme
	}

	if source := os.Getenv("FINAPP_DATA_SOURCE"); source != "" {
		config.Data.Source = source
	}

	if dir := os.Getenv("FINAPP_FEED_DIR"); dir != "" {
		config.Data.FeedDir = dir
	}

	if workers := os.Getenv("FINAPP_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Pipeline.Workers = w
		}
	}

	if path := os.Getenv("FINAPP_METRICS_TEXTFILE"); path != "" {
		config.Metrics.Textfile = path
	}

	if tickers := os.Getenv("FINAPP_TICKERS"); tickers != "" {
		config.Schedule.Tickers = splitList(tickers)
	}

	if key := ResolveAPIKey("eodhd_api_key", ""); key != "" {
		config.Clients.EODHD.APIKey = key
	}
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Output.Layout {
	case "nested", "flat":
	default:
		return fmt.Errorf("invalid output layout %q: want nested or flat", c.Output.Layout)
	}
	switch strings.ToLower(c.Output.Theme) {
	case "dark", "light":
	default:
		return fmt.Errorf("invalid theme %q: want dark or light", c.Output.Theme)
	}
	switch c.Data.Source {
	case "eodhd", "file":
	default:
		return fmt.Errorf("invalid data source %q: want eodhd or file", c.Data.Source)
	}
	if c.Pipeline.HistoryYears < 1 {
		return fmt.Errorf("invalid history_years %d", c.Pipeline.HistoryYears)
	}
	if _, err := c.ChartKinds(); err != nil {
		return err
	}
	return nil
}

// ChartKinds returns the configured chart kinds, or every kind when none are set
func (c *Config) ChartKinds() ([]models.ChartKind, error) {
	if len(c.Pipeline.Kinds) == 0 {
		return models.AllChartKinds, nil
	}
	kinds := make([]models.ChartKind, 0, len(c.Pipeline.Kinds))
	for _, name := range c.Pipeline.Kinds {
		k, err := models.ParseChartKind(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// CompanyName returns the configured company name for ticker, or the ticker itself
func (c *Config) CompanyName(ticker string) string {
	for _, co := range c.Companies {
		if strings.EqualFold(co.Ticker, ticker) && co.Name != "" {
			return co.Name
		}
	}
	return ticker
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from the environment, falling back to fallback
func ResolveAPIKey(name string, fallback string) string {
	keyToEnvMapping := map[string][]string{
		"eodhd_api_key": {"EODHD_API_KEY", "FINAPP_EODHD_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue
			}
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
