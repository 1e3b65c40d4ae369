package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/billleddy/finapp/internal/charts"
	"github.com/billleddy/finapp/internal/clients/eodhd"
	"github.com/billleddy/finapp/internal/common"
	"github.com/billleddy/finapp/internal/interfaces"
	"github.com/billleddy/finapp/internal/metrics"
	"github.com/billleddy/finapp/internal/services/deck"
	"github.com/billleddy/finapp/internal/storage/artifacts"
	"github.com/billleddy/finapp/internal/storage/feedfs"
)

// App holds the initialized data source, renderer, store and deck service.
// It is the shared core behind every cmd/finapp command.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Source      interfaces.MarketDataSource
	Renderer    *charts.Renderer
	Store       *artifacts.Store
	Metrics     *metrics.Metrics
	Deck        *deck.Service
	StartupTime time.Time

	scheduler *Scheduler
	now       func() time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, FINAPP_CONFIG,
// finapp.toml beside the binary, then config/finapp.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("FINAPP_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "finapp.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/finapp.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and initializes every component.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewAppFromConfig(config, logger)
}

// NewAppFromConfig initializes components from an already loaded config
func NewAppFromConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	source, err := newSource(config, logger)
	if err != nil {
		return nil, err
	}

	theme, err := charts.ThemeByName(config.Output.Theme)
	if err != nil {
		return nil, err
	}
	renderer := charts.NewRenderer(theme, config.Output.Width, config.Output.Height)

	store, err := artifacts.NewStore(logger, config.Output.Dir, config.Output.Layout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	kinds, err := config.ChartKinds()
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics()
	deckService := deck.NewService(source, source, renderer, store, logger,
		deck.WithTheme(theme),
		deck.WithPlan(deck.FilterPlan(deck.DefaultPlan(), kinds)),
		deck.WithWorkers(config.Pipeline.Workers),
		deck.WithMaxHeadlines(config.Pipeline.Headlines),
		deck.WithMetrics(m),
	)

	a := &App{
		Config:      config,
		Logger:      logger,
		Source:      source,
		Renderer:    renderer,
		Store:       store,
		Metrics:     m,
		Deck:        deckService,
		StartupTime: startupStart,
		now:         time.Now,
	}

	logger.Info().
		Str("source", config.Data.Source).
		Str("output", config.Output.Dir).
		Str("theme", config.Output.Theme).
		Int("charts", len(deckService.Plan())).
		Str("startup", time.Since(startupStart).Round(time.Millisecond).String()).
		Msg("App initialized")

	return a, nil
}

func newSource(config *common.Config, logger *common.Logger) (interfaces.MarketDataSource, error) {
	switch config.Data.Source {
	case "file":
		return feedfs.NewSource(logger, config.Data.FeedDir), nil
	case "eodhd":
		key := common.ResolveAPIKey("eodhd_api_key", config.Clients.EODHD.APIKey)
		if key == "" {
			return nil, fmt.Errorf("EODHD API key not configured: set EODHD_API_KEY or use data.source = \"file\"")
		}
		return eodhd.NewClient(key,
			eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
			eodhd.WithExchange(config.Clients.EODHD.Exchange),
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
			eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
		), nil
	}
	return nil, fmt.Errorf("unknown data source %q", config.Data.Source)
}

// GenerateOptions narrows a single run
type GenerateOptions struct {
	Company string
	From    time.Time
	To      time.Time
}

// Generate runs the deck pipeline for one ticker. Empty options fall back
// to the configured company name and a history_years range ending today.
// The metrics textfile, when configured, is rewritten after the run.
func (a *App) Generate(ctx context.Context, ticker string, opts GenerateOptions) (*deck.Report, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	req := deck.Request{
		Ticker:  ticker,
		Company: opts.Company,
		From:    opts.From,
		To:      opts.To,
	}
	if req.Company == "" {
		req.Company = a.Config.CompanyName(ticker)
	}
	if req.To.IsZero() {
		req.To = a.now().UTC().Truncate(24 * time.Hour)
	}
	if req.From.IsZero() {
		req.From = req.To.AddDate(-a.Config.Pipeline.HistoryYears, 0, 0)
	}

	report, err := a.Deck.Generate(ctx, req)
	if werr := a.Metrics.WriteTextfile(a.Config.Metrics.Textfile); werr != nil {
		a.Logger.Warn().Err(werr).Str("path", a.Config.Metrics.Textfile).Msg("Failed to export metrics")
	}
	return report, err
}

// Close stops the scheduler if it is running.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
}
