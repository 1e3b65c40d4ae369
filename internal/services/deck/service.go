// Package deck generates the chart images and narration for one company.
package deck

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/billleddy/finapp/internal/charts"
	"github.com/billleddy/finapp/internal/common"
	"github.com/billleddy/finapp/internal/interfaces"
	"github.com/billleddy/finapp/internal/models"
	"github.com/billleddy/finapp/internal/narration"
	"github.com/billleddy/finapp/internal/signals"
)

// DefaultWorkers bounds concurrent renders when no option is given
const DefaultWorkers = 4

// Run statuses
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Request identifies the company and date range to chart. A zero From or
// To leaves that side to the price source.
type Request struct {
	Ticker  string
	Company string
	From    time.Time
	To      time.Time
}

// Failure is a chart that could not be produced
type Failure struct {
	Kind    models.ChartKind `json:"kind"`
	Name    string           `json:"name"`
	Message string           `json:"error"`
	Err     error            `json:"-"`
}

// Report is the outcome of one run
type Report struct {
	RunID         string            `json:"run_id"`
	Ticker        string            `json:"ticker"`
	Artifacts     []models.Artifact `json:"artifacts"`
	Failures      []Failure         `json:"failures,omitempty"`
	Narration     models.Narration  `json:"narration"`
	NarrationPath string            `json:"narration_path,omitempty"`
	IndexPath     string            `json:"index_path,omitempty"`
	Snapshot      *Snapshot         `json:"-"`
}

// Status summarises the report as ok, partial or failed
func (r *Report) Status() string {
	switch {
	case len(r.Failures) == 0:
		return StatusOK
	case len(r.Artifacts) == 0:
		return StatusFailed
	}
	return StatusPartial
}

// Service runs the deck pipeline
type Service struct {
	prices       interfaces.PriceSource
	fundamentals interfaces.FundamentalsSource
	renderer     interfaces.ChartRenderer
	store        interfaces.ArtifactStore
	logger       *common.Logger

	builder  *charts.Builder
	computer *signals.Computer
	mapper   *narration.Mapper
	metrics  interfaces.MetricsRecorder
	plan     []PlanItem
	workers  int
	now      func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithTheme sets the colours used when building chart specs
func WithTheme(theme charts.Theme) Option {
	return func(s *Service) {
		s.builder = charts.NewBuilder(theme)
	}
}

// WithPlan replaces the default chart plan
func WithPlan(plan []PlanItem) Option {
	return func(s *Service) {
		s.plan = plan
	}
}

// WithWorkers bounds concurrent renders
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithIndicatorParams overrides indicator windows
func WithIndicatorParams(p signals.IndicatorParams) Option {
	return func(s *Service) {
		s.computer = signals.NewComputer(p)
	}
}

// WithMaxHeadlines bounds headline narration keys
func WithMaxHeadlines(n int) Option {
	return func(s *Service) {
		s.mapper = narration.NewMapper(n, s.logger)
	}
}

// WithMetrics records render outcomes
func WithMetrics(m interfaces.MetricsRecorder) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock sets the time source used for upcoming-earnings narration
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a deck service. fundamentals may be nil, in which case
// fundamentals charts fail and their narration keys are skipped.
func NewService(prices interfaces.PriceSource, fundamentals interfaces.FundamentalsSource,
	renderer interfaces.ChartRenderer, store interfaces.ArtifactStore, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		prices:       prices,
		fundamentals: fundamentals,
		renderer:     renderer,
		store:        store,
		logger:       logger,
		builder:      charts.NewBuilder(charts.DarkTheme()),
		computer:     signals.NewComputer(signals.DefaultIndicatorParams()),
		mapper:       narration.NewMapper(narration.DefaultMaxHeadlines, logger),
		plan:         DefaultPlan(),
		workers:      DefaultWorkers,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan returns the charts the service will attempt
func (s *Service) Plan() []PlanItem {
	return s.plan
}

// Generate fetches data for the request, renders every planned chart and
// builds the narration. A price fetch failure fails the run; each chart
// failure is recorded in the report while the remaining charts continue.
func (s *Service) Generate(ctx context.Context, req Request) (*Report, error) {
	if req.Ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", models.ErrMalformedInput)
	}
	report := &Report{RunID: uuid.New().String(), Ticker: req.Ticker}
	start := time.Now()

	s.logger.Info().
		Str("run_id", report.RunID).
		Str("ticker", req.Ticker).
		Int("charts", len(s.plan)).
		Msg("Deck generation started")

	series, err := s.prices.GetSeries(ctx, req.Ticker, req.From, req.To)
	if err != nil {
		s.recordRun(StatusFailed)
		return nil, fmt.Errorf("price history for %s: %w", req.Ticker, err)
	}

	ind, err := s.computer.Compute(series)
	if err != nil {
		s.recordRun(StatusFailed)
		return nil, fmt.Errorf("indicators for %s: %w", req.Ticker, err)
	}
	for _, name := range s.computer.HistoryShortfall(series) {
		s.logger.Warn().
			Str("run_id", report.RunID).
			Str("ticker", req.Ticker).
			Str("indicator", name).
			Int("bars", series.Len()).
			Err(models.ErrInsufficientHistory).
			Msg("Indicator partially undefined")
	}

	report.Snapshot = newSnapshot(series, ind)

	fundamentals := s.loadFundamentals(ctx, report.RunID, req.Ticker)
	now := s.now()

	specs := make([]*models.ChartSpec, len(s.plan))
	for i, item := range s.plan {
		spec, err := s.buildSpec(item, series, ind, fundamentals, now)
		if err != nil {
			report.Failures = append(report.Failures, s.failure(report.RunID, req.Ticker, item.Kind, item.Name(), err))
			continue
		}
		specs[i] = &spec
	}

	artifacts, failures, err := s.renderAll(ctx, report.RunID, specs)
	if err != nil {
		s.recordRun(StatusFailed)
		return nil, err
	}
	report.Artifacts = artifacts
	report.Failures = append(report.Failures, failures...)

	fundamentals.Ticker = req.Ticker
	report.Narration = s.mapper.Build(req.Company, fundamentals, now)
	if path, err := s.store.WriteNarration(ctx, req.Ticker, report.Narration); err != nil {
		s.logger.Warn().Str("run_id", report.RunID).Str("ticker", req.Ticker).Err(err).Msg("Failed to write narration")
	} else {
		report.NarrationPath = path
	}
	if s.metrics != nil {
		s.metrics.NarrationKeys(req.Ticker, len(report.Narration))
	}

	if path, err := s.store.WriteFile(ctx, req.Ticker, IndexFile, []byte(FormatMarkdown(report))); err != nil {
		s.logger.Warn().Str("run_id", report.RunID).Str("ticker", req.Ticker).Err(err).Msg("Failed to write deck index")
	} else {
		report.IndexPath = path
	}

	status := report.Status()
	s.recordRun(status)
	s.logger.Info().
		Str("run_id", report.RunID).
		Str("ticker", req.Ticker).
		Str("status", status).
		Int("artifacts", len(report.Artifacts)).
		Int("failures", len(report.Failures)).
		Int("narration_keys", len(report.Narration)).
		Str("elapsed", time.Since(start).Round(time.Millisecond).String()).
		Msg("Deck generation complete")

	return report, nil
}

func (s *Service) loadFundamentals(ctx context.Context, runID, ticker string) *models.Fundamentals {
	if s.fundamentals == nil {
		return &models.Fundamentals{Ticker: ticker}
	}
	f, err := s.fundamentals.GetFundamentals(ctx, ticker)
	if err != nil || f == nil {
		s.logger.Warn().Str("run_id", runID).Str("ticker", ticker).Err(err).Msg("Fundamentals unavailable, continuing with price charts")
		return &models.Fundamentals{Ticker: ticker}
	}
	return f
}

func (s *Service) buildSpec(item PlanItem, series *models.Series, ind *models.Indicators,
	f *models.Fundamentals, now time.Time) (models.ChartSpec, error) {
	ticker := series.Ticker()
	switch item.Kind {
	case models.ChartCandle:
		return s.builder.Candle(series, item.Period)
	case models.ChartMovingAverage:
		return s.builder.MovingAverages(series, ind.MA50, ind.MA200, item.Period)
	case models.ChartRSI:
		return s.builder.RSI(series, ind.RSI, item.Period)
	case models.ChartMACD:
		return s.builder.MACD(series, ind.MACD, item.Period)
	case models.ChartBollinger:
		return s.builder.Bollinger(series, ind.Bollinger, item.Period)
	case models.ChartEarnings:
		return s.builder.Earnings(ticker, f.Earnings)
	case models.ChartRecommendations:
		return s.builder.Recommendations(ticker, f.Recommendations, now)
	case models.ChartGradeChanges:
		return s.builder.GradeChanges(ticker, f.GradeChanges)
	case models.ChartInsider:
		return s.builder.Insider(ticker, f.Insider)
	}
	return models.ChartSpec{}, fmt.Errorf("%w: unsupported chart kind %q", models.ErrMalformedInput, item.Kind)
}

// renderAll renders and stores specs concurrently. Nil entries were
// already recorded as failures. Results keep plan order.
func (s *Service) renderAll(ctx context.Context, runID string, specs []*models.ChartSpec) ([]models.Artifact, []Failure, error) {
	results := make([]*models.Artifact, len(specs))
	var (
		mu       sync.Mutex
		failures []Failure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, spec := range specs {
		if spec == nil {
			continue
		}
		g.Go(func() error {
			artifact, err := s.renderOne(gctx, spec)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				f := s.failure(runID, spec.Ticker, spec.Kind, spec.ArtifactName(), err)
				mu.Lock()
				failures = append(failures, f)
				mu.Unlock()
				return nil
			}
			results[i] = artifact
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("deck generation cancelled: %w", err)
	}

	artifacts := make([]models.Artifact, 0, len(results))
	for _, a := range results {
		if a != nil {
			artifacts = append(artifacts, *a)
		}
	}
	return artifacts, failures, nil
}

func (s *Service) renderOne(ctx context.Context, spec *models.ChartSpec) (*models.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := s.renderer.Render(*spec)
	if err != nil {
		var renderErr *models.RenderError
		if !errors.As(err, &renderErr) {
			err = &models.RenderError{Kind: spec.Kind, Name: spec.ArtifactName(), Err: err}
		}
		return nil, err
	}
	elapsed := time.Since(start).Seconds()

	artifact := &models.Artifact{
		Ticker: spec.Ticker,
		Name:   spec.ArtifactName(),
		Kind:   spec.Kind,
		Bytes:  data,
	}
	if _, err := s.store.WriteArtifact(ctx, artifact); err != nil {
		return nil, fmt.Errorf("write %s: %w", artifact.Name, err)
	}
	if s.metrics != nil {
		s.metrics.ChartRendered(spec.Kind, elapsed)
	}
	s.logger.Debug().
		Str("ticker", spec.Ticker).
		Str("chart", artifact.Name).
		Str("path", artifact.Path).
		Int("bytes", len(data)).
		Msg("Chart written")
	return artifact, nil
}

func (s *Service) failure(runID, ticker string, kind models.ChartKind, name string, err error) Failure {
	event := s.logger.Warn()
	if !errors.Is(err, models.ErrMissingFundamentals) {
		event = s.logger.Error()
	}
	event.Str("run_id", runID).Str("ticker", ticker).Str("chart", name).Err(err).Msg("Chart skipped")
	if s.metrics != nil {
		s.metrics.ChartFailed(kind)
	}
	return Failure{Kind: kind, Name: name, Message: err.Error(), Err: err}
}

func (s *Service) recordRun(status string) {
	if s.metrics != nil {
		s.metrics.DeckRun(status)
	}
}
