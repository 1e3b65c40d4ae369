// Package metrics records chart pipeline outcomes as Prometheus metrics.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/billleddy/finapp/internal/interfaces"
	"github.com/billleddy/finapp/internal/models"
)

var _ interfaces.MetricsRecorder = (*Metrics)(nil)

// Metrics holds the pipeline collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	ChartsRendered    *prometheus.CounterVec   // labels: kind
	ChartFailures     *prometheus.CounterVec   // labels: kind
	RenderDuration    *prometheus.HistogramVec // labels: kind
	NarrationKeyCount *prometheus.GaugeVec     // labels: ticker
	DeckRuns          *prometheus.CounterVec   // labels: status=ok|partial|failed
}

// NewMetrics creates the collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ChartsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finapp_charts_rendered_total",
			Help: "Charts rendered and written (by kind)",
		}, []string{"kind"}),
		ChartFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finapp_chart_failures_total",
			Help: "Charts that failed to render or write (by kind)",
		}, []string{"kind"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finapp_chart_render_seconds",
			Help:    "Chart render latency (by kind)",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"kind"}),
		NarrationKeyCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "finapp_narration_keys",
			Help: "Narration keys produced in the latest run (by ticker)",
		}, []string{"ticker"}),
		DeckRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finapp_deck_runs_total",
			Help: "Deck generation runs (by status)",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		m.ChartsRendered,
		m.ChartFailures,
		m.RenderDuration,
		m.NarrationKeyCount,
		m.DeckRuns,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ChartRendered records a successful chart and its render time
func (m *Metrics) ChartRendered(kind models.ChartKind, seconds float64) {
	m.ChartsRendered.WithLabelValues(string(kind)).Inc()
	m.RenderDuration.WithLabelValues(string(kind)).Observe(seconds)
}

// ChartFailed records a failed chart
func (m *Metrics) ChartFailed(kind models.ChartKind) {
	m.ChartFailures.WithLabelValues(string(kind)).Inc()
}

// NarrationKeys records how many narration keys a ticker produced
func (m *Metrics) NarrationKeys(ticker string, n int) {
	m.NarrationKeyCount.WithLabelValues(ticker).Set(float64(n))
}

// DeckRun records the outcome of a run
func (m *Metrics) DeckRun(status string) {
	m.DeckRuns.WithLabelValues(status).Inc()
}

// WriteTextfile writes the registry in text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
