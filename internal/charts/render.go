package charts

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/billleddy/finapp/internal/models"
)

const (
	DefaultWidth  = 700
	DefaultHeight = 500
)

// Renderer draws chart specs with one theme at a fixed image size.
// It holds no mutable state and is safe for concurrent use.
type Renderer struct {
	theme  Theme
	width  int
	height int
}

// NewRenderer creates a renderer. Non-positive sizes fall back to 700x500.
func NewRenderer(theme Theme, width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{theme: theme, width: width, height: height}
}

// Theme returns the renderer's palette
func (r *Renderer) Theme() Theme {
	return r.theme
}

// Render draws spec and returns PNG bytes. The same spec always produces
// the same bytes. Failures are returned as *models.RenderError.
func (r *Renderer) Render(spec models.ChartSpec) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch spec.Layout {
	case models.LayoutPriceVolume:
		out, err = r.renderPriceVolume(spec)
	case models.LayoutOverlay, models.LayoutOscillator:
		out, err = r.renderLines(spec)
	case models.LayoutBars:
		out, err = r.renderBars(spec)
	case models.LayoutTable:
		out, err = r.renderTable(spec)
	default:
		err = fmt.Errorf("unsupported layout %d", spec.Layout)
	}
	if err != nil {
		return nil, &models.RenderError{Kind: spec.Kind, Name: spec.ArtifactName(), Err: err}
	}
	return out, nil
}

// baseChart returns a themed chart with a date x-axis
func (r *Renderer) baseChart(title string, width, height int, dates []time.Time) chart.Chart {
	t := r.theme
	axisStyle := chart.Style{
		StrokeColor: color(t.Axis),
		FontColor:   color(t.Text),
		FontSize:    9,
	}
	gridStyle := chart.Style{StrokeColor: color(t.Grid), StrokeWidth: 1}

	top := 20
	if title != "" {
		top = 50
	}

	return chart.Chart{
		Title: title,
		TitleStyle: chart.Style{
			FontColor: color(t.Text),
			FontSize:  13,
		},
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: color(t.Background),
			Padding:   chart.Box{Top: top, Left: 20, Right: 20, Bottom: 10},
		},
		Canvas: chart.Style{
			FillColor: color(t.Background),
		},
		XAxis: chart.XAxis{
			Style:          axisStyle,
			GridMajorStyle: gridStyle,
			Range:          timeRange(dates),
			ValueFormatter: dateFormatter(dates),
		},
		YAxis: chart.YAxis{
			Style:          axisStyle,
			NameStyle:      chart.Style{FontColor: color(t.Text), FontSize: 10},
			GridMajorStyle: gridStyle,
		},
	}
}

// legend returns a themed legend element for graph
func (r *Renderer) legend(graph *chart.Chart) chart.Renderable {
	return chart.Legend(graph, chart.Style{
		FillColor:   color(r.theme.Background),
		FontColor:   color(r.theme.Text),
		StrokeColor: color(r.theme.Axis),
	})
}

func encode(graph chart.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// dateFormatter picks a tick label layout for the span of dates
func dateFormatter(dates []time.Time) chart.ValueFormatter {
	layout := "Jan 02"
	if len(dates) > 1 {
		span := dates[len(dates)-1].Sub(dates[0])
		switch {
		case span > 2*365*24*time.Hour:
			layout = "Jan 2006"
		case span > 200*24*time.Hour:
			layout = "Jan 06"
		}
	}
	return func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return chart.TimeFromFloat64(f).UTC().Format(layout)
		}
		return ""
	}
}

func priceFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return ""
}

func plainFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return ""
}

// siFormatter labels large counts compactly, e.g. 1.5M
func siFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strings.ReplaceAll(humanize.SIWithDigits(f, 1, ""), " ", "")
	}
	return ""
}
