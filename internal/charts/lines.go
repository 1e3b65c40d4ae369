package charts

import (
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/billleddy/finapp/internal/models"
)

// renderLines draws overlay and oscillator charts: lines over the window's
// dates, optional horizontal reference lines and an optional histogram.
func (r *Renderer) renderLines(spec models.ChartSpec) ([]byte, error) {
	if spec.Bars == nil || spec.Bars.Len() == 0 {
		return nil, fmt.Errorf("%w: line chart without a date domain", models.ErrMalformedInput)
	}
	dates := spec.Bars.Dates()
	graph := r.baseChart(spec.Title, r.width, r.height, dates)
	graph.YAxis.Name = spec.YAxisTitle
	graph.YAxis.ValueFormatter = priceFormatter

	var (
		bounds valueBounds
		series []chart.Series
	)

	if spec.Histogram != nil {
		xs, ys := definedPoints(spec.Histogram.Series)
		bounds.add(ys...)
		if len(xs) > 0 {
			bounds.add(0)
		}
		// always present so the chart has a series even when nothing is defined
		series = append(series, &barSeries{
			name:   spec.Histogram.Name,
			dates:  xs,
			values: ys,
			fill:   color(spec.Histogram.Color),
		})
	}

	for _, o := range spec.Overlays {
		xs, ys := definedPoints(o.Series)
		if len(xs) == 0 {
			continue
		}
		bounds.add(ys...)
		series = append(series, chart.TimeSeries{
			Name:    o.Name,
			Style:   chart.Style{StrokeColor: color(o.Color), StrokeWidth: 1.5},
			XValues: xs,
			YValues: ys,
		})
	}

	for _, line := range spec.ReferenceLines {
		bounds.add(line.Value)
		series = append(series, referenceSeries(line, dates))
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no series to draw", models.ErrInsufficientHistory)
	}

	if spec.YRange != nil {
		graph.YAxis.Range = &chart.ContinuousRange{Min: spec.YRange[0], Max: spec.YRange[1]}
		graph.YAxis.ValueFormatter = plainFormatter
	} else {
		graph.YAxis.Range = bounds.rangeWithPadding()
	}
	graph.Series = series
	if spec.Legend {
		graph.Elements = []chart.Renderable{r.legend(&graph)}
	}
	return encode(graph)
}

// referenceSeries spans a horizontal line across the date domain
func referenceSeries(line models.ReferenceLine, dates []time.Time) chart.TimeSeries {
	return chart.TimeSeries{
		Name: line.Name,
		Style: chart.Style{
			StrokeColor:     color(line.Color),
			StrokeWidth:     1,
			StrokeDashArray: []float64{4, 3},
		},
		XValues: []time.Time{dates[0], dates[len(dates)-1]},
		YValues: []float64{line.Value, line.Value},
	}
}

// renderBars draws one bar per dated value
func (r *Renderer) renderBars(spec models.ChartSpec) ([]byte, error) {
	if len(spec.BarPoints) == 0 {
		return nil, fmt.Errorf("%w: no bars to draw", models.ErrMissingFundamentals)
	}
	dates := make([]time.Time, len(spec.BarPoints))
	values := make([]float64, len(spec.BarPoints))
	var bounds valueBounds
	bounds.add(0)
	for i, p := range spec.BarPoints {
		dates[i] = p.Date
		values[i] = p.Value
		bounds.add(p.Value)
	}

	graph := r.baseChart(spec.Title, r.width, r.height, dates)
	graph.YAxis.Name = spec.YAxisTitle
	graph.YAxis.ValueFormatter = plainFormatter
	graph.YAxis.Range = bounds.rangeWithPadding()
	graph.Series = []chart.Series{&barSeries{
		name:   spec.Title,
		dates:  dates,
		values: values,
		fill:   color(spec.BarColor),
	}}
	return encode(graph)
}
