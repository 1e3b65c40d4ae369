package charts

import (
	"errors"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/billleddy/finapp/internal/models"
)

var (
	_ chart.Series = (*candleSeries)(nil)
	_ chart.Series = (*barSeries)(nil)
)

// candleSeries draws OHLC candlesticks: a high-low wick and an open-close body.
type candleSeries struct {
	name string
	bars []models.PriceBar
	up   drawing.Color
	down drawing.Color
}

func (cs *candleSeries) GetName() string { return cs.name }

func (cs *candleSeries) GetStyle() chart.Style {
	return chart.Style{StrokeColor: cs.up, StrokeWidth: 1}
}

func (cs *candleSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }

func (cs *candleSeries) Validate() error {
	if len(cs.bars) == 0 {
		return errors.New("candle series has no bars")
	}
	return nil
}

func (cs *candleSeries) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	half := barHalfWidth(box, len(cs.bars))
	for _, b := range cs.bars {
		c := cs.down
		if b.Close >= b.Open {
			c = cs.up
		}
		x := box.Left + xrange.Translate(chart.TimeToFloat64(b.Date))
		yHigh := box.Bottom - yrange.Translate(b.High)
		yLow := box.Bottom - yrange.Translate(b.Low)
		yOpen := box.Bottom - yrange.Translate(b.Open)
		yClose := box.Bottom - yrange.Translate(b.Close)

		r.SetStrokeColor(c)
		r.SetStrokeWidth(1)
		r.MoveTo(x, yHigh)
		r.LineTo(x, yLow)
		r.Stroke()

		top, bottom := yOpen, yClose
		if top > bottom {
			top, bottom = bottom, top
		}
		if bottom == top {
			bottom = top + 1
		}
		r.SetFillColor(c)
		fillRect(r, x-half, top, x+half, bottom)
	}
}

// barSeries draws one vertical bar per dated value from a zero baseline.
// Undefined values are skipped. colors is either empty (use fill) or
// aligned with values.
type barSeries struct {
	name   string
	dates  []time.Time
	values []float64
	fill   drawing.Color
	colors []drawing.Color
}

func (bs *barSeries) GetName() string { return bs.name }

func (bs *barSeries) GetStyle() chart.Style {
	return chart.Style{StrokeColor: bs.fill, FillColor: bs.fill, StrokeWidth: 1}
}

func (bs *barSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }

func (bs *barSeries) Validate() error {
	if len(bs.dates) != len(bs.values) {
		return errors.New("bar series dates and values differ in length")
	}
	if len(bs.colors) > 0 && len(bs.colors) != len(bs.values) {
		return errors.New("bar series colours and values differ in length")
	}
	return nil
}

func (bs *barSeries) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	half := barHalfWidth(box, len(bs.values))
	base := box.Bottom - yrange.Translate(0)
	for i, v := range bs.values {
		if math.IsNaN(v) {
			continue
		}
		c := bs.fill
		if len(bs.colors) > 0 {
			c = bs.colors[i]
		}
		x := box.Left + xrange.Translate(chart.TimeToFloat64(bs.dates[i]))
		y := box.Bottom - yrange.Translate(v)
		top, bottom := y, base
		if top > bottom {
			top, bottom = bottom, top
		}
		if bottom == top {
			bottom = top + 1
		}
		r.SetFillColor(c)
		r.SetStrokeColor(c)
		r.SetStrokeWidth(1)
		fillRect(r, x-half, top, x+half, bottom)
	}
}

// barHalfWidth sizes bars to fill about 70% of their slot
func barHalfWidth(box chart.Box, count int) int {
	if count < 1 {
		return 1
	}
	half := int(float64(box.Width()) / float64(count+1) * 0.35)
	if half < 1 {
		return 1
	}
	return half
}

func fillRect(r chart.Renderer, left, top, right, bottom int) {
	r.MoveTo(left, top)
	r.LineTo(right, top)
	r.LineTo(right, bottom)
	r.LineTo(left, bottom)
	r.Close()
	r.FillStroke()
}

// definedPoints returns the dates and values of d where it is defined
func definedPoints(d models.DerivedSeries) ([]time.Time, []float64) {
	var xs []time.Time
	var ys []float64
	for i := range d.Values {
		if v, ok := d.Value(i); ok {
			xs = append(xs, d.Dates[i])
			ys = append(ys, v)
		}
	}
	return xs, ys
}

// timeRange spans dates with half a bar slot of padding on each side so
// edge bars are drawn whole.
func timeRange(dates []time.Time) *chart.ContinuousRange {
	if len(dates) == 0 {
		now := chart.TimeToFloat64(time.Unix(0, 0))
		return &chart.ContinuousRange{Min: now - 1, Max: now + 1}
	}
	first := chart.TimeToFloat64(dates[0])
	last := chart.TimeToFloat64(dates[len(dates)-1])
	pad := float64(12 * time.Hour)
	if len(dates) > 1 {
		pad = (last - first) / float64(len(dates)-1) / 2
	}
	return &chart.ContinuousRange{Min: first - pad, Max: last + pad}
}

// valueBounds tracks the min and max of defined values
type valueBounds struct {
	min, max float64
	seen     bool
}

func (vb *valueBounds) add(values ...float64) {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !vb.seen {
			vb.min, vb.max, vb.seen = v, v, true
			continue
		}
		vb.min = math.Min(vb.min, v)
		vb.max = math.Max(vb.max, v)
	}
}

// rangeWithPadding returns a y range 5% wider than the bounds. Flat or
// empty bounds are widened so the range never has zero delta.
func (vb *valueBounds) rangeWithPadding() *chart.ContinuousRange {
	if !vb.seen {
		return &chart.ContinuousRange{Min: -1, Max: 1}
	}
	delta := vb.max - vb.min
	if delta == 0 {
		pad := math.Abs(vb.max) * 0.05
		if pad == 0 {
			pad = 1
		}
		return &chart.ContinuousRange{Min: vb.min - pad, Max: vb.max + pad}
	}
	return &chart.ContinuousRange{Min: vb.min - delta*0.05, Max: vb.max + delta*0.05}
}
