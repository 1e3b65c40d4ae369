package charts

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/billleddy/finapp/internal/models"
	"github.com/billleddy/finapp/internal/signals"
)

// Panel proportions for stacked price/volume charts: rows of 0.7 and 0.2
// with 0.03 of the height between them.
const (
	priceRowWeight  = 0.7
	volumeRowWeight = 0.2
	panelSpacing    = 0.03
)

// panelHeights splits height into price and volume panels and the gap between
func panelHeights(height int) (price, volume, gap int) {
	gap = int(float64(height) * panelSpacing)
	usable := height - gap
	price = int(float64(usable) * priceRowWeight / (priceRowWeight + volumeRowWeight))
	volume = usable - price
	return price, volume, gap
}

// renderPriceVolume stacks candlesticks with overlays above direction
// coloured volume bars. Both panels share one x range.
func (r *Renderer) renderPriceVolume(spec models.ChartSpec) ([]byte, error) {
	if spec.Bars == nil || spec.Bars.Len() == 0 {
		return nil, fmt.Errorf("%w: price chart without bars", models.ErrMalformedInput)
	}
	priceH, volumeH, gap := panelHeights(r.height)

	top, err := encode(r.pricePanel(spec, priceH))
	if err != nil {
		return nil, fmt.Errorf("price panel: %w", err)
	}
	bottom, err := encode(r.volumePanel(spec, volumeH))
	if err != nil {
		return nil, fmt.Errorf("volume panel: %w", err)
	}
	return stackPanels(r.width, r.height, color(r.theme.Background), gap, top, bottom)
}

func (r *Renderer) pricePanel(spec models.ChartSpec, height int) chart.Chart {
	dates := spec.Bars.Dates()
	graph := r.baseChart(spec.Title, r.width, height, dates)
	graph.YAxis.ValueFormatter = priceFormatter
	graph.YAxis.Name = spec.YAxisTitle

	var bounds valueBounds
	bounds.add(spec.Bars.Highs()...)
	bounds.add(spec.Bars.Lows()...)

	series := []chart.Series{&candleSeries{
		name: spec.Ticker,
		bars: spec.Bars.Bars(),
		up:   color(r.theme.Increasing),
		down: color(r.theme.Decreasing),
	}}
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
	graph.YAxis.Range = bounds.rangeWithPadding()
	graph.Series = series
	return graph
}

// volumePanel plots rows 1..n-1 of the window; row 0 has no prior close to
// compare against and is left out.
func (r *Renderer) volumePanel(spec models.ChartSpec, height int) chart.Chart {
	dates := spec.Bars.Dates()
	graph := r.baseChart("", r.width, height, dates)
	graph.YAxis.Name = "Volume"
	graph.YAxis.ValueFormatter = siFormatter

	dirs := signals.Directions(spec.Bars)
	volumes := spec.Bars.Volumes()
	up, down := color(r.theme.Increasing), color(r.theme.Decreasing)

	bars := &barSeries{
		name:   "Volume",
		dates:  dates[1:],
		values: volumes[1:],
		fill:   up,
		colors: make([]drawing.Color, len(dirs)),
	}
	for i, d := range dirs {
		if d == signals.Up {
			bars.colors[i] = up
		} else {
			bars.colors[i] = down
		}
	}

	var bounds valueBounds
	bounds.add(0)
	bounds.add(bars.values...)
	yr := bounds.rangeWithPadding()
	yr.Min = 0
	graph.YAxis.Range = yr
	graph.Series = []chart.Series{bars}
	return graph
}

// stackPanels composes PNG panels vertically onto one background
func stackPanels(width, height int, bg drawing.Color, gap int, panels ...[]byte) ([]byte, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	y := 0
	for i, p := range panels {
		img, err := png.Decode(bytes.NewReader(p))
		if err != nil {
			return nil, fmt.Errorf("decode panel %d: %w", i, err)
		}
		b := img.Bounds()
		draw.Draw(canvas, image.Rect(0, y, b.Dx(), y+b.Dy()), img, b.Min, draw.Over)
		y += b.Dy() + gap
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode stacked chart: %w", err)
	}
	return buf.Bytes(), nil
}
