package models

import (
	"fmt"
	"time"
)

// ChartKind identifies a chart in a deck
type ChartKind string

const (
	ChartCandle          ChartKind = "candle"
	ChartBollinger       ChartKind = "bollinger"
	ChartMovingAverage   ChartKind = "ma"
	ChartRSI             ChartKind = "rsi"
	ChartMACD            ChartKind = "macd"
	ChartInsider         ChartKind = "insider"
	ChartGradeChanges    ChartKind = "up_down"
	ChartRecommendations ChartKind = "recommendations"
	ChartEarnings        ChartKind = "earnings"
)

// AllChartKinds lists every kind in deck order
var AllChartKinds = []ChartKind{
	ChartCandle, ChartMovingAverage, ChartRSI, ChartMACD, ChartBollinger,
	ChartEarnings, ChartRecommendations, ChartGradeChanges, ChartInsider,
}

// ParseChartKind resolves a kind name
func ParseChartKind(name string) (ChartKind, error) {
	for _, k := range AllChartKinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart kind %q", name)
}

// IsPriceKind reports whether the kind is drawn from the price series and
// takes a display window
func (k ChartKind) IsPriceKind() bool {
	switch k {
	case ChartCandle, ChartBollinger, ChartMovingAverage, ChartRSI, ChartMACD:
		return true
	}
	return false
}

// ChartLayout selects how a spec is drawn
type ChartLayout int

const (
	// LayoutPriceVolume stacks a candlestick panel over a volume panel
	LayoutPriceVolume ChartLayout = iota
	// LayoutOverlay draws lines over a shared date axis
	LayoutOverlay
	// LayoutOscillator draws an indicator with reference lines or a histogram
	LayoutOscillator
	// LayoutBars draws a bar per dated value
	LayoutBars
	// LayoutTable draws a grid of text cells
	LayoutTable
)

// Overlay is a derived line drawn over a chart
type Overlay struct {
	Series DerivedSeries
	Color  string
	Name   string
}

// ReferenceLine is a horizontal line at a fixed value
type ReferenceLine struct {
	Value float64
	Color string
	Name  string
}

// BarPoint is one dated bar for LayoutBars charts
type BarPoint struct {
	Date  time.Time
	Value float64
}

// Table is a grid of text cells. CellColors, when present, has the same
// shape as Rows; an empty string keeps the theme's cell colour.
type Table struct {
	Columns    []string
	Rows       [][]string
	CellColors [][]string
}

// ChartSpec describes one chart to render
type ChartSpec struct {
	Ticker     string
	Kind       ChartKind
	Label      string
	Title      string
	YAxisTitle string
	Layout     ChartLayout

	// Bars is the windowed price series for price layouts and the date
	// domain for overlay and oscillator layouts.
	Bars *Series

	Overlays       []Overlay
	Histogram      *Overlay
	ReferenceLines []ReferenceLine
	YRange         *[2]float64
	Legend         bool

	BarPoints []BarPoint
	BarColor  string
	Table     *Table
}

// ArtifactName returns the base file name for a spec, e.g. "90 Day_candle"
// or "earnings" when the chart has no window label.
func (s ChartSpec) ArtifactName() string {
	return ArtifactName(s.Label, s.Kind)
}

// ArtifactName joins a window label and a kind into a file stem
func ArtifactName(label string, kind ChartKind) string {
	if label == "" {
		return string(kind)
	}
	return label + "_" + string(kind)
}

// Artifact is a rendered chart image
type Artifact struct {
	Ticker string    `json:"ticker"`
	Name   string    `json:"name"`
	Kind   ChartKind `json:"kind"`
	Path   string    `json:"path,omitempty"`
	Bytes  []byte    `json:"-"`
}
