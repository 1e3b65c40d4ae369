// Package models defines data structures for finapp
package models

import (
	"fmt"
	"math"
	"time"
)

// PriceBar represents a single day's price data
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Validate checks the OHLC relationships of a single bar.
func (b PriceBar) Validate() error {
	if b.Date.IsZero() {
		return fmt.Errorf("%w: bar has no date", ErrMalformedInput)
	}
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bar %s has non-positive price", ErrMalformedInput, b.Date.Format("2006-01-02"))
		}
	}
	if b.Low > math.Min(b.Open, b.Close) || b.High < math.Max(b.Open, b.Close) {
		return fmt.Errorf("%w: bar %s has low/high outside open/close", ErrMalformedInput, b.Date.Format("2006-01-02"))
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: bar %s has negative volume", ErrMalformedInput, b.Date.Format("2006-01-02"))
	}
	return nil
}

// Series is an immutable, date-ordered sequence of bars for one ticker.
// Dates are strictly ascending. Build one with NewSeries.
type Series struct {
	ticker string
	bars   []PriceBar
}

// NewSeries validates bars and returns a Series that owns a copy of them.
func NewSeries(ticker string, bars []PriceBar) (*Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: series for %q is empty", ErrMalformedInput, ticker)
	}
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return nil, fmt.Errorf("%w: dates not strictly ascending at %s", ErrMalformedInput, b.Date.Format("2006-01-02"))
		}
	}
	owned := make([]PriceBar, len(bars))
	copy(owned, bars)
	return &Series{ticker: ticker, bars: owned}, nil
}

// Ticker returns the series ticker symbol
func (s *Series) Ticker() string { return s.ticker }

// Len returns the number of bars
func (s *Series) Len() int { return len(s.bars) }

// Bar returns the i-th bar (oldest first)
func (s *Series) Bar(i int) PriceBar { return s.bars[i] }

// First returns the oldest bar
func (s *Series) First() PriceBar { return s.bars[0] }

// Last returns the newest bar
func (s *Series) Last() PriceBar { return s.bars[len(s.bars)-1] }

// Bars returns a copy of the bars
func (s *Series) Bars() []PriceBar {
	out := make([]PriceBar, len(s.bars))
	copy(out, s.bars)
	return out
}

// Tail returns the last n bars as a new Series. n larger than the
// series length returns the whole series; n < 1 is malformed.
func (s *Series) Tail(n int) (*Series, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: window of %d rows", ErrMalformedInput, n)
	}
	if n >= len(s.bars) {
		return s, nil
	}
	return &Series{ticker: s.ticker, bars: s.bars[len(s.bars)-n:]}, nil
}

// Dates returns bar dates in order
func (s *Series) Dates() []time.Time {
	out := make([]time.Time, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Date
	}
	return out
}

// Opens returns open prices in order
func (s *Series) Opens() []float64 { return s.column(func(b PriceBar) float64 { return b.Open }) }

// Highs returns high prices in order
func (s *Series) Highs() []float64 { return s.column(func(b PriceBar) float64 { return b.High }) }

// Lows returns low prices in order
func (s *Series) Lows() []float64 { return s.column(func(b PriceBar) float64 { return b.Low }) }

// Closes returns close prices in order
func (s *Series) Closes() []float64 { return s.column(func(b PriceBar) float64 { return b.Close }) }

// Volumes returns volumes as float64 in order
func (s *Series) Volumes() []float64 {
	return s.column(func(b PriceBar) float64 { return float64(b.Volume) })
}

func (s *Series) column(pick func(PriceBar) float64) []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = pick(b)
	}
	return out
}

// DerivedSeries is an indicator output aligned 1:1 with a source Series.
// Positions where the indicator is undefined hold NaN.
type DerivedSeries struct {
	Name   string
	Dates  []time.Time
	Values []float64
}

// NewDerivedSeries allocates an all-undefined series over dates.
func NewDerivedSeries(name string, dates []time.Time) DerivedSeries {
	values := make([]float64, len(dates))
	for i := range values {
		values[i] = math.NaN()
	}
	d := make([]time.Time, len(dates))
	copy(d, dates)
	return DerivedSeries{Name: name, Dates: d, Values: values}
}

// Len returns the number of positions
func (d DerivedSeries) Len() int { return len(d.Values) }

// IsDefined reports whether position i carries a value
func (d DerivedSeries) IsDefined(i int) bool {
	return i >= 0 && i < len(d.Values) && !math.IsNaN(d.Values[i])
}

// Value returns the value at i and whether it is defined
func (d DerivedSeries) Value(i int) (float64, bool) {
	if !d.IsDefined(i) {
		return 0, false
	}
	return d.Values[i], true
}

// DefinedCount returns how many positions are defined
func (d DerivedSeries) DefinedCount() int {
	n := 0
	for i := range d.Values {
		if d.IsDefined(i) {
			n++
		}
	}
	return n
}

// FirstDefined returns the index of the first defined value, or -1.
func (d DerivedSeries) FirstDefined() int {
	for i := range d.Values {
		if d.IsDefined(i) {
			return i
		}
	}
	return -1
}

// Tail returns the last n positions. n larger than the length returns
// the whole series.
func (d DerivedSeries) Tail(n int) DerivedSeries {
	if n >= len(d.Values) || n < 0 {
		return d
	}
	start := len(d.Values) - n
	return DerivedSeries{Name: d.Name, Dates: d.Dates[start:], Values: d.Values[start:]}
}

// BollingerBands holds the three band series
type BollingerBands struct {
	Upper  DerivedSeries
	Middle DerivedSeries
	Lower  DerivedSeries
}

// MACDResult holds the MACD line, its signal line and their difference
type MACDResult struct {
	MACD      DerivedSeries
	Signal    DerivedSeries
	Histogram DerivedSeries
}

// Indicators bundles every indicator a deck needs, computed over the full range
type Indicators struct {
	MA50      DerivedSeries
	MA200     DerivedSeries
	Bollinger BollingerBands
	RSI       DerivedSeries
	MACD      MACDResult
}
