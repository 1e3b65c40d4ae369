// Package signals provides technical indicator calculations
package signals

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"github.com/montanaflynn/stats"

	"github.com/billleddy/finapp/internal/models"
)

const (
	DefaultBollingerWindow = 20
	DefaultBollingerK      = 2.0
	DefaultRSIPeriod       = 14
	DefaultMACDFast        = 12
	DefaultMACDSlow        = 26
	DefaultMACDSignal      = 9
)

// SMA calculates the simple moving average of Close over a trailing window.
// Positions before window-1 are undefined.
func SMA(series *models.Series, window int) (models.DerivedSeries, error) {
	if err := checkWindow("SMA", window); err != nil {
		return models.DerivedSeries{}, err
	}
	out := models.NewDerivedSeries(fmt.Sprintf("SMA%d", window), series.Dates())
	rollingMean(series.Closes(), window, out.Values)
	return out, nil
}

// RollingStdDev calculates the sample standard deviation of Close over a
// trailing window. It shares SMA's undefined prefix; a window of 1 is
// undefined everywhere.
func RollingStdDev(series *models.Series, window int) (models.DerivedSeries, error) {
	if err := checkWindow("RollingStdDev", window); err != nil {
		return models.DerivedSeries{}, err
	}
	out := models.NewDerivedSeries(fmt.Sprintf("STD%d", window), series.Dates())
	if window < 2 {
		return out, nil
	}
	closes := series.Closes()
	for i := window - 1; i < len(closes); i++ {
		sd, err := stats.StandardDeviationSample(closes[i-window+1 : i+1])
		if err != nil {
			return models.DerivedSeries{}, fmt.Errorf("rolling std dev at %d: %w", i, err)
		}
		out.Values[i] = sd
	}
	return out, nil
}

// Bollinger calculates bands at k sample standard deviations around the SMA
func Bollinger(series *models.Series, window int, k float64) (models.BollingerBands, error) {
	if err := checkWindow("Bollinger", window); err != nil {
		return models.BollingerBands{}, err
	}
	if k < 0 || math.IsNaN(k) {
		return models.BollingerBands{}, fmt.Errorf("%w: Bollinger multiplier %v", models.ErrMalformedInput, k)
	}

	middle, err := SMA(series, window)
	if err != nil {
		return models.BollingerBands{}, err
	}
	sd, err := RollingStdDev(series, window)
	if err != nil {
		return models.BollingerBands{}, err
	}

	dates := series.Dates()
	upper := models.NewDerivedSeries("Upper Band", dates)
	lower := models.NewDerivedSeries("Lower Band", dates)
	middle.Name = "Moving Average"
	for i := range dates {
		m, okM := middle.Value(i)
		d, okD := sd.Value(i)
		if !okM || !okD {
			continue
		}
		upper.Values[i] = m + k*d
		lower.Values[i] = m - k*d
	}

	return models.BollingerBands{Upper: upper, Middle: middle, Lower: lower}, nil
}

// EMA calculates an SMA-seeded exponential moving average of values.
// Leading undefined inputs are skipped; the first period-1 defined
// positions after them stay undefined.
func EMA(values []float64, period int) ([]float64, error) {
	if err := checkWindow("EMA", period); err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	fillNaN(out)

	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	if len(values)-start < period {
		return out, nil
	}

	ema := talib.Ema(values[start:], period)
	for i := period - 1; i < len(ema); i++ {
		out[start+i] = ema[i]
	}
	return out, nil
}

// RSI calculates Wilder's Relative Strength Index. The first period
// positions are undefined, defined values fall within [0, 100].
func RSI(series *models.Series, period int) (models.DerivedSeries, error) {
	if period < 2 {
		return models.DerivedSeries{}, fmt.Errorf("%w: RSI period %d", models.ErrMalformedInput, period)
	}
	out := models.NewDerivedSeries(fmt.Sprintf("RSI%d", period), series.Dates())
	closes := series.Closes()
	if len(closes) <= period {
		return out, nil
	}

	rsi := talib.Rsi(closes, period)
	for i := period; i < len(rsi); i++ {
		out.Values[i] = math.Max(0, math.Min(100, rsi[i]))
	}
	return out, nil
}

// MACD calculates the fast/slow EMA difference, its signal EMA, and the
// histogram MACD - Signal. The MACD line is defined from slow-1, the
// signal and histogram from slow+signal-2.
func MACD(series *models.Series, fast, slow, signal int) (models.MACDResult, error) {
	for _, p := range []int{fast, slow, signal} {
		if err := checkWindow("MACD", p); err != nil {
			return models.MACDResult{}, err
		}
	}
	if fast >= slow {
		return models.MACDResult{}, fmt.Errorf("%w: MACD fast period %d must be below slow period %d",
			models.ErrMalformedInput, fast, slow)
	}

	dates := series.Dates()
	result := models.MACDResult{
		MACD:      models.NewDerivedSeries("MACD", dates),
		Signal:    models.NewDerivedSeries("Signal", dates),
		Histogram: models.NewDerivedSeries("MACD Histogram", dates),
	}

	closes := series.Closes()
	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return models.MACDResult{}, err
	}
	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return models.MACDResult{}, err
	}
	for i := range closes {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			continue
		}
		result.MACD.Values[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine, err := EMA(result.MACD.Values, signal)
	if err != nil {
		return models.MACDResult{}, err
	}
	copy(result.Signal.Values, signalLine)

	for i := range closes {
		m, okM := result.MACD.Value(i)
		s, okS := result.Signal.Value(i)
		if okM && okS {
			result.Histogram.Values[i] = m - s
		}
	}
	return result, nil
}

// rollingMean writes the trailing mean of values into out
func rollingMean(values []float64, window int, out []float64) {
	if len(values) < window {
		return
	}
	for i := window - 1; i < len(values); i++ {
		mean, err := stats.Mean(values[i-window+1 : i+1])
		if err != nil {
			continue
		}
		out[i] = mean
	}
}

func checkWindow(name string, window int) error {
	if window < 1 {
		return fmt.Errorf("%w: %s window %d", models.ErrMalformedInput, name, window)
	}
	return nil
}

func fillNaN(values []float64) {
	for i := range values {
		values[i] = math.NaN()
	}
}
