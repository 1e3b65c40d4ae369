package signals

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billleddy/finapp/internal/models"
)

func TestSMA(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		window   int
		expected []float64
	}{
		{
			name:     "simple 3-day SMA",
			closes:   []float64{1, 2, 3, 4, 5},
			window:   3,
			expected: []float64{math.NaN(), math.NaN(), 2, 3, 4},
		},
		{
			name:     "window equals length",
			closes:   []float64{10, 20, 30},
			window:   3,
			expected: []float64{math.NaN(), math.NaN(), 20},
		},
		{
			name:     "window of one tracks close",
			closes:   []float64{10, 20, 30},
			window:   1,
			expected: []float64{10, 20, 30},
		},
		{
			name:     "insufficient data",
			closes:   []float64{10, 20},
			window:   5,
			expected: []float64{math.NaN(), math.NaN()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := SMA(generateSeries(t, tt.closes), tt.window)
			require.NoError(t, err)
			assertSeriesEqual(t, tt.expected, result.Values)
		})
	}
}

func TestSMA_SpikeContribution(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	closes[19] = 120

	sma, err := SMA(generateSeries(t, closes), 20)
	require.NoError(t, err)

	for i := 0; i < 19; i++ {
		assert.False(t, sma.IsDefined(i), "SMA(20) must be undefined at %d", i)
	}
	v19, ok := sma.Value(19)
	require.True(t, ok)
	assert.InDelta(t, 100+20.0/20, v19, 1e-9)

	v20, _ := sma.Value(20)
	assert.InDelta(t, v19, v20, 1e-9, "spike stays inside the window")
	v29, _ := sma.Value(29)
	assert.InDelta(t, 101, v29, 1e-9)
}

func TestRollingStdDev(t *testing.T) {
	result, err := RollingStdDev(generateSeries(t, []float64{1, 2, 3, 4, 5}), 3)
	require.NoError(t, err)
	assertSeriesEqual(t, []float64{math.NaN(), math.NaN(), 1, 1, 1}, result.Values)

	single, err := RollingStdDev(generateSeries(t, []float64{1, 2, 3}), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, single.DefinedCount(), "sample std dev of one value is undefined")
}

func TestRollingStdDev_IsSample(t *testing.T) {
	// population sd of {2,4,4,4,5,5,7,9} is 2, sample sd is sqrt(32/7)
	result, err := RollingStdDev(generateSeries(t, []float64{2, 4, 4, 4, 5, 5, 7, 9}), 8)
	require.NoError(t, err)
	v, ok := result.Value(7)
	require.True(t, ok)
	assert.InDelta(t, math.Sqrt(32.0/7.0), v, 1e-9)
}

func TestBollinger(t *testing.T) {
	series := generateSeries(t, generateWave(60))
	bands, err := Bollinger(series, DefaultBollingerWindow, DefaultBollingerK)
	require.NoError(t, err)

	sd, err := RollingStdDev(series, DefaultBollingerWindow)
	require.NoError(t, err)

	for i := 0; i < series.Len(); i++ {
		if i < DefaultBollingerWindow-1 {
			assert.False(t, bands.Upper.IsDefined(i))
			assert.False(t, bands.Middle.IsDefined(i))
			assert.False(t, bands.Lower.IsDefined(i))
			continue
		}
		u, _ := bands.Upper.Value(i)
		m, _ := bands.Middle.Value(i)
		l, _ := bands.Lower.Value(i)
		s, _ := sd.Value(i)
		assert.InDelta(t, DefaultBollingerK*s, u-m, 1e-9)
		assert.InDelta(t, DefaultBollingerK*s, m-l, 1e-9)
		assert.LessOrEqual(t, l, m)
		assert.LessOrEqual(t, m, u)
	}
}

func TestRSI_WilderReference(t *testing.T) {
	closes := []float64{
		44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84, 46.08,
		45.89, 46.03, 45.61, 46.28, 46.28, 46.00, 46.03, 46.41, 46.22, 45.64,
	}
	rsi, err := RSI(generateSeries(t, closes), 14)
	require.NoError(t, err)

	for i := 0; i < 14; i++ {
		assert.False(t, rsi.IsDefined(i))
	}
	v14, _ := rsi.Value(14)
	v15, _ := rsi.Value(15)
	v19, _ := rsi.Value(19)
	assert.InDelta(t, 70.464, v14, 0.01)
	assert.InDelta(t, 66.250, v15, 0.01)
	assert.InDelta(t, 57.915, v19, 0.01)
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		minRSI float64
		maxRSI float64
	}{
		{"uptrend should have high RSI", generateTrend(50, 1.0, 40), 99.9, 100},
		{"downtrend should have low RSI", generateTrend(100, -1.0, 40), 0, 0.1},
		{"oscillating stays mid-range", generateWave(80), 20, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi, err := RSI(generateSeries(t, tt.closes), DefaultRSIPeriod)
			require.NoError(t, err)
			last, ok := rsi.Value(rsi.Len() - 1)
			require.True(t, ok)
			assert.GreaterOrEqual(t, last, tt.minRSI)
			assert.LessOrEqual(t, last, tt.maxRSI)
		})
	}
}

func TestRSI_ShortSeries(t *testing.T) {
	rsi, err := RSI(generateSeries(t, generateTrend(10, 1, 14)), 14)
	require.NoError(t, err)
	assert.Equal(t, 14, rsi.Len())
	assert.Equal(t, 0, rsi.DefinedCount())
}

func TestEMA(t *testing.T) {
	out, err := EMA([]float64{1, 2, 3, 4, 5, 6}, 3)
	require.NoError(t, err)
	assertSeriesEqual(t, []float64{math.NaN(), math.NaN(), 2, 3, 4, 5}, out)

	lead, err := EMA([]float64{math.NaN(), math.NaN(), 1, 2, 3, 4}, 3)
	require.NoError(t, err)
	assertSeriesEqual(t, []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), 2, 3}, lead)

	short, err := EMA([]float64{1, 2}, 3)
	require.NoError(t, err)
	assertSeriesEqual(t, []float64{math.NaN(), math.NaN()}, short)
}

func TestMACD(t *testing.T) {
	series := generateSeries(t, generateWave(120))
	result, err := MACD(series, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	require.NoError(t, err)

	assert.Equal(t, series.Len(), result.MACD.Len())
	assert.Equal(t, DefaultMACDSlow-1, result.MACD.FirstDefined())
	assert.Equal(t, DefaultMACDSlow+DefaultMACDSignal-2, result.Signal.FirstDefined())
	assert.Equal(t, DefaultMACDSlow+DefaultMACDSignal-2, result.Histogram.FirstDefined())

	for i := 0; i < series.Len(); i++ {
		h, ok := result.Histogram.Value(i)
		if !ok {
			continue
		}
		m, _ := result.MACD.Value(i)
		s, _ := result.Signal.Value(i)
		assert.Equal(t, m-s, h)
	}
}

func TestMACD_ShortSeries(t *testing.T) {
	result, err := MACD(generateSeries(t, generateTrend(10, 0.5, 30)), 12, 26, 9)
	require.NoError(t, err)
	assert.Equal(t, 5, result.MACD.DefinedCount())
	assert.Equal(t, 0, result.Signal.DefinedCount())
	assert.Equal(t, 0, result.Histogram.DefinedCount())
}

func TestIndicators_MalformedWindow(t *testing.T) {
	series := generateSeries(t, []float64{1, 2, 3})

	_, err := SMA(series, 0)
	assert.ErrorIs(t, err, models.ErrMalformedInput)
	_, err = RollingStdDev(series, -1)
	assert.ErrorIs(t, err, models.ErrMalformedInput)
	_, err = Bollinger(series, 0, 2)
	assert.ErrorIs(t, err, models.ErrMalformedInput)
	_, err = Bollinger(series, 20, -1)
	assert.ErrorIs(t, err, models.ErrMalformedInput)
	_, err = RSI(series, 1)
	assert.ErrorIs(t, err, models.ErrMalformedInput)
	_, err = MACD(series, 26, 12, 9)
	assert.ErrorIs(t, err, models.ErrMalformedInput)
	_, err = EMA([]float64{1}, 0)
	assert.ErrorIs(t, err, models.ErrMalformedInput)
}

func TestComputer_Compute(t *testing.T) {
	series := generateSeries(t, generateWave(300))
	ind, err := NewComputer(DefaultIndicatorParams()).Compute(series)
	require.NoError(t, err)

	assert.Equal(t, "50-day MA", ind.MA50.Name)
	assert.Equal(t, "200-day MA", ind.MA200.Name)
	assert.Equal(t, 49, ind.MA50.FirstDefined())
	assert.Equal(t, 199, ind.MA200.FirstDefined())
	assert.Equal(t, 14, ind.RSI.FirstDefined())
	for _, d := range []models.DerivedSeries{ind.MA50, ind.MA200, ind.RSI, ind.Bollinger.Upper, ind.MACD.Histogram} {
		assert.Equal(t, series.Len(), d.Len())
	}
}

func TestComputer_HistoryShortfall(t *testing.T) {
	c := NewComputer(DefaultIndicatorParams())
	assert.Equal(t, []string{"long_ma"}, c.HistoryShortfall(generateSeries(t, generateWave(100))))
	assert.Empty(t, c.HistoryShortfall(generateSeries(t, generateWave(250))))
	assert.Len(t, c.HistoryShortfall(generateSeries(t, generateWave(5))), 5)
}

func assertSeriesEqual(t *testing.T, expected, actual []float64) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		if math.IsNaN(expected[i]) {
			assert.True(t, math.IsNaN(actual[i]), "position %d should be undefined, got %v", i, actual[i])
			continue
		}
		assert.InDelta(t, expected[i], actual[i], 1e-9, "position %d", i)
	}
}

var seriesStart = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

func generateSeries(t *testing.T, closes []float64) *models.Series {
	t.Helper()
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Date:   seriesStart.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000000,
		}
	}
	s, err := models.NewSeries("TEST", bars)
	require.NoError(t, err)
	return s
}

func generateTrend(startPrice, dailyChange float64, days int) []float64 {
	closes := make([]float64, days)
	price := startPrice
	for i := range closes {
		closes[i] = price
		price += dailyChange
	}
	return closes
}

func generateWave(days int) []float64 {
	closes := make([]float64, days)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/5)
	}
	return closes
}
