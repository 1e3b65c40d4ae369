package charts

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billleddy/finapp/internal/models"
	"github.com/billleddy/finapp/internal/signals"
)

func TestRenderer_AllKinds(t *testing.T) {
	series := generateSeries(t, 300)
	ind, err := signals.NewComputer(signals.DefaultIndicatorParams()).Compute(series)
	require.NoError(t, err)
	b := NewBuilder(DarkTheme())
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	specs := []struct {
		name  string
		build func() (models.ChartSpec, error)
	}{
		{"candle_5day", func() (models.ChartSpec, error) { return b.Candle(series, signals.Period5Day) }},
		{"candle_90day", func() (models.ChartSpec, error) { return b.Candle(series, signals.Period90Day) }},
		{"candle_5year", func() (models.ChartSpec, error) { return b.Candle(series, signals.Period5Year) }},
		{"bollinger", func() (models.ChartSpec, error) {
			return b.Bollinger(series, ind.Bollinger, signals.DaysPeriod(90))
		}},
		{"ma", func() (models.ChartSpec, error) {
			return b.MovingAverages(series, ind.MA50, ind.MA200, signals.DaysPeriod(365))
		}},
		{"rsi", func() (models.ChartSpec, error) { return b.RSI(series, ind.RSI, signals.DaysPeriod(90)) }},
		{"macd", func() (models.ChartSpec, error) { return b.MACD(series, ind.MACD, signals.DaysPeriod(90)) }},
		{"insider", func() (models.ChartSpec, error) { return b.Insider("TEST", sampleInsider()) }},
		{"up_down", func() (models.ChartSpec, error) { return b.GradeChanges("TEST", sampleGrades()) }},
		{"recommendations", func() (models.ChartSpec, error) {
			return b.Recommendations("TEST", sampleTrends(), now)
		}},
		{"earnings", func() (models.ChartSpec, error) { return b.Earnings("TEST", sampleEarnings()) }},
	}

	for _, theme := range []Theme{DarkTheme(), LightTheme()} {
		r := NewRenderer(theme, 0, 0)
		for _, tt := range specs {
			t.Run(theme.Name+"/"+tt.name, func(t *testing.T) {
				spec, err := tt.build()
				require.NoError(t, err)
				out, err := r.Render(spec)
				require.NoError(t, err)
				assertPNG(t, out, DefaultWidth, DefaultHeight)
			})
		}
	}
}

func TestRenderer_Deterministic(t *testing.T) {
	series := generateSeries(t, 120)
	ind, err := signals.NewComputer(signals.DefaultIndicatorParams()).Compute(series)
	require.NoError(t, err)
	spec, err := NewBuilder(DarkTheme()).Bollinger(series, ind.Bollinger, signals.DaysPeriod(90))
	require.NoError(t, err)

	r := NewRenderer(DarkTheme(), 640, 480)
	first, err := r.Render(spec)
	require.NoError(t, err)
	second, err := r.Render(spec)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "same spec must render identical bytes")
	assertPNG(t, first, 640, 480)
}

func TestRenderer_UndefinedOverlaysAreSkipped(t *testing.T) {
	// 10 rows: no moving average, RSI or MACD value is defined
	series := generateSeries(t, 10)
	ind, err := signals.NewComputer(signals.DefaultIndicatorParams()).Compute(series)
	require.NoError(t, err)
	b := NewBuilder(DarkTheme())
	r := NewRenderer(DarkTheme(), 0, 0)

	for name, build := range map[string]func() (models.ChartSpec, error){
		"ma":        func() (models.ChartSpec, error) { return b.MovingAverages(series, ind.MA50, ind.MA200, signals.DaysPeriod(365)) },
		"rsi":       func() (models.ChartSpec, error) { return b.RSI(series, ind.RSI, signals.DaysPeriod(90)) },
		"macd":      func() (models.ChartSpec, error) { return b.MACD(series, ind.MACD, signals.DaysPeriod(90)) },
		"bollinger": func() (models.ChartSpec, error) { return b.Bollinger(series, ind.Bollinger, signals.DaysPeriod(90)) },
	} {
		t.Run(name, func(t *testing.T) {
			spec, err := build()
			require.NoError(t, err)
			out, err := r.Render(spec)
			require.NoError(t, err)
			assertPNG(t, out, DefaultWidth, DefaultHeight)
		})
	}
}

func TestRenderer_SingleRowWindow(t *testing.T) {
	series := generateSeries(t, 1)
	spec, err := NewBuilder(DarkTheme()).Candle(series, signals.Period5Day)
	require.NoError(t, err)
	out, err := NewRenderer(DarkTheme(), 0, 0).Render(spec)
	require.NoError(t, err)
	assertPNG(t, out, DefaultWidth, DefaultHeight)
}

func TestRenderer_FlatPrices(t *testing.T) {
	bars := make([]models.PriceBar, 5)
	for i := range bars {
		bars[i] = models.PriceBar{Date: seriesStart.AddDate(0, 0, i), Open: 10, High: 10, Low: 10, Close: 10, Volume: 0}
	}
	series, err := models.NewSeries("FLAT", bars)
	require.NoError(t, err)
	spec, err := NewBuilder(LightTheme()).Candle(series, signals.Period5Day)
	require.NoError(t, err)
	_, err = NewRenderer(LightTheme(), 0, 0).Render(spec)
	require.NoError(t, err)
}

func TestRenderer_Errors(t *testing.T) {
	r := NewRenderer(DarkTheme(), 0, 0)

	_, err := r.Render(models.ChartSpec{Kind: models.ChartCandle, Label: "5 Day", Layout: models.LayoutPriceVolume})
	require.Error(t, err)
	var re *models.RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, models.ChartCandle, re.Kind)
	assert.Equal(t, "5 Day_candle", re.Name)
	assert.ErrorIs(t, err, models.ErrMalformedInput)

	_, err = r.Render(models.ChartSpec{Kind: models.ChartEarnings, Layout: models.LayoutTable, Table: &models.Table{Columns: []string{"A"}}})
	assert.ErrorIs(t, err, models.ErrMissingFundamentals)

	_, err = r.Render(models.ChartSpec{Kind: models.ChartInsider, Layout: models.LayoutBars})
	assert.ErrorIs(t, err, models.ErrMissingFundamentals)

	_, err = r.Render(models.ChartSpec{Kind: models.ChartRSI, Layout: models.ChartLayout(99)})
	assert.Error(t, err)
}

func TestPanelHeights(t *testing.T) {
	price, volume, gap := panelHeights(500)
	assert.Equal(t, 15, gap)
	assert.Equal(t, 500, price+volume+gap)
	assert.InDelta(t, 0.7/0.2, float64(price)/float64(volume), 0.05)
}

func TestValueBounds(t *testing.T) {
	var vb valueBounds
	r := vb.rangeWithPadding()
	assert.Equal(t, -1.0, r.Min)
	assert.Equal(t, 1.0, r.Max)

	vb.add(math.NaN(), 5, math.Inf(1))
	r = vb.rangeWithPadding()
	assert.Less(t, r.Min, 5.0)
	assert.Greater(t, r.Max, 5.0)

	vb.add(15)
	r = vb.rangeWithPadding()
	assert.InDelta(t, 4.5, r.Min, 1e-9)
	assert.InDelta(t, 15.5, r.Max, 1e-9)
}

func TestThemeByName(t *testing.T) {
	dark, err := ThemeByName("")
	require.NoError(t, err)
	assert.Equal(t, "dark", dark.Name)

	light, err := ThemeByName("Light")
	require.NoError(t, err)
	assert.Equal(t, "light", light.Name)

	_, err = ThemeByName("sepia")
	assert.Error(t, err)
}

func assertPNG(t *testing.T, data []byte, width, height int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, width, img.Bounds().Dx())
	assert.Equal(t, height, img.Bounds().Dy())
}

var seriesStart = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

func generateSeries(t *testing.T, days int) *models.Series {
	t.Helper()
	bars := make([]models.PriceBar, days)
	for i := range bars {
		c := 100 + 10*math.Sin(float64(i)/7)
		o := c + math.Cos(float64(i))
		bars[i] = models.PriceBar{
			Date:   seriesStart.AddDate(0, 0, i),
			Open:   o,
			High:   math.Max(o, c) + 1,
			Low:    math.Min(o, c) - 1,
			Close:  c,
			Volume: int64(1000000 + 10000*i),
		}
	}
	s, err := models.NewSeries("TEST", bars)
	require.NoError(t, err)
	return s
}

func ptr(v float64) *float64 { return &v }

func sampleEarnings() []models.EarningsRow {
	return []models.EarningsRow{
		{Date: time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC), EPSEstimate: ptr(0.55)},
		{Date: time.Date(2026, 7, 23, 0, 0, 0, 0, time.UTC), EPSEstimate: ptr(0.40), ReportedEPS: ptr(0.40), SurprisePct: ptr(0)},
		{Date: time.Date(2026, 4, 22, 0, 0, 0, 0, time.UTC), EPSEstimate: ptr(0.41), ReportedEPS: ptr(0.27), SurprisePct: ptr(-34.15)},
		{Date: time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC), EPSEstimate: ptr(0.77), ReportedEPS: ptr(0.73), SurprisePct: ptr(5.2)},
	}
}

func sampleGrades() []models.GradeChange {
	return []models.GradeChange{
		{Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), Firm: "Morgan Stanley", ToGrade: "Overweight", FromGrade: "Equal-Weight", Action: "up"},
		{Date: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), Firm: "UBS", ToGrade: "Sell", FromGrade: "Neutral", Action: "down"},
		{Date: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), Firm: "Barclays", ToGrade: "Underweight", FromGrade: "Underweight", Action: "main"},
	}
}

func sampleTrends() []models.RecommendationTrend {
	return []models.RecommendationTrend{
		{Period: "0m", StrongBuy: 7, Buy: 15, Hold: 18, Sell: 6, StrongSell: 3},
		{Period: "-1m", StrongBuy: 6, Buy: 16, Hold: 17, Sell: 7, StrongSell: 3},
	}
}

func sampleInsider() []models.InsiderTransaction {
	return []models.InsiderTransaction{
		{StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), Insider: "A", Shares: 25000},
		{StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Insider: "B", Shares: 12000},
	}
}
