package charts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/billleddy/finapp/internal/models"
	"github.com/billleddy/finapp/internal/signals"
)

const (
	// MaxGradeChangeRows caps the upgrades/downgrades table
	MaxGradeChangeRows = 12
	// MaxEarningsRows caps the reported earnings table
	MaxEarningsRows = 12
)

// Builder turns series, indicators and fundamentals into chart specs
// coloured with one theme.
type Builder struct {
	theme Theme
}

// NewBuilder creates a spec builder for theme
func NewBuilder(theme Theme) *Builder {
	return &Builder{theme: theme}
}

// Candle builds a candlestick + volume chart for a period
func (b *Builder) Candle(series *models.Series, period signals.Period) (models.ChartSpec, error) {
	window, err := period.Apply(series)
	if err != nil {
		return models.ChartSpec{}, err
	}
	return models.ChartSpec{
		Ticker:     series.Ticker(),
		Kind:       models.ChartCandle,
		Label:      period.Label,
		Title:      fmt.Sprintf("%s %s Stock Price Chart", series.Ticker(), period.Label),
		YAxisTitle: "Price",
		Layout:     models.LayoutPriceVolume,
		Bars:       window,
	}, nil
}

// Bollinger builds candlesticks with band overlays and volume. bands must
// be computed over the full series.
func (b *Builder) Bollinger(series *models.Series, bands models.BollingerBands, period signals.Period) (models.ChartSpec, error) {
	window, err := period.Apply(series)
	if err != nil {
		return models.ChartSpec{}, err
	}
	return models.ChartSpec{
		Ticker:     series.Ticker(),
		Kind:       models.ChartBollinger,
		Label:      period.Label,
		Title:      fmt.Sprintf("%s Stock Price with Bollinger Bands", series.Ticker()),
		YAxisTitle: "Price",
		Layout:     models.LayoutPriceVolume,
		Bars:       window,
		Overlays: []models.Overlay{
			{Series: period.ApplyDerived(bands.Upper), Color: b.theme.UpperBand, Name: "Upper Band"},
			{Series: period.ApplyDerived(bands.Middle), Color: b.theme.MiddleBand, Name: "Moving Average"},
			{Series: period.ApplyDerived(bands.Lower), Color: b.theme.LowerBand, Name: "Lower Band"},
		},
	}, nil
}

// MovingAverages builds the short/long moving average chart with the close
func (b *Builder) MovingAverages(series *models.Series, short, long models.DerivedSeries, period signals.Period) (models.ChartSpec, error) {
	window, err := period.Apply(series)
	if err != nil {
		return models.ChartSpec{}, err
	}
	price := models.NewDerivedSeries("Stock Price", window.Dates())
	copy(price.Values, window.Closes())

	return models.ChartSpec{
		Ticker:     series.Ticker(),
		Kind:       models.ChartMovingAverage,
		Label:      period.Label,
		Title:      fmt.Sprintf("%s %s & %s Day Moving Averages", series.Ticker(), maDays(short), maDays(long)),
		YAxisTitle: "Price",
		Layout:     models.LayoutOverlay,
		Bars:       window,
		Overlays: []models.Overlay{
			{Series: period.ApplyDerived(short), Color: b.theme.ShortMA, Name: short.Name},
			{Series: period.ApplyDerived(long), Color: b.theme.LongMA, Name: long.Name},
			{Series: price, Color: b.theme.Price, Name: "Stock Price"},
		},
		Legend: true,
	}, nil
}

// RSI builds the RSI chart with 70/30 reference lines on a 0-100 scale
func (b *Builder) RSI(series *models.Series, rsi models.DerivedSeries, period signals.Period) (models.ChartSpec, error) {
	window, err := period.Apply(series)
	if err != nil {
		return models.ChartSpec{}, err
	}
	return models.ChartSpec{
		Ticker:     series.Ticker(),
		Kind:       models.ChartRSI,
		Label:      period.Label,
		Title:      fmt.Sprintf("%s Relative Strength Indicator", series.Ticker()),
		YAxisTitle: "RSI",
		Layout:     models.LayoutOscillator,
		Bars:       window,
		Overlays: []models.Overlay{
			{Series: period.ApplyDerived(rsi), Color: b.theme.RSI, Name: "RSI"},
		},
		ReferenceLines: []models.ReferenceLine{
			{Value: 70, Color: b.theme.Overbought, Name: "Overbought"},
			{Value: 30, Color: b.theme.Oversold, Name: "Oversold"},
		},
		YRange: &[2]float64{0, 100},
	}, nil
}

// MACD builds the MACD and signal lines over a histogram of their difference
func (b *Builder) MACD(series *models.Series, macd models.MACDResult, period signals.Period) (models.ChartSpec, error) {
	window, err := period.Apply(series)
	if err != nil {
		return models.ChartSpec{}, err
	}
	return models.ChartSpec{
		Ticker:     series.Ticker(),
		Kind:       models.ChartMACD,
		Label:      period.Label,
		Title:      fmt.Sprintf("%s Moving Average Convergence/Divergence", series.Ticker()),
		YAxisTitle: "MACD",
		Layout:     models.LayoutOscillator,
		Bars:       window,
		Overlays: []models.Overlay{
			{Series: period.ApplyDerived(macd.MACD), Color: b.theme.MACD, Name: "MACD"},
			{Series: period.ApplyDerived(macd.Signal), Color: b.theme.Signal, Name: "Signal"},
		},
		Histogram: &models.Overlay{
			Series: period.ApplyDerived(macd.Histogram),
			Color:  b.theme.Histogram,
			Name:   "MACD Histogram",
		},
		Legend: true,
	}, nil
}

// Insider builds a bar chart of insider share sales in thousands
func (b *Builder) Insider(ticker string, txs []models.InsiderTransaction) (models.ChartSpec, error) {
	if len(txs) == 0 {
		return models.ChartSpec{}, fmt.Errorf("%w: no insider transactions for %s", models.ErrMissingFundamentals, ticker)
	}
	sorted := make([]models.InsiderTransaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartDate.Before(sorted[j].StartDate) })

	points := make([]models.BarPoint, len(sorted))
	for i, tx := range sorted {
		points[i] = models.BarPoint{Date: tx.StartDate, Value: float64(tx.Shares) / 1000}
	}
	return models.ChartSpec{
		Ticker:     ticker,
		Kind:       models.ChartInsider,
		Title:      "Insider Selling",
		YAxisTitle: "Shares(1000s)",
		Layout:     models.LayoutBars,
		BarPoints:  points,
		BarColor:   b.theme.Negative,
	}, nil
}

// GradeChanges builds the latest analyst upgrades and downgrades table
func (b *Builder) GradeChanges(ticker string, changes []models.GradeChange) (models.ChartSpec, error) {
	if len(changes) == 0 {
		return models.ChartSpec{}, fmt.Errorf("%w: no grade changes for %s", models.ErrMissingFundamentals, ticker)
	}
	sorted := make([]models.GradeChange, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
	if len(sorted) > MaxGradeChangeRows {
		sorted = sorted[:MaxGradeChangeRows]
	}

	tbl := &models.Table{Columns: []string{"Date", "Firm", "New Grade", "Prev Grade", "Action"}}
	for _, g := range sorted {
		tbl.Rows = append(tbl.Rows, []string{g.Date.Format("2006-01-02"), g.Firm, g.ToGrade, g.FromGrade, g.Action})
		tbl.CellColors = append(tbl.CellColors, []string{"", "", b.gradeColor(g.ToGrade), "", b.actionColor(g.Action)})
	}
	return models.ChartSpec{
		Ticker: ticker,
		Kind:   models.ChartGradeChanges,
		Title:  fmt.Sprintf("%s Analyst Upgrades & Downgrades", ticker),
		Layout: models.LayoutTable,
		Table:  tbl,
	}, nil
}

func (b *Builder) actionColor(action string) string {
	switch strings.ToLower(action) {
	case "down":
		return b.theme.Negative
	case "up":
		return b.theme.Positive
	}
	return ""
}

func (b *Builder) gradeColor(grade string) string {
	switch grade {
	case "Sell":
		return b.theme.Negative
	case "Outperform":
		return b.theme.Positive
	case "Underweight":
		return b.theme.Caution
	}
	return ""
}

// Recommendations builds the analyst rating counts table. Relative periods
// such as "-1m" are named by month relative to now.
func (b *Builder) Recommendations(ticker string, trends []models.RecommendationTrend, now time.Time) (models.ChartSpec, error) {
	if len(trends) == 0 {
		return models.ChartSpec{}, fmt.Errorf("%w: no recommendations for %s", models.ErrMissingFundamentals, ticker)
	}
	tbl := &models.Table{Columns: []string{"When", "Strong Buy", "Buy", "Hold", "Sell", "Strong Sell"}}
	for _, tr := range trends {
		tbl.Rows = append(tbl.Rows, []string{
			periodMonth(tr.Period, now),
			strconv.Itoa(tr.StrongBuy),
			strconv.Itoa(tr.Buy),
			strconv.Itoa(tr.Hold),
			strconv.Itoa(tr.Sell),
			strconv.Itoa(tr.StrongSell),
		})
	}
	return models.ChartSpec{
		Ticker: ticker,
		Kind:   models.ChartRecommendations,
		Title:  fmt.Sprintf("%s Analyst Recommendations", ticker),
		Layout: models.LayoutTable,
		Table:  tbl,
	}, nil
}

// periodMonth maps "0m", "-1m", ... to a month name; other values pass through
func periodMonth(period string, now time.Time) string {
	offset, err := strconv.Atoi(strings.TrimSuffix(period, "m"))
	if err != nil || !strings.HasSuffix(period, "m") {
		return period
	}
	first := time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
	return first.Format("January")
}

// Earnings builds the reported earnings table, newest first. Surprises
// below -0.01 are flagged negative and above 0.1 positive.
func (b *Builder) Earnings(ticker string, rows []models.EarningsRow) (models.ChartSpec, error) {
	var reported []models.EarningsRow
	for _, r := range rows {
		if r.Reported() {
			reported = append(reported, r)
		}
	}
	if len(reported) == 0 {
		return models.ChartSpec{}, fmt.Errorf("%w: no reported earnings for %s", models.ErrMissingFundamentals, ticker)
	}
	sort.SliceStable(reported, func(i, j int) bool { return reported[i].Date.After(reported[j].Date) })
	if len(reported) > MaxEarningsRows {
		reported = reported[:MaxEarningsRows]
	}

	tbl := &models.Table{Columns: []string{"Earnings Date", "EPS Estimate", "Reported EPS", "Surprise(%)"}}
	for _, r := range reported {
		surpriseColor := ""
		if r.SurprisePct != nil {
			switch {
			case *r.SurprisePct < -0.01:
				surpriseColor = b.theme.Negative
			case *r.SurprisePct > 0.1:
				surpriseColor = b.theme.Positive
			}
		}
		tbl.Rows = append(tbl.Rows, []string{
			r.Date.Format("2006-01-02"),
			formatOptional(r.EPSEstimate),
			formatOptional(r.ReportedEPS),
			formatOptional(r.SurprisePct),
		})
		tbl.CellColors = append(tbl.CellColors, []string{"", "", "", surpriseColor})
	}
	return models.ChartSpec{
		Ticker: ticker,
		Kind:   models.ChartEarnings,
		Title:  fmt.Sprintf("%s Earnings History", ticker),
		Layout: models.LayoutTable,
		Table:  tbl,
	}, nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// maDays extracts the day count from a "50-day MA" style name
func maDays(d models.DerivedSeries) string {
	if i := strings.Index(d.Name, "-"); i > 0 {
		return d.Name[:i]
	}
	return d.Name
}
