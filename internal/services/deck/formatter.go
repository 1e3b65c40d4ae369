package deck

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/billleddy/finapp/internal/models"
)

// IndexFile is the markdown deck index written beside the charts
const IndexFile = "deck.md"

// Snapshot holds the latest indicator readings of a run. Undefined
// readings are NaN.
type Snapshot struct {
	Date      time.Time
	Close     float64
	ShortMA   float64
	LongMA    float64
	Upper     float64
	Lower     float64
	RSI       float64
	MACD      float64
	Signal    float64
	Histogram float64
}

func newSnapshot(series *models.Series, ind *models.Indicators) *Snapshot {
	last := series.Len() - 1
	at := func(d models.DerivedSeries) float64 {
		if v, ok := d.Value(last); ok {
			return v
		}
		return math.NaN()
	}
	return &Snapshot{
		Date:      series.Last().Date,
		Close:     series.Last().Close,
		ShortMA:   at(ind.MA50),
		LongMA:    at(ind.MA200),
		Upper:     at(ind.Bollinger.Upper),
		Lower:     at(ind.Bollinger.Lower),
		RSI:       at(ind.RSI),
		MACD:      at(ind.MACD.MACD),
		Signal:    at(ind.MACD.Signal),
		Histogram: at(ind.MACD.Histogram),
	}
}

// FormatMarkdown renders the deck index: latest signals, charts written,
// charts skipped and every narration key
func FormatMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Chart Deck: %s\n\n", r.Ticker))
	sb.WriteString(fmt.Sprintf("**Run:** %s\n", r.RunID))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n\n", r.Status()))

	sb.WriteString(formatSignalsTable(r.Snapshot))

	sb.WriteString("## Charts\n\n")
	if len(r.Artifacts) == 0 {
		sb.WriteString("*No charts written*\n\n")
	} else {
		sb.WriteString("| Chart | Kind | File |\n")
		sb.WriteString("|-------|------|------|\n")
		for _, a := range r.Artifacts {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", a.Name, a.Kind, a.Path))
		}
		sb.WriteString("\n")
	}

	if len(r.Failures) > 0 {
		sb.WriteString("## Skipped\n\n")
		sb.WriteString("| Chart | Reason |\n")
		sb.WriteString("|-------|--------|\n")
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", f.Name, cell(f.Message)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Narration\n\n")
	keys := r.Narration.Keys()
	if len(keys) == 0 {
		sb.WriteString("*No narration*\n\n")
		return sb.String()
	}
	sb.WriteString("| Key | Text |\n")
	sb.WriteString("|-----|------|\n")
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", k, cell(r.Narration[k])))
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatSignalsTable(s *Snapshot) string {
	var sb strings.Builder

	sb.WriteString("## Technical Signals\n\n")

	if s == nil {
		sb.WriteString("*Signal data not available*\n\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("As of %s, close $%.2f\n\n", s.Date.Format("2006-01-02"), s.Close))
	sb.WriteString("| Signal | Value | Status |\n")
	sb.WriteString("|--------|-------|--------|\n")
	sb.WriteString(fmt.Sprintf("| SMA 50 | %s | %s |\n", formatValue("$%.2f", s.ShortMA), formatSMAStatus(s.Close, s.ShortMA)))
	sb.WriteString(fmt.Sprintf("| SMA 200 | %s | %s |\n", formatValue("$%.2f", s.LongMA), formatSMAStatus(s.Close, s.LongMA)))
	sb.WriteString(fmt.Sprintf("| Bollinger | %s - %s | %s |\n", formatValue("$%.2f", s.Lower), formatValue("$%.2f", s.Upper), formatBandStatus(s)))
	sb.WriteString(fmt.Sprintf("| RSI | %s | %s |\n", formatValue("%.2f", s.RSI), formatRSIStatus(s.RSI)))
	sb.WriteString(fmt.Sprintf("| MACD | %s | %s |\n", formatValue("%.4f", s.MACD), formatMACDStatus(s)))
	sb.WriteString("\n")

	return sb.String()
}

func formatValue(format string, v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf(format, v)
}

// formatSMAStatus returns "above" or "below" based on price vs SMA
func formatSMAStatus(price, sma float64) string {
	if math.IsNaN(sma) {
		return "N/A"
	}
	if price >= sma {
		return "above"
	}
	return "below"
}

func formatBandStatus(s *Snapshot) string {
	switch {
	case math.IsNaN(s.Upper) || math.IsNaN(s.Lower):
		return "N/A"
	case s.Close > s.Upper:
		return "above upper band"
	case s.Close < s.Lower:
		return "below lower band"
	}
	return "inside bands"
}

func formatRSIStatus(rsi float64) string {
	switch {
	case math.IsNaN(rsi):
		return "N/A"
	case rsi >= 70:
		return "overbought"
	case rsi <= 30:
		return "oversold"
	}
	return "neutral"
}

func formatMACDStatus(s *Snapshot) string {
	if math.IsNaN(s.Histogram) {
		return "N/A"
	}
	if s.Histogram >= 0 {
		return "above signal"
	}
	return "below signal"
}

// cell flattens text for a single markdown table cell
func cell(v string) string {
	v = strings.ReplaceAll(v, "|", "\\|")
	return strings.Join(strings.Fields(v), " ")
}
