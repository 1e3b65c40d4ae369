// Package narration derives spoken slide text from fundamentals and news
package narration

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/billleddy/finapp/internal/common"
	"github.com/billleddy/finapp/internal/models"
)

// Narration keys consumed by presentation assembly
const (
	KeyEPS       = "EPS"
	KeyNextEPS   = "next_EPS"
	KeyHeadlines = "Headlines"
	KeySummary   = "summary"
)

// DefaultMaxHeadlines caps the headlines narrated per deck
const DefaultMaxHeadlines = 8

var (
	// ErrNoUpcomingEarnings means no future unreported earnings date has an estimate
	ErrNoUpcomingEarnings = fmt.Errorf("%w: no upcoming earnings", models.ErrMissingFundamentals)
	// ErrNoHeadlines means the news feed was empty
	ErrNoHeadlines = fmt.Errorf("%w: no headlines", models.ErrMissingFundamentals)
)

// HeadlineKey returns the key for the i-th headline, counting from 1
func HeadlineKey(i int) string {
	return fmt.Sprintf("Headline%d", i)
}

// Earnings narrates the next scheduled earnings date after now. Rows that
// have reported or lack an estimate are ignored.
func Earnings(rows []models.EarningsRow, now time.Time) (models.Narration, error) {
	n := models.NewNarration()

	var next *models.EarningsRow
	for i := range rows {
		r := &rows[i]
		if r.Reported() || r.EPSEstimate == nil || !r.Date.After(now) {
			continue
		}
		if next == nil || r.Date.Before(next.Date) {
			next = r
		}
	}
	if next == nil {
		return n, ErrNoUpcomingEarnings
	}

	n.Set(KeyEPS, fmt.Sprintf("Next earnings will report on %s with a current estimate of %s. ",
		DayWithSuffix(next.Date), DollarsToWords(*next.EPSEstimate)))
	n.Set(KeyNextEPS, "Next: "+ShortDate(next.Date))
	return n, nil
}

// Headlines narrates up to max of the most recent news items. Each item gets
// its own key and all of them are joined, separated by half-second pauses,
// under the Headlines key.
func Headlines(items []models.NewsItem, max int) (models.Narration, error) {
	n := models.NewNarration()
	if len(items) == 0 {
		return n, ErrNoHeadlines
	}
	if max <= 0 {
		max = DefaultMaxHeadlines
	}

	sorted := make([]models.NewsItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PublishedAt.After(sorted[j].PublishedAt) })
	if len(sorted) > max {
		sorted = sorted[:max]
	}

	lines := make([]string, 0, len(sorted))
	for i, item := range sorted {
		line := fmt.Sprintf("'%s' - %s @ %s GMT ", item.Title, item.Publisher, HeadlineTimestamp(item.PublishedAt))
		n.Set(HeadlineKey(i+1), line)
		lines = append(lines, line)
	}
	n.Set(KeyHeadlines, strings.Join(lines, "\n"+models.PauseMarker("0.5")+"\n"))
	return n, nil
}

// Summary narrates the closing question for company
func Summary(company string) models.Narration {
	n := models.NewNarration()
	n.Set(KeySummary, fmt.Sprintf("So is it time to buy or hold or sell %s?\n%s\nOr maybe just run away?",
		company, models.PauseMarker("0.75")))
	return n
}

// Mapper assembles a deck's narration from every source
type Mapper struct {
	maxHeadlines int
	logger       *common.Logger
}

// NewMapper creates a mapper. maxHeadlines <= 0 uses DefaultMaxHeadlines.
func NewMapper(maxHeadlines int, logger *common.Logger) *Mapper {
	if maxHeadlines <= 0 {
		maxHeadlines = DefaultMaxHeadlines
	}
	return &Mapper{maxHeadlines: maxHeadlines, logger: logger}
}

// Build merges earnings, headline and summary narration. Missing records
// leave their keys out and are logged; they never fail the build.
func (m *Mapper) Build(company string, f *models.Fundamentals, now time.Time) models.Narration {
	out := models.NewNarration()
	if f == nil {
		f = &models.Fundamentals{}
	}

	if n, err := Earnings(f.Earnings, now); err != nil {
		m.skip(f.Ticker, KeyEPS, err)
	} else {
		out.Merge(n)
	}

	if n, err := Headlines(f.News, m.maxHeadlines); err != nil {
		m.skip(f.Ticker, KeyHeadlines, err)
	} else {
		out.Merge(n)
	}

	if company == "" {
		company = f.Ticker
	}
	out.Merge(Summary(company))

	m.logger.Debug().
		Str("ticker", f.Ticker).
		Int("keys", len(out)).
		Msg("Narration built")
	return out
}

func (m *Mapper) skip(ticker, key string, err error) {
	if errors.Is(err, models.ErrMissingFundamentals) {
		m.logger.Warn().Str("ticker", ticker).Str("key", key).Err(err).Msg("Narration key skipped")
		return
	}
	m.logger.Error().Str("ticker", ticker).Str("key", key).Err(err).Msg("Narration key failed")
}
