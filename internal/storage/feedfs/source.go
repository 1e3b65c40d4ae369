// Package feedfs reads prices and fundamentals from a local feed directory.
//
// Prices live in <dir>/<ticker>.csv with a header row of
// Date,Open,High,Low,Close[,Adj Close],Volume. Fundamentals live in
// <dir>/<ticker>.json using the models.Fundamentals field names.
package feedfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/billleddy/finapp/internal/common"
	"github.com/billleddy/finapp/internal/interfaces"
	"github.com/billleddy/finapp/internal/models"
)

var _ interfaces.MarketDataSource = (*Source)(nil)

// ErrNotFound is returned when the feed has no file for a ticker
var ErrNotFound = errors.New("feed file not found")

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

type priceRow struct {
	Date   string  `csv:"Date"`
	Open   float64 `csv:"Open"`
	High   float64 `csv:"High"`
	Low    float64 `csv:"Low"`
	Close  float64 `csv:"Close"`
	Volume float64 `csv:"Volume"`
}

// Source reads a feed directory
type Source struct {
	dir    string
	logger *common.Logger
}

// NewSource returns a source rooted at dir
func NewSource(logger *common.Logger, dir string) *Source {
	return &Source{dir: dir, logger: logger}
}

// GetSeries loads <ticker>.csv and keeps bars between from and to
// inclusive. A zero from or to leaves that side open.
func (s *Source) GetSeries(ctx context.Context, ticker string, from, to time.Time) (*models.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.path(ticker, ".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rows []*priceRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", models.ErrMalformedInput, path, err)
	}

	bars := make([]models.PriceBar, 0, len(rows))
	for i, r := range rows {
		date, err := parseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %v", models.ErrMalformedInput, path, i+2, err)
		}
		if !from.IsZero() && date.Before(from) {
			continue
		}
		if !to.IsZero() && date.After(to) {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:   date,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: int64(math.Round(r.Volume)),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	s.logger.Debug().Str("ticker", ticker).Int("bars", len(bars)).Str("path", path).Msg("Loaded price feed")
	return models.NewSeries(ticker, bars)
}

// GetFundamentals loads <ticker>.json
func (s *Source) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.path(ticker, ".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var f models.Fundamentals
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", models.ErrMalformedInput, path, err)
	}
	if f.Ticker == "" {
		f.Ticker = ticker
	}
	return &f, nil
}

func (s *Source) path(ticker, ext string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_").Replace(ticker)
	return filepath.Join(s.dir, name+ext)
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}
