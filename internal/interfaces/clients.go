// Package interfaces defines service contracts for finapp
package interfaces

import (
	"context"
	"time"

	"github.com/billleddy/finapp/internal/models"
)

// PriceSource supplies daily price history for a ticker
type PriceSource interface {
	// GetSeries returns bars between from and to inclusive, oldest first
	GetSeries(ctx context.Context, ticker string, from, to time.Time) (*models.Series, error)
}

// FundamentalsSource supplies non-price company data
type FundamentalsSource interface {
	// GetFundamentals returns earnings, grade changes, insider activity,
	// recommendation trends and news. Missing sections are left empty.
	GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)
}

// MarketDataSource is a source of both prices and fundamentals
type MarketDataSource interface {
	PriceSource
	FundamentalsSource
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From   time.Time
	To     time.Time
	Period string // d=daily, w=weekly, m=monthly
	Order  string // a=ascending, d=descending
	Limit  int
}

// WithDateRange sets the date range for EOD query
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}

// WithPeriod sets the period for EOD query
func WithPeriod(period string) EODOption {
	return func(p *EODParams) {
		p.Period = period
	}
}

// WithLimit sets the limit for EOD query
func WithLimit(limit int) EODOption {
	return func(p *EODParams) {
		p.Limit = limit
	}
}
