// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/billleddy/finapp/internal/common"
	"github.com/billleddy/finapp/internal/interfaces"
	"github.com/billleddy/finapp/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	if string(data) == "null" {
		*f = 0
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
	DefaultExchange  = "US"

	// DefaultNewsLimit is how many articles GetFundamentals requests
	DefaultNewsLimit = 20
	// calendarHorizon bounds the upcoming earnings lookup
	calendarHorizon = 365 * 24 * time.Hour
)

var _ interfaces.MarketDataSource = (*Client)(nil)

// Client fetches prices and fundamentals from EODHD
type Client struct {
	baseURL    string
	apiKey     string
	exchange   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithExchange sets the suffix added to bare tickers, e.g. "US" for TSLA.US
func WithExchange(exchange string) ClientOption {
	return func(c *Client) {
		c.exchange = exchange
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		exchange: DefaultExchange,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// symbol qualifies a bare ticker with the configured exchange
func (c *Client) symbol(ticker string) string {
	if strings.Contains(ticker, ".") || c.exchange == "" {
		return ticker
	}
	return ticker + "." + c.exchange
}

// GetEOD retrieves end-of-day bars, oldest first unless an order option says otherwise
func (c *Client) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) ([]models.PriceBar, error) {
	params := &interfaces.EODParams{
		Period: "d",
		Order:  "a",
	}

	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("period", params.Period)
	urlParams.Set("order", params.Order)

	if !params.From.IsZero() {
		urlParams.Set("from", params.From.Format("2006-01-02"))
	}
	if !params.To.IsZero() {
		urlParams.Set("to", params.To.Format("2006-01-02"))
	}
	if params.Limit > 0 {
		urlParams.Set("limit", strconv.Itoa(params.Limit))
	}

	path := fmt.Sprintf("/eod/%s", c.symbol(ticker))

	var bars []eodBarResponse
	if err := c.get(ctx, path, urlParams, &bars); err != nil {
		return nil, err
	}

	result := make([]models.PriceBar, 0, len(bars))
	for _, bar := range bars {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: bar date %q", models.ErrMalformedInput, bar.Date)
		}
		result = append(result, models.PriceBar{
			Date:   date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: int64(math.Round(float64(bar.Volume))),
		})
	}

	return result, nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          float64     `json:"open"`
	High          float64     `json:"high"`
	Low           float64     `json:"low"`
	Close         float64     `json:"close"`
	AdjustedClose float64     `json:"adjusted_close"`
	Volume        flexFloat64 `json:"volume"`
}

// GetSeries retrieves daily bars between from and to as a validated series
func (c *Client) GetSeries(ctx context.Context, ticker string, from, to time.Time) (*models.Series, error) {
	bars, err := c.GetEOD(ctx, ticker, interfaces.WithDateRange(from, to))
	if err != nil {
		return nil, fmt.Errorf("eod %s: %w", ticker, err)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	c.logger.Debug().Str("ticker", ticker).Int("bars", len(bars)).Msg("EODHD bars fetched")
	return models.NewSeries(ticker, bars)
}

// GetFundamentals assembles earnings, analyst ratings, insider sales and
// news. Only the fundamentals request is required; the other sections are
// logged and left empty when their endpoint fails. EODHD publishes no
// per-firm grade changes, so GradeChanges stays empty.
func (c *Client) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	path := fmt.Sprintf("/fundamentals/%s", c.symbol(ticker))

	var resp fundamentalsResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	f := &models.Fundamentals{Ticker: ticker}
	f.Earnings = resp.Earnings.rows()
	if r := resp.AnalystRatings; r != nil {
		f.Recommendations = []models.RecommendationTrend{{
			Period:     "0m",
			StrongBuy:  int(r.StrongBuy),
			Buy:        int(r.Buy),
			Hold:       int(r.Hold),
			Sell:       int(r.Sell),
			StrongSell: int(r.StrongSell),
		}}
	}

	now := c.now()
	upcoming, err := c.GetUpcomingEarnings(ctx, ticker, now, now.Add(calendarHorizon))
	if err != nil {
		c.logger.Warn().Str("ticker", ticker).Err(err).Msg("Earnings calendar unavailable")
	} else {
		f.Earnings = mergeEarnings(f.Earnings, upcoming)
	}

	insider, err := c.GetInsiderTransactions(ctx, ticker)
	if err != nil {
		c.logger.Warn().Str("ticker", ticker).Err(err).Msg("Insider transactions unavailable")
	} else {
		f.Insider = insider
	}

	news, err := c.GetNews(ctx, ticker, DefaultNewsLimit)
	if err != nil {
		c.logger.Warn().Str("ticker", ticker).Err(err).Msg("News unavailable")
	} else {
		f.News = news
	}

	c.logger.Info().
		Str("ticker", ticker).
		Int("earnings", len(f.Earnings)).
		Int("insider", len(f.Insider)).
		Int("news", len(f.News)).
		Msg("EODHD fundamentals assembled")

	return f, nil
}

// fundamentalsResponse holds the sections of /fundamentals a deck uses
type fundamentalsResponse struct {
	General struct {
		Code string `json:"Code"`
		Name string `json:"Name"`
		Type string `json:"Type"`
	} `json:"General"`
	Earnings earningsSection `json:"Earnings"`
	AnalystRatings *struct {
		Rating      string      `json:"Rating"`
		TargetPrice flexFloat64 `json:"TargetPrice"`
		StrongBuy   flexFloat64 `json:"StrongBuy"`
		Buy         flexFloat64 `json:"Buy"`
		Hold        flexFloat64 `json:"Hold"`
		Sell        flexFloat64 `json:"Sell"`
		StrongSell  flexFloat64 `json:"StrongSell"`
	} `json:"AnalystRatings"`
}

type earningsSection struct {
	History map[string]earningsHistoryEntry `json:"History"`
}

type earningsHistoryEntry struct {
	ReportDate      string   `json:"reportDate"`
	Date            string   `json:"date"`
	EPSActual       *float64 `json:"epsActual"`
	EPSEstimate     *float64 `json:"epsEstimate"`
	SurprisePercent *float64 `json:"surprisePercent"`
}

// rows converts the history map into earnings rows sorted by date
func (e earningsSection) rows() []models.EarningsRow {
	out := make([]models.EarningsRow, 0, len(e.History))
	for _, h := range e.History {
		raw := h.ReportDate
		if raw == "" {
			raw = h.Date
		}
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			continue
		}
		out = append(out, models.EarningsRow{
			Date:        date,
			EPSEstimate: h.EPSEstimate,
			ReportedEPS: h.EPSActual,
			SurprisePct: h.SurprisePercent,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// GetUpcomingEarnings retrieves scheduled earnings reports between from and to
func (c *Client) GetUpcomingEarnings(ctx context.Context, ticker string, from, to time.Time) ([]models.EarningsRow, error) {
	params := url.Values{}
	params.Set("symbols", c.symbol(ticker))
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))

	var resp calendarResponse
	if err := c.get(ctx, "/calendar/earnings", params, &resp); err != nil {
		return nil, err
	}

	rows := make([]models.EarningsRow, 0, len(resp.Earnings))
	for _, e := range resp.Earnings {
		date, err := time.Parse("2006-01-02", e.ReportDate)
		if err != nil {
			continue
		}
		rows = append(rows, models.EarningsRow{
			Date:        date,
			EPSEstimate: e.Estimate,
			ReportedEPS: e.Actual,
			SurprisePct: e.Percent,
		})
	}
	return rows, nil
}

type calendarResponse struct {
	Earnings []struct {
		Code       string   `json:"code"`
		ReportDate string   `json:"report_date"`
		Date       string   `json:"date"`
		Actual     *float64 `json:"actual"`
		Estimate   *float64 `json:"estimate"`
		Percent    *float64 `json:"percent"`
	} `json:"earnings"`
}

// mergeEarnings adds calendar rows whose date is not already in history
func mergeEarnings(history, upcoming []models.EarningsRow) []models.EarningsRow {
	seen := make(map[string]bool, len(history))
	for _, r := range history {
		seen[r.Date.Format("2006-01-02")] = true
	}
	for _, r := range upcoming {
		if !seen[r.Date.Format("2006-01-02")] {
			history = append(history, r)
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })
	return history
}

// GetInsiderTransactions retrieves insider sales, oldest first
func (c *Client) GetInsiderTransactions(ctx context.Context, ticker string) ([]models.InsiderTransaction, error) {
	params := url.Values{}
	params.Set("code", c.symbol(ticker))

	var resp []insiderResponse
	if err := c.get(ctx, "/insider-transactions", params, &resp); err != nil {
		return nil, err
	}

	out := make([]models.InsiderTransaction, 0, len(resp))
	for _, r := range resp {
		if r.AcquiredDisposed != "D" {
			continue
		}
		raw := r.TransactionDate
		if raw == "" {
			raw = r.Date
		}
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			continue
		}
		out = append(out, models.InsiderTransaction{
			StartDate: date,
			Insider:   r.OwnerName,
			Shares:    int64(math.Round(float64(r.Amount))),
			Text:      fmt.Sprintf("Sale at price %.2f per share.", float64(r.Price)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

type insiderResponse struct {
	Date             string      `json:"date"`
	OwnerName        string      `json:"ownerName"`
	TransactionDate  string      `json:"transactionDate"`
	TransactionCode  string      `json:"transactionCode"`
	Amount           flexFloat64 `json:"transactionAmount"`
	Price            flexFloat64 `json:"transactionPrice"`
	AcquiredDisposed string      `json:"transactionAcquiredDisposed"`
}

// GetNews retrieves news for a ticker, newest first
func (c *Client) GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	params := url.Values{}
	params.Set("s", c.symbol(ticker))
	params.Set("limit", strconv.Itoa(limit))

	var newsResp []newsResponse
	if err := c.get(ctx, "/news", params, &newsResp); err != nil {
		return nil, err
	}

	news := make([]models.NewsItem, 0, len(newsResp))
	for _, item := range newsResp {
		publishedAt, err := time.Parse(time.RFC3339, item.Date)
		if err != nil {
			continue
		}
		news = append(news, models.NewsItem{
			Title:       item.Title,
			Publisher:   publisher(item),
			URL:         item.Link,
			PublishedAt: publishedAt.UTC(),
		})
	}
	sort.SliceStable(news, func(i, j int) bool { return news[i].PublishedAt.After(news[j].PublishedAt) })

	return news, nil
}

type newsResponse struct {
	Date   string `json:"date"`
	Title  string `json:"title"`
	Link   string `json:"link"`
	Source string `json:"source"`
}

// publisher falls back to the article host when no source is given
func publisher(item newsResponse) string {
	if item.Source != "" {
		return item.Source
	}
	u, err := url.Parse(item.Link)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(u.Host, "www.")
}
