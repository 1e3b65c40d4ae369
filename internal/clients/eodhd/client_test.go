package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/billleddy/finapp/internal/interfaces"
)

func newTestServer(t *testing.T, routes map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") != "test-key" {
			t.Errorf("missing api_token on %s", r.URL.Path)
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetSeries_SortsAscending(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/eod/TSLA.US" {
			t.Errorf("path = %s, want /eod/TSLA.US", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{"from": q.Get("from"), "to": q.Get("to"), "order": q.Get("order")}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"date": "2024-01-03", "open": 11, "high": 12, "low": 10, "close": 11.5, "adjusted_close": 11.5, "volume": 2000},
			{"date": "2024-01-02", "open": 10, "high": 11, "low": 9, "close": 10.5, "adjusted_close": 10.5, "volume": "1000"},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	series, err := client.GetSeries(context.Background(), "TSLA", from, to)
	if err != nil {
		t.Fatalf("GetSeries failed: %v", err)
	}

	if series.Len() != 2 {
		t.Fatalf("Len = %d, want 2", series.Len())
	}
	if series.First().Close != 10.5 {
		t.Errorf("First().Close = %.2f, want 10.5", series.First().Close)
	}
	if series.First().Volume != 1000 {
		t.Errorf("First().Volume = %d, want 1000", series.First().Volume)
	}
	if gotQuery["from"] != "2024-01-01" || gotQuery["to"] != "2024-01-31" {
		t.Errorf("date range = %v", gotQuery)
	}
	if gotQuery["order"] != "a" {
		t.Errorf("order = %s, want a", gotQuery["order"])
	}
}

func TestGetEOD_Options(t *testing.T) {
	var limit, period string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit = r.URL.Query().Get("limit")
		period = r.URL.Query().Get("period")
		json.NewEncoder(w).Encode([]map[string]interface{}{})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	bars, err := client.GetEOD(context.Background(), "BHP.AU", interfaces.WithLimit(5), interfaces.WithPeriod("w"))
	if err != nil {
		t.Fatalf("GetEOD failed: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("len(bars) = %d, want 0", len(bars))
	}
	if limit != "5" || period != "w" {
		t.Errorf("limit=%s period=%s", limit, period)
	}
}

func TestSymbol(t *testing.T) {
	tests := []struct {
		exchange string
		ticker   string
		want     string
	}{
		{"US", "TSLA", "TSLA.US"},
		{"US", "BHP.AU", "BHP.AU"},
		{"", "TSLA", "TSLA"},
	}
	for _, tt := range tests {
		c := NewClient("k", WithExchange(tt.exchange))
		if got := c.symbol(tt.ticker); got != tt.want {
			t.Errorf("symbol(%q) with exchange %q = %q, want %q", tt.ticker, tt.exchange, got, tt.want)
		}
	}
}

func TestGetFundamentals_AssemblesSections(t *testing.T) {
	srv := newTestServer(t, map[string]interface{}{
		"/fundamentals/TSLA.US": map[string]interface{}{
			"General": map[string]interface{}{"Code": "TSLA", "Name": "Tesla Inc", "Type": "Common Stock"},
			"Earnings": map[string]interface{}{
				"History": map[string]interface{}{
					"2024-03-31": map[string]interface{}{
						"reportDate": "2024-04-23", "date": "2024-03-31",
						"epsActual": 0.45, "epsEstimate": 0.51, "surprisePercent": -11.76,
					},
					"2023-12-31": map[string]interface{}{
						"reportDate": "2024-01-24", "date": "2023-12-31",
						"epsActual": 0.71, "epsEstimate": 0.74, "surprisePercent": -4.05,
					},
				},
			},
			"AnalystRatings": map[string]interface{}{
				"Rating": "Buy", "TargetPrice": 190.5,
				"StrongBuy": 8, "Buy": 12, "Hold": 5, "Sell": 1, "StrongSell": "0",
			},
		},
		"/calendar/earnings": map[string]interface{}{
			"type": "Earnings",
			"earnings": []map[string]interface{}{
				{"code": "TSLA.US", "report_date": "2024-07-23", "date": "2024-06-30", "actual": nil, "estimate": 0.62},
				{"code": "TSLA.US", "report_date": "2024-04-23", "date": "2024-03-31", "actual": 0.45, "estimate": 0.51},
			},
		},
		"/insider-transactions": []map[string]interface{}{
			{"date": "2024-03-02", "ownerName": "Jane Roe", "transactionDate": "2024-03-01",
				"transactionCode": "S", "transactionAmount": 5000, "transactionPrice": 180.25, "transactionAcquiredDisposed": "D"},
			{"date": "2024-02-02", "ownerName": "John Doe", "transactionDate": "2024-02-01",
				"transactionCode": "P", "transactionAmount": 100, "transactionPrice": 190, "transactionAcquiredDisposed": "A"},
		},
		"/news": []map[string]interface{}{
			{"date": "2024-04-01T09:00:00+00:00", "title": "Older", "link": "https://www.example.com/a"},
			{"date": "2024-04-02T14:30:00+00:00", "title": "Newer", "link": "https://example.com/b", "source": "Wire"},
		},
	})

	client := NewClient("test-key", WithBaseURL(srv.URL))
	client.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	f, err := client.GetFundamentals(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("GetFundamentals failed: %v", err)
	}

	if len(f.Earnings) != 3 {
		t.Fatalf("len(Earnings) = %d, want 3", len(f.Earnings))
	}
	last := f.Earnings[2]
	if last.Reported() {
		t.Error("upcoming row should not be reported")
	}
	if last.EPSEstimate == nil || *last.EPSEstimate != 0.62 {
		t.Errorf("upcoming estimate = %v, want 0.62", last.EPSEstimate)
	}
	if !f.Earnings[0].Date.Before(f.Earnings[1].Date) {
		t.Error("earnings should be sorted ascending")
	}

	if len(f.Recommendations) != 1 {
		t.Fatalf("len(Recommendations) = %d, want 1", len(f.Recommendations))
	}
	rec := f.Recommendations[0]
	if rec.Period != "0m" || rec.StrongBuy != 8 || rec.Buy != 12 || rec.StrongSell != 0 {
		t.Errorf("recommendation = %+v", rec)
	}

	if len(f.Insider) != 1 {
		t.Fatalf("len(Insider) = %d, want 1 sale", len(f.Insider))
	}
	if f.Insider[0].Shares != 5000 || f.Insider[0].Insider != "Jane Roe" {
		t.Errorf("insider = %+v", f.Insider[0])
	}

	if len(f.News) != 2 {
		t.Fatalf("len(News) = %d, want 2", len(f.News))
	}
	if f.News[0].Title != "Newer" || f.News[0].Publisher != "Wire" {
		t.Errorf("News[0] = %+v", f.News[0])
	}
	if f.News[1].Publisher != "example.com" {
		t.Errorf("News[1].Publisher = %s, want example.com", f.News[1].Publisher)
	}
	if len(f.GradeChanges) != 0 {
		t.Errorf("GradeChanges should be empty, got %d", len(f.GradeChanges))
	}
}

func TestGetFundamentals_OptionalSectionsFail(t *testing.T) {
	srv := newTestServer(t, map[string]interface{}{
		"/fundamentals/TSLA.US": map[string]interface{}{"General": map[string]interface{}{"Code": "TSLA"}},
	})

	client := NewClient("test-key", WithBaseURL(srv.URL))
	f, err := client.GetFundamentals(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("GetFundamentals failed: %v", err)
	}
	if len(f.Earnings) != 0 || len(f.News) != 0 || len(f.Insider) != 0 || len(f.Recommendations) != 0 {
		t.Errorf("expected empty sections, got %+v", f)
	}
}

func TestGet_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.GetFundamentals(context.Background(), "TSLA")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "/fundamentals/TSLA.US" {
		t.Errorf("Endpoint = %s", apiErr.Endpoint)
	}
}

func TestGet_CancelledContext(t *testing.T) {
	client := NewClient("test-key", WithBaseURL("http://127.0.0.1:0"), WithRateLimit(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.GetSeries(ctx, "TSLA", time.Time{}, time.Time{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestFlexFloat64(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{`1.5`, 1.5},
		{`"2.25"`, 2.25},
		{`""`, 0},
		{`"N/A"`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		var f flexFloat64
		if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
			t.Errorf("Unmarshal(%s) error: %v", tt.input, err)
			continue
		}
		if float64(f) != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, float64(f), tt.want)
		}
	}
}
