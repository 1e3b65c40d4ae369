package models

import "time"

// Fundamentals aggregates the non-price records a deck draws on
type Fundamentals struct {
	Ticker          string                `json:"ticker"`
	Earnings        []EarningsRow         `json:"earnings,omitempty"`
	GradeChanges    []GradeChange         `json:"grade_changes,omitempty"`
	Insider         []InsiderTransaction  `json:"insider,omitempty"`
	Recommendations []RecommendationTrend `json:"recommendations,omitempty"`
	News            []NewsItem            `json:"news,omitempty"`
}

// EarningsRow is one scheduled or reported earnings date.
// A nil ReportedEPS means the date has not reported yet.
type EarningsRow struct {
	Date        time.Time `json:"date"`
	EPSEstimate *float64  `json:"eps_estimate,omitempty"`
	ReportedEPS *float64  `json:"reported_eps,omitempty"`
	SurprisePct *float64  `json:"surprise_pct,omitempty"`
}

// Reported returns true once actual EPS is known
func (r EarningsRow) Reported() bool {
	return r.ReportedEPS != nil
}

// GradeChange is an analyst upgrade or downgrade
type GradeChange struct {
	Date      time.Time `json:"date"`
	Firm      string    `json:"firm"`
	ToGrade   string    `json:"to_grade"`
	FromGrade string    `json:"from_grade"`
	Action    string    `json:"action"` // up, down, main, init, reit
}

// InsiderTransaction is a reported insider trade
type InsiderTransaction struct {
	StartDate time.Time `json:"start_date"`
	Insider   string    `json:"insider"`
	Shares    int64     `json:"shares"`
	Text      string    `json:"text,omitempty"`
}

// RecommendationTrend counts analyst ratings for a relative month.
// Period is "0m" for the current month, "-1m" for the previous one.
type RecommendationTrend struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strong_buy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strong_sell"`
}

// NewsItem is a single headline
type NewsItem struct {
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
