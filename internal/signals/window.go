package signals

import (
	"fmt"
	"strconv"

	"github.com/billleddy/finapp/internal/models"
)

// Period is a named display window counted in rows from the end of a
// series. Rows == 0 selects the full range.
type Period struct {
	Label string
	Rows  int
}

var (
	Period5Day  = Period{Label: "5 Day", Rows: 5}
	Period90Day = Period{Label: "90 Day", Rows: 90}
	Period5Year = Period{Label: "5 Year", Rows: 0}
)

// DaysPeriod returns a numeric window labelled by its row count, e.g. "90"
func DaysPeriod(rows int) Period {
	return Period{Label: strconv.Itoa(rows), Rows: rows}
}

// ParsePeriod resolves a named ("5 Day", "90 Day", "5 Year") or numeric ("365") label
func ParsePeriod(label string) (Period, error) {
	for _, p := range []Period{Period5Day, Period90Day, Period5Year} {
		if p.Label == label {
			return p, nil
		}
	}
	n, err := strconv.Atoi(label)
	if err != nil || n < 1 {
		return Period{}, fmt.Errorf("%w: unknown period %q", models.ErrMalformedInput, label)
	}
	return DaysPeriod(n), nil
}

// IsFull reports whether the period covers the full range
func (p Period) IsFull() bool {
	return p.Rows == 0
}

// Apply returns the rows of series selected by the period
func (p Period) Apply(series *models.Series) (*models.Series, error) {
	if p.IsFull() {
		return series, nil
	}
	return Window(series, p.Rows)
}

// ApplyDerived returns the positions of d selected by the period
func (p Period) ApplyDerived(d models.DerivedSeries) models.DerivedSeries {
	if p.IsFull() {
		return d
	}
	return WindowDerived(d, p.Rows)
}

// Window returns the last min(n, len) rows of series. n < 1 is malformed.
func Window(series *models.Series, n int) (*models.Series, error) {
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("%w: window over empty series", models.ErrMalformedInput)
	}
	return series.Tail(n)
}

// WindowDerived returns the last min(n, len) positions of d, aligned with
// Window over the series d was derived from.
func WindowDerived(d models.DerivedSeries, n int) models.DerivedSeries {
	if n < 1 {
		return models.DerivedSeries{Name: d.Name}
	}
	return d.Tail(n)
}
