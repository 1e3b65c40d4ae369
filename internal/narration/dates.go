package narration

import (
	"time"

	"github.com/dustin/go-humanize"
)

// DayWithSuffix formats a date as month name and ordinal day, e.g. "May 3rd"
func DayWithSuffix(t time.Time) string {
	return t.Format("January") + " " + humanize.Ordinal(t.Day())
}

// ShortDate formats a date as MM/DD/YY
func ShortDate(t time.Time) string {
	return t.Format("01/02/06")
}

// HeadlineTimestamp formats a publish time as "HH:MM MM/DD/YYYY" in GMT
func HeadlineTimestamp(t time.Time) string {
	return t.UTC().Format("15:04 01/02/2006")
}
