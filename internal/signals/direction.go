package signals

import "github.com/billleddy/finapp/internal/models"

// Direction is the sign of a day-over-day close change
type Direction int

const (
	Down Direction = iota
	Up
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Directions compares each row's Close with the previous row's. The result
// has len-1 entries; entry j describes row j+1. An unchanged close counts as Up.
func Directions(series *models.Series) []Direction {
	if series == nil || series.Len() < 2 {
		return []Direction{}
	}
	out := make([]Direction, series.Len()-1)
	for i := 1; i < series.Len(); i++ {
		if series.Bar(i).Close >= series.Bar(i-1).Close {
			out[i-1] = Up
		} else {
			out[i-1] = Down
		}
	}
	return out
}
