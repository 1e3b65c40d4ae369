package interfaces

import (
	"github.com/billleddy/finapp/internal/models"
)

// ChartRenderer turns a chart spec into PNG bytes
type ChartRenderer interface {
	Render(spec models.ChartSpec) ([]byte, error)
}

// MetricsRecorder observes pipeline outcomes
type MetricsRecorder interface {
	ChartRendered(kind models.ChartKind, seconds float64)
	ChartFailed(kind models.ChartKind)
	NarrationKeys(ticker string, n int)
	DeckRun(status string)
}
