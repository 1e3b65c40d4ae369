package signals

import (
	"fmt"

	"github.com/billleddy/finapp/internal/models"
)

// IndicatorParams sets the lookbacks used for a deck
type IndicatorParams struct {
	ShortMA         int
	LongMA          int
	BollingerWindow int
	BollingerK      float64
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
}

// DefaultIndicatorParams returns 50/200 moving averages, 20/2 Bollinger,
// 14 RSI and 12/26/9 MACD.
func DefaultIndicatorParams() IndicatorParams {
	return IndicatorParams{
		ShortMA:         50,
		LongMA:          200,
		BollingerWindow: DefaultBollingerWindow,
		BollingerK:      DefaultBollingerK,
		RSIPeriod:       DefaultRSIPeriod,
		MACDFast:        DefaultMACDFast,
		MACDSlow:        DefaultMACDSlow,
		MACDSignal:      DefaultMACDSignal,
	}
}

// Computer computes the indicator bundle for a series
type Computer struct {
	params IndicatorParams
}

// NewComputer creates a computer using params
func NewComputer(params IndicatorParams) *Computer {
	return &Computer{params: params}
}

// Params returns the computer's lookbacks
func (c *Computer) Params() IndicatorParams {
	return c.params
}

// Compute calculates every indicator over the full series. Windows are
// applied afterwards so long lookbacks stay defined inside short windows.
func (c *Computer) Compute(series *models.Series) (*models.Indicators, error) {
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("%w: compute over empty series", models.ErrMalformedInput)
	}
	p := c.params

	ma50, err := SMA(series, p.ShortMA)
	if err != nil {
		return nil, fmt.Errorf("short moving average: %w", err)
	}
	ma200, err := SMA(series, p.LongMA)
	if err != nil {
		return nil, fmt.Errorf("long moving average: %w", err)
	}
	bands, err := Bollinger(series, p.BollingerWindow, p.BollingerK)
	if err != nil {
		return nil, fmt.Errorf("bollinger bands: %w", err)
	}
	rsi, err := RSI(series, p.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	macd, err := MACD(series, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}

	ma50.Name = fmt.Sprintf("%d-day MA", p.ShortMA)
	ma200.Name = fmt.Sprintf("%d-day MA", p.LongMA)
	rsi.Name = "RSI"

	return &models.Indicators{
		MA50:      ma50,
		MA200:     ma200,
		Bollinger: bands,
		RSI:       rsi,
		MACD:      macd,
	}, nil
}

// HistoryShortfall reports which indicators lack enough rows to produce
// any defined value, for logging.
func (c *Computer) HistoryShortfall(series *models.Series) []string {
	p := c.params
	n := series.Len()
	var short []string
	if n < p.ShortMA {
		short = append(short, "short_ma")
	}
	if n < p.LongMA {
		short = append(short, "long_ma")
	}
	if n < p.BollingerWindow {
		short = append(short, "bollinger")
	}
	if n <= p.RSIPeriod {
		short = append(short, "rsi")
	}
	if n < p.MACDSlow+p.MACDSignal-1 {
		short = append(short, "macd")
	}
	return short
}
