// Package charts renders chart specs to PNG images
package charts

import (
	"fmt"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Theme is the palette a deck is drawn with. Colours are hex strings.
type Theme struct {
	Name string

	Background string
	Text       string
	Axis       string
	Grid       string

	Increasing string
	Decreasing string

	UpperBand  string
	MiddleBand string
	LowerBand  string

	ShortMA string
	LongMA  string
	Price   string

	RSI        string
	Overbought string
	Oversold   string

	MACD      string
	Signal    string
	Histogram string

	TableHeader     string
	TableHeaderText string
	TableCell       string
	TableBorder     string

	Positive string
	Negative string
	Caution  string
}

// DarkTheme is the default deck palette: black background, lavender text
func DarkTheme() Theme {
	return Theme{
		Name:            "dark",
		Background:      "000000",
		Text:            "e6e6fa",
		Axis:            "e6e6fa",
		Grid:            "2a2a3a",
		Increasing:      "7fff00",
		Decreasing:      "ff0000",
		UpperBand:       "ff00ff",
		MiddleBand:      "ffffff",
		LowerBand:       "adff2f",
		ShortMA:         "636efa",
		LongMA:          "ef553b",
		Price:           "00cc96",
		RSI:             "00ffff",
		Overbought:      "ff00ff",
		Oversold:        "7fff00",
		MACD:            "7fff00",
		Signal:          "ff00ff",
		Histogram:       "0000ff",
		TableHeader:     "1c1c2e",
		TableHeaderText: "e6e6fa",
		TableCell:       "000000",
		TableBorder:     "444455",
		Positive:        "7fff7f",
		Negative:        "ff0000",
		Caution:         "ffff00",
	}
}

// LightTheme is a white-background palette
func LightTheme() Theme {
	return Theme{
		Name:            "light",
		Background:      "ffffff",
		Text:            "2a3f5f",
		Axis:            "2a3f5f",
		Grid:            "e5ecf6",
		Increasing:      "3d9970",
		Decreasing:      "ff4136",
		UpperBand:       "ff0000",
		MiddleBand:      "000000",
		LowerBand:       "0000ff",
		ShortMA:         "636efa",
		LongMA:          "ef553b",
		Price:           "00cc96",
		RSI:             "1f77b4",
		Overbought:      "d62728",
		Oversold:        "2ca02c",
		MACD:            "1f77b4",
		Signal:          "ff7f0e",
		Histogram:       "7f7f7f",
		TableHeader:     "c8d4e3",
		TableHeaderText: "2a3f5f",
		TableCell:       "ffffff",
		TableBorder:     "c8d4e3",
		Positive:        "2ca02c",
		Negative:        "d62728",
		Caution:         "b8860b",
	}
}

// ThemeByName resolves "dark" or "light"; an empty name selects dark.
func ThemeByName(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dark":
		return DarkTheme(), nil
	case "light":
		return LightTheme(), nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q", name)
	}
}

// color converts a hex string, with or without a leading '#', to a drawing colour
func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
