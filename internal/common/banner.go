package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner writes the startup banner and logs the effective settings
func PrintBanner(w io.Writer, config *Config, logger *Logger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 60) + banner.ColorReset

	art := []string{
		`  _____ _                         `,
		` |  ___(_)_ __   __ _ _ __  _ __  `,
		` | |_  | | '_ \ / _' | '_ \| '_ \ `,
		` |  _| | | | | | (_| | |_) | |_) |`,
		` |_|   |_|_| |_|\__,_| .__/| .__/ `,
		`                     |_|   |_|    `,
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(w, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s  Equity Research Charts & Narration%s\n\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	kvLines := [][2]string{
		{"Version", GetFullVersion()},
		{"Environment", config.Environment},
		{"Data Source", config.Data.Source},
		{"Output", config.Output.Dir},
		{"Theme", config.Output.Theme},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-14s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)

	logger.Info().
		Str("version", Version).
		Str("environment", config.Environment).
		Str("data_source", config.Data.Source).
		Str("output_dir", config.Output.Dir).
		Str("theme", config.Output.Theme).
		Msg("Application started")
}
