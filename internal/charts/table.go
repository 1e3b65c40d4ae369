package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/billleddy/finapp/internal/models"
)

const (
	tableMargin     = 20
	tableMaxRowH    = 34
	tableTitleSize  = 14
	tableCellSize   = 10
	tableCellIndent = 6
)

// renderTable draws a titled grid of cells directly on a PNG canvas
func (r *Renderer) renderTable(spec models.ChartSpec) ([]byte, error) {
	tbl := spec.Table
	if tbl == nil || len(tbl.Columns) == 0 {
		return nil, fmt.Errorf("%w: table has no columns", models.ErrMalformedInput)
	}
	if len(tbl.Rows) == 0 {
		return nil, fmt.Errorf("%w: table has no rows", models.ErrMissingFundamentals)
	}

	rr, err := chart.PNG(r.width, r.height)
	if err != nil {
		return nil, fmt.Errorf("create canvas: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	rr.SetFont(font)

	t := r.theme
	rr.SetFillColor(color(t.Background))
	rr.SetStrokeColor(color(t.Background))
	fillRect(rr, 0, 0, r.width, r.height)

	y := tableMargin
	if spec.Title != "" {
		rr.SetFontSize(tableTitleSize)
		rr.SetFontColor(color(t.Text))
		tb := rr.MeasureText(spec.Title)
		y += tb.Height()
		rr.Text(spec.Title, (r.width-tb.Width())/2, y)
		y += tableMargin
	}

	cols := len(tbl.Columns)
	colW := (r.width - 2*tableMargin) / cols
	rowH := (r.height - y - tableMargin) / (len(tbl.Rows) + 1)
	if rowH > tableMaxRowH {
		rowH = tableMaxRowH
	}
	if rowH < 1 || colW < 1 {
		return nil, fmt.Errorf("table of %dx%d does not fit %dx%d", len(tbl.Rows)+1, cols, r.width, r.height)
	}

	rr.SetFontSize(tableCellSize)
	rr.SetStrokeWidth(1)
	for c, name := range tbl.Columns {
		x := tableMargin + c*colW
		r.drawCell(rr, x, y, colW, rowH, name, color(t.TableHeader), color(t.TableHeaderText))
	}
	y += rowH

	for i, row := range tbl.Rows {
		for c := 0; c < cols; c++ {
			text := ""
			if c < len(row) {
				text = row[c]
			}
			fg := color(t.Text)
			if hex := cellColor(tbl, i, c); hex != "" {
				fg = color(hex)
			}
			r.drawCell(rr, tableMargin+c*colW, y, colW, rowH, text, color(t.TableCell), fg)
		}
		y += rowH
	}

	var buf bytes.Buffer
	if err := rr.Save(&buf); err != nil {
		return nil, fmt.Errorf("encode table: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawCell(rr chart.Renderer, x, y, w, h int, text string, fill, fg drawing.Color) {
	rr.SetFillColor(fill)
	rr.SetStrokeColor(color(r.theme.TableBorder))
	fillRect(rr, x, y, x+w, y+h)

	text = fitText(rr, text, w-2*tableCellIndent)
	if text == "" {
		return
	}
	tb := rr.MeasureText(text)
	rr.SetFontColor(fg)
	rr.Text(text, x+tableCellIndent, y+(h+tb.Height())/2)
}

// fitText trims text with an ellipsis until it fits width
func fitText(rr chart.Renderer, text string, width int) string {
	if text == "" || rr.MeasureText(text).Width() <= width {
		return text
	}
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		candidate := string(runes[:n]) + "…"
		if rr.MeasureText(candidate).Width() <= width {
			return candidate
		}
	}
	return ""
}

func cellColor(tbl *models.Table, row, col int) string {
	if row >= len(tbl.CellColors) || col >= len(tbl.CellColors[row]) {
		return ""
	}
	return tbl.CellColors[row][col]
}
