package tableview

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/pegasus-infra/pegasusctl/internal/view/dataview"
	"github.com/pegasus-infra/pegasusctl/internal/view/detail"
)

const staticMaxCellWidth = 40

// renderStatic prints all rows as a plain aligned table for pipes and files.
// Search, sort, and pagination do not apply here; the command flags already
// shaped the row set.
func renderStatic(out io.Writer, rows []dataview.Row, columns []dataview.Column, cfg config) error {
	if cfg.title != "" {
		if _, err := fmt.Fprintln(out, cfg.title); err != nil {
			return err
		}
	}

	if len(columns) == 0 {
		_, err := fmt.Fprintf(out, "(%d lignes)\n", len(rows))
		return err
	}

	cells := make([][]string, len(rows))
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col.Label)
	}

	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		for j, col := range columns {
			text := detail.FormatValue(col.Value(row))
			if col.Formatter != nil {
				text = col.Formatter(col.Value(row), row)
			}
			// values may carry escape sequences when formatters style them
			text = ansi.Strip(strings.ReplaceAll(text, "\n", " "))
			text = runewidth.Truncate(text, staticMaxCellWidth, "…")
			cells[i][j] = text
			if w := runewidth.StringWidth(text); w > widths[j] {
				widths[j] = w
			}
		}
	}

	writeLine := func(fields []string) error {
		parts := make([]string, len(fields))
		for i, field := range fields {
			parts[i] = runewidth.FillRight(field, widths[i])
		}
		_, err := fmt.Fprintln(out, strings.TrimRight(strings.Join(parts, "  "), " "))
		return err
	}

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Label
	}
	if err := writeLine(headers); err != nil {
		return err
	}

	rules := make([]string, len(columns))
	for i := range columns {
		rules[i] = strings.Repeat("-", widths[i])
	}
	if err := writeLine(rules); err != nil {
		return err
	}

	for _, line := range cells {
		if err := writeLine(line); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(out, "(%d lignes)\n", len(rows))
	return err
}
