// Package chart maps externally aggregated category counts into generic
// chart data and renders them as horizontal bars for the dashboard.
// No aggregation happens client side.
package chart

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/pegasus-infra/pegasusctl/internal/pegasus"
)

// Datum is one bar: a label, its count, and optional metadata carried
// through to selection handlers.
type Datum struct {
	Label string
	Value int
	Meta  map[string]string
}

// FromAggregates converts backend aggregates into chart data, tagging each
// datum with its source category for click-through filtering.
func FromAggregates(aggregates []pegasus.Aggregate) []Datum {
	data := make([]Datum, 0, len(aggregates))
	for _, agg := range aggregates {
		label := agg.Category
		if strings.TrimSpace(label) == "" {
			label = "(non renseigné)"
		}
		data = append(data, Datum{
			Label: label,
			Value: agg.Count,
			Meta:  map[string]string{"category": agg.Category},
		})
	}
	return data
}

// FormatPercentLabel renders "<value> • <pct>%" with one decimal, or the
// bare value when the total is zero.
func FormatPercentLabel(value, total int) string {
	if total <= 0 {
		return fmt.Sprintf("%d", value)
	}
	pct := float64(value) * 100 / float64(total)
	return fmt.Sprintf("%d • %.1f%%", value, pct)
}

// Total sums the datum values.
func Total(data []Datum) int {
	total := 0
	for _, d := range data {
		total += d.Value
	}
	return total
}

// BarStyles holds the lipgloss styles used by Render.
type BarStyles struct {
	Label lipgloss.Style
	Bar   lipgloss.Style
	Note  lipgloss.Style
}

// Render draws one horizontal bar per datum, scaled to width, with the
// percentage label to the right.
func Render(data []Datum, width int, styles BarStyles) string {
	if len(data) == 0 {
		return ""
	}

	maxValue := 0
	labelWidth := 0
	for _, d := range data {
		if d.Value > maxValue {
			maxValue = d.Value
		}
		if w := runewidth.StringWidth(d.Label); w > labelWidth {
			labelWidth = w
		}
	}

	barWidth := width - labelWidth - 20
	if barWidth < 8 {
		barWidth = 8
	}

	total := Total(data)
	var b strings.Builder
	for i, d := range data {
		length := 0
		if maxValue > 0 {
			length = d.Value * barWidth / maxValue
		}
		if length == 0 && d.Value > 0 {
			length = 1
		}

		label := runewidth.FillRight(runewidth.Truncate(d.Label, labelWidth, "…"), labelWidth)
		b.WriteString(styles.Label.Render(label))
		b.WriteString(" ")
		b.WriteString(styles.Bar.Render(strings.Repeat("█", length)))
		b.WriteString(" ")
		b.WriteString(styles.Note.Render(FormatPercentLabel(d.Value, total)))
		if i < len(data)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
