package chart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pegasus-infra/pegasusctl/internal/pegasus"
)

func TestFromAggregates(t *testing.T) {
	data := FromAggregates([]pegasus.Aggregate{
		{Category: "Nord", Count: 12},
		{Category: "", Count: 3},
	})

	require.Len(t, data, 2)
	require.Equal(t, "Nord", data[0].Label)
	require.Equal(t, 12, data[0].Value)
	require.Equal(t, "Nord", data[0].Meta["category"])

	// Blank categories get a visible label but keep the raw category in Meta.
	require.Equal(t, "(non renseigné)", data[1].Label)
	require.Equal(t, "", data[1].Meta["category"])
}

func TestFormatPercentLabel(t *testing.T) {
	tests := []struct {
		name         string
		value, total int
		want         string
	}{
		{"simple ratio", 25, 100, "25 • 25.0%"},
		{"rounds to one decimal", 1, 3, "1 • 33.3%"},
		{"full share", 7, 7, "7 • 100.0%"},
		{"zero total drops the percent", 4, 0, "4"},
		{"zero value with total", 0, 10, "0 • 0.0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPercentLabel(tt.value, tt.total); got != tt.want {
				t.Fatalf("FormatPercentLabel(%d, %d) = %q, want %q", tt.value, tt.total, got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	data := []Datum{
		{Label: "Nord", Value: 10},
		{Label: "Sud", Value: 5},
		{Label: "Est", Value: 0},
	}

	out := Render(data, 60, BarStyles{})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Nord")
	require.Contains(t, lines[0], "10 • 66.7%")

	// The largest value owns the longest bar, zero values draw none.
	longest := strings.Count(lines[0], "█")
	require.Greater(t, longest, strings.Count(lines[1], "█"))
	require.Zero(t, strings.Count(lines[2], "█"))
}

func TestRenderEmpty(t *testing.T) {
	require.Empty(t, Render(nil, 80, BarStyles{}))
}
