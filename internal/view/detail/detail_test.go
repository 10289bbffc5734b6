package detail

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pegasus-infra/pegasusctl/internal/view/dataview"
)

func TestProjectSplitsPrimaryAndRemaining(t *testing.T) {
	row := dataview.Row{
		"b":        "second",
		"a":        "first",
		"c":        "extra",
		"module10": "m10",
		"module2":  "m2",
	}
	columns := []dataview.Column{
		{Key: "b", Label: "B Field"},
		{Key: "a", Label: "A Field"},
		{Key: "missing", Label: "Absent"},
	}

	p := Project(row, columns)

	// Primary follows column order, absent keys are skipped.
	require.Len(t, p.Primary, 2)
	require.Equal(t, "b", p.Primary[0].Key)
	require.Equal(t, "B Field", p.Primary[0].Label)
	require.Equal(t, "a", p.Primary[1].Key)

	// Remaining is collated, with numeric mode keeping module2 before module10.
	keys := make([]string, 0, len(p.Remaining))
	for _, f := range p.Remaining {
		keys = append(keys, f.Key)
	}
	require.Equal(t, []string{"c", "module2", "module10"}, keys)

	require.NotNil(t, p.Summary)
	require.Equal(t, "b", p.Summary.Key)
}

func TestProjectSummaryFallsBackToRemaining(t *testing.T) {
	row := dataview.Row{"zone": "Z1"}

	p := Project(row, []dataview.Column{{Key: "absent", Label: "Absent"}})

	require.Empty(t, p.Primary)
	require.NotNil(t, p.Summary)
	require.Equal(t, "zone", p.Summary.Key)
}

func TestProjectEmptyRow(t *testing.T) {
	for _, row := range []dataview.Row{nil, {}} {
		p := Project(row, nil)
		require.Empty(t, p.Primary)
		require.Empty(t, p.Remaining)
		require.Nil(t, p.Summary)
	}
}

func TestProjectUsesColumnCapabilities(t *testing.T) {
	row := dataview.Row{"height": float64(42)}
	columns := []dataview.Column{{
		Key:   "height",
		Label: "Hauteur",
		Formatter: func(value any, _ dataview.Row) string {
			return FormatValue(value) + " m"
		},
	}}

	p := Project(row, columns)

	require.Equal(t, "42 m", p.Primary[0].Value)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil becomes placeholder", nil, Placeholder},
		{"blank string becomes placeholder", "   ", Placeholder},
		{"true localizes", true, "Oui"},
		{"false localizes", false, "Non"},
		{"float drops trailing zeros", float64(35.5), "35.5"},
		{"integral float has no decimal point", float64(12), "12"},
		{"structured value renders compact json", map[string]any{"a": 1}, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.value); got != tt.want {
				t.Fatalf("FormatValue(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestBooleanTokensAreDistinct(t *testing.T) {
	require.NotEqual(t, FormatValue(true), FormatValue(false))
}

func TestNormalizeLineBreaks(t *testing.T) {
	row := dataview.Row{"notes": "ligne 1_x000D_\nligne 2_x000D_ligne 3\r\nligne 4"}

	p := Project(row, nil)

	require.Equal(t, "ligne 1\nligne 2\nligne 3\nligne 4", p.Remaining[0].Value)
	require.True(t, p.Remaining[0].Multiline)
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"site_name", "Site Name"},
		{"pm_cluster", "Pm Cluster"},
		{"has_genset", "Has Genset"},
		{"zone", "Zone"},
	}
	for _, tt := range tests {
		if got := Humanize(tt.in); got != tt.want {
			t.Fatalf("Humanize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
