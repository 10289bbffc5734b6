package dataview

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func makeRows(n int) []Row {
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, Row{
			"site_id":   fmt.Sprintf("SIT-%03d", i),
			"site_name": fmt.Sprintf("Site %03d", i),
			"province":  []string{"Nord", "Sud", "Est"}[i%3],
			"height":    float64(20 + i%7),
		})
	}
	return rows
}

func TestComputeViewPaginationPartitionsFilteredRows(t *testing.T) {
	rows := makeRows(23)
	size := 5

	var pages []Row
	first := ComputeView(rows, nil, "", Sort{}, Page{Index: 1, Size: size})
	for i := 1; i <= first.TotalPages; i++ {
		result := ComputeView(rows, nil, "", Sort{}, Page{Index: i, Size: size})
		pages = append(pages, result.PageItems...)
	}

	require.Equal(t, 5, first.TotalPages)
	require.Equal(t, len(rows), len(pages))
	for i, row := range pages {
		require.Equal(t, rows[i]["site_id"], row["site_id"])
	}
}

func TestComputeViewIsIdempotent(t *testing.T) {
	rows := makeRows(17)
	sort := Sort{Key: "province", Descending: true}
	page := Page{Index: 2, Size: 4}

	a := ComputeView(rows, nil, "sud", sort, page)
	b := ComputeView(rows, nil, "sud", sort, page)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("repeated computation diverged (-first +second):\n%s", diff)
	}
}

func TestSortRowsKeepsTieOrder(t *testing.T) {
	rows := []Row{
		{"site_id": "a", "province": "Nord"},
		{"site_id": "b", "province": "Nord"},
	}

	sorted := SortRows(rows, Sort{Key: "province"})

	if sorted[0]["site_id"] != "a" || sorted[1]["site_id"] != "b" {
		t.Fatalf("expected ties to keep input order, got %v then %v",
			sorted[0]["site_id"], sorted[1]["site_id"])
	}

	sorted = SortRows(rows, Sort{Key: "province", Descending: true})
	if sorted[0]["site_id"] != "a" || sorted[1]["site_id"] != "b" {
		t.Fatalf("descending sort reordered equal rows: %v then %v",
			sorted[0]["site_id"], sorted[1]["site_id"])
	}
}

func TestFilterMatchesCaseInsensitiveSubstrings(t *testing.T) {
	rows := []Row{
		{"site_name": "North Site", "province": "Nord"},
		{"site_name": "South Site", "province": "Sud"},
	}

	for _, term := range []string{"north", "NORTH", "RTH SI", "  north  "} {
		matched := Filter(rows, term)
		require.Len(t, matched, 1, "term %q", term)
		require.Equal(t, "North Site", matched[0]["site_name"])
	}

	require.Len(t, Filter(rows, "site"), 2)
	require.Empty(t, Filter(rows, "zzz"))
}

func TestFilterIgnoresStructuredValues(t *testing.T) {
	rows := []Row{
		{"site_name": "Alpha", "modules": []any{"nested", "north"}},
	}

	require.Empty(t, Filter(rows, "nested"))
	require.Len(t, Filter(rows, "alpha"), 1)
}

func TestComputeViewClampsPageIndex(t *testing.T) {
	rows := makeRows(3)

	result := ComputeView(rows, nil, "", Sort{}, Page{Index: 5, Size: 50})

	require.Equal(t, 1, result.TotalPages)
	require.Len(t, result.PageItems, 3)

	result = ComputeView(rows, nil, "", Sort{}, Page{Index: 0, Size: 2})
	require.Equal(t, 2, result.TotalPages)
	require.Len(t, result.PageItems, 2)
	require.Equal(t, "SIT-000", result.PageItems[0]["site_id"])
}

func TestComputeViewEmptyInput(t *testing.T) {
	for _, rows := range [][]Row{nil, {}} {
		result := ComputeView(rows, nil, "anything", Sort{Key: "site_id"}, Page{Index: 3, Size: 10})

		require.Empty(t, result.PageItems)
		require.Equal(t, 0, result.TotalFiltered)
		require.Equal(t, 1, result.TotalPages)
	}
}

func TestSortToggle(t *testing.T) {
	s := Sort{}

	s = s.Toggle("province")
	require.Equal(t, Sort{Key: "province"}, s)

	s = s.Toggle("province")
	require.Equal(t, Sort{Key: "province", Descending: true}, s)

	s = s.Toggle("site_id")
	require.Equal(t, Sort{Key: "site_id"}, s)
}

func TestCompareValuesNormalization(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"numbers compare numerically", float64(9), float64(10), -1},
		{"mixed int widths", 10, int64(2), 1},
		{"nil sorts as empty string", nil, "abc", -1},
		{"strings fold case", "Zone", "zone", 0},
		{"true after false", true, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareValues(tt.a, tt.b)
			if got != tt.want {
				t.Fatalf("compareValues(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFingerprintTracksContentNotIdentity(t *testing.T) {
	rows := makeRows(5)
	same := makeRows(5)
	changed := makeRows(5)
	changed[2]["province"] = "Ouest"

	require.Equal(t, Fingerprint(rows), Fingerprint(same))
	require.NotEqual(t, Fingerprint(rows), Fingerprint(changed))
	require.NotEqual(t, Fingerprint(rows), Fingerprint(rows[:4]))
}

func TestComputeViewEndToEnd(t *testing.T) {
	rows := makeRows(120)

	result := ComputeView(rows, nil, "nord", Sort{Key: "height", Descending: true},
		Page{Index: 2, Size: 10})

	// 120 rows cycle over three provinces, so 40 match.
	require.Equal(t, 40, result.TotalFiltered)
	require.Equal(t, 4, result.TotalPages)
	require.Len(t, result.PageItems, 10)

	for _, row := range result.PageItems {
		require.Equal(t, "Nord", row["province"])
	}
	prev := result.PageItems[0]["height"].(float64)
	for _, row := range result.PageItems[1:] {
		h := row["height"].(float64)
		require.LessOrEqual(t, h, prev)
		prev = h
	}
}
