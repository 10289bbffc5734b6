// Package dataview turns a raw row collection plus transient UI state
// (search term, sort key, page) into the exact slice of rows to render.
// Everything here is a pure function over its inputs: callers own the
// state, re-invoke on every change, and never see an error.
package dataview

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Row is one displayable record from a Pegasus dataset. Field sets are open
// and vary per dataset, so rows stay generic string keyed maps with
// JSON-decoded primitive values (string, float64, bool) or nil.
type Row map[string]any

// Column describes one surfaced field: its key, display label, optional
// fixed width, and optional capability functions for custom access and
// formatting. Columns drive rendering only, never filtering.
type Column struct {
	Key   string
	Label string
	Width int

	// Accessor overrides the raw row lookup for the display value.
	Accessor func(Row) any
	// Formatter overrides the default string rendering of the value.
	Formatter func(value any, row Row) string
}

// Value resolves the display value for this column on the given row.
func (c Column) Value(row Row) any {
	if c.Accessor != nil {
		return c.Accessor(row)
	}
	if row == nil {
		return nil
	}
	return row[c.Key]
}

// Sort is the current sort selection. An empty Key means unsorted.
type Sort struct {
	Key        string
	Descending bool
}

// Toggle applies the sort-click contract: selecting the sorted column flips
// direction, selecting a new column sorts it ascending.
func (s Sort) Toggle(key string) Sort {
	if s.Key == key {
		return Sort{Key: key, Descending: !s.Descending}
	}
	return Sort{Key: key}
}

// Page is a 1-based page request.
type Page struct {
	Index int
	Size  int
}

// ViewResult is the derived output for one render: the rows on the clamped
// page, how many rows matched the search, and how many pages that makes.
type ViewResult struct {
	PageItems     []Row
	TotalFiltered int
	TotalPages    int
}

// ComputeView filters, sorts, and paginates rows. Nil or empty input yields
// an empty single-page result. The requested page index is clamped into
// [1, TotalPages]; callers still reset their page state to 1 whenever the
// search, the sort, the page size, or the dataset fingerprint changes so a
// shrinking result set lands on the first page instead of the last.
func ComputeView(rows []Row, _ []Column, search string, s Sort, page Page) ViewResult {
	filtered := Filter(rows, search)
	sorted := SortRows(filtered, s)

	size := page.Size
	if size < 1 {
		size = 1
	}
	totalPages := int(math.Ceil(float64(len(sorted)) / float64(size)))
	if totalPages < 1 {
		totalPages = 1
	}

	index := page.Index
	if index < 1 {
		index = 1
	}
	if index > totalPages {
		index = totalPages
	}

	start := (index - 1) * size
	end := start + size
	if start > len(sorted) {
		start = len(sorted)
	}
	if end > len(sorted) {
		end = len(sorted)
	}

	return ViewResult{
		PageItems:     sorted[start:end],
		TotalFiltered: len(sorted),
		TotalPages:    totalPages,
	}
}

// Filter returns the rows whose stringified primitive field values contain
// the trimmed, case-folded search term. Structured field values never
// participate in matching. An empty term matches everything.
func Filter(rows []Row, search string) []Row {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return append([]Row(nil), rows...)
	}

	matched := make([]Row, 0, len(rows))
	for _, row := range rows {
		if rowMatches(row, needle) {
			matched = append(matched, row)
		}
	}
	return matched
}

func rowMatches(row Row, needle string) bool {
	for _, value := range row {
		text, ok := primitiveString(value)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(text), needle) {
			return true
		}
	}
	return false
}

// primitiveString stringifies a primitive field value for matching.
// The second return is false for nil and structured values.
func primitiveString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return formatNumber(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SortRows returns rows ordered by the sort key. Ties keep their original
// relative order. An empty key returns the input order.
func SortRows(rows []Row, s Sort) []Row {
	out := append([]Row(nil), rows...)
	if s.Key == "" {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compareValues(out[i][s.Key], out[j][s.Key])
		if s.Descending {
			return c > 0
		}
		return c < 0
	})
	return out
}

// compareValues orders two field values after normalization: nil sorts as
// the empty string, numbers compare numerically, booleans as 1/0, strings
// case-insensitively, and anything else by its string form.
func compareValues(a, b any) int {
	na, nb := normalizeSortValue(a), normalizeSortValue(b)

	fa, aNum := na.(float64)
	fb, bNum := nb.(float64)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(sortString(na), sortString(nb))
}

func normalizeSortValue(value any) any {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(v)
	case bool:
		if v {
			return float64(1)
		}
		return float64(0)
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return strings.ToLower(fmt.Sprint(v))
	}
}

func sortString(normalized any) string {
	if s, ok := normalized.(string); ok {
		return s
	}
	return formatNumber(normalized.(float64))
}

// Fingerprint hashes row contents so callers can detect a logical dataset
// change. Page resets key off this value rather than slice identity, so an
// unchanged array passed by a new reference stays a no-op.
func Fingerprint(rows []Row) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d\n", len(rows))
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			text, ok := primitiveString(row[k])
			if !ok {
				text = fmt.Sprint(row[k])
			}
			fmt.Fprintf(h, "%s=%s;", k, text)
		}
		h.Write([]byte{'\n'})
	}
	return h.Sum64()
}
