// Package detail projects a single dataview.Row into an ordered, labeled
// field list for the record detail panel. Fields named by the surfaced
// columns come first in column order; every other field on the row follows,
// sorted with a locale aware collator.
package detail

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pegasus-infra/pegasusctl/internal/util/i18n"
	"github.com/pegasus-infra/pegasusctl/internal/view/dataview"
)

// Placeholder stands in for null and empty field values.
var Placeholder = i18n.T("detail.placeholder", "—")

var (
	yesToken = i18n.T("detail.yes", "Oui")
	noToken  = i18n.T("detail.no", "Non")
)

// Excel exports carry this marker where a cell contained a line break.
const spreadsheetLineBreak = "_x000D_"

// Field is one projected row field ready for display.
type Field struct {
	Key       string
	Label     string
	Value     string
	Multiline bool
}

// Projection splits a row into the surfaced-column fields and the rest.
// Summary points at the first primary field, or the first remaining field
// when no column matched; it is nil for an empty row.
type Projection struct {
	Primary   []Field
	Remaining []Field
	Summary   *Field
}

// French collation orders the accented maintenance fields sensibly, and
// numeric mode keeps module2 ahead of module10.
var remainingCollator = collate.New(language.French, collate.Numeric, collate.IgnoreCase)

// Project builds the detail view for one row. A nil row yields an empty
// projection, which callers treat as "nothing to display".
func Project(row dataview.Row, columns []dataview.Column) Projection {
	if len(row) == 0 {
		return Projection{}
	}

	var p Projection
	seen := make(map[string]bool, len(columns))

	for _, col := range columns {
		if _, present := row[col.Key]; !present && col.Accessor == nil {
			continue
		}
		seen[col.Key] = true
		p.Primary = append(p.Primary, buildField(col.Key, col.Label, col.Value(row), col.Formatter, row))
	}

	remainingKeys := make([]string, 0, len(row))
	for key := range row {
		if !seen[key] {
			remainingKeys = append(remainingKeys, key)
		}
	}
	remainingCollator.SortStrings(remainingKeys)

	for _, key := range remainingKeys {
		p.Remaining = append(p.Remaining, buildField(key, "", row[key], nil, row))
	}

	switch {
	case len(p.Primary) > 0:
		p.Summary = &p.Primary[0]
	case len(p.Remaining) > 0:
		p.Summary = &p.Remaining[0]
	}
	return p
}

func buildField(
	key, label string,
	value any,
	formatter func(any, dataview.Row) string,
	row dataview.Row,
) Field {
	if label == "" {
		label = Humanize(key)
	}

	var text string
	if formatter != nil {
		text = formatter(value, row)
	} else {
		text = FormatValue(value)
	}

	normalized, multiline := normalizeLineBreaks(text)
	return Field{
		Key:       key,
		Label:     label,
		Value:     normalized,
		Multiline: multiline,
	}
}

// FormatValue renders a field value for display: nil and empty strings
// collapse to the placeholder, booleans localize, numbers print their
// shortest form, and structured values fall back to compact JSON.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return Placeholder
	case string:
		if strings.TrimSpace(v) == "" {
			return Placeholder
		}
		return v
	case bool:
		if v {
			return yesToken
		}
		return noToken
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

// normalizeLineBreaks folds every line break variant found in ingested
// spreadsheet data (\r\n, bare \r, the _x000D_ marker) to a single \n and
// reports whether the value needs multi-line rendering.
func normalizeLineBreaks(text string) (string, bool) {
	replaced := strings.NewReplacer(
		spreadsheetLineBreak+"\n", "\n",
		spreadsheetLineBreak, "\n",
		"\r\n", "\n",
		"\r", "\n",
	).Replace(text)
	return replaced, strings.Contains(replaced, "\n")
}

// Humanize derives a display label from a raw field key: underscores become
// spaces and each word is title cased.
func Humanize(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	})
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
