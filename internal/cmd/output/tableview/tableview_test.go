package tableview

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/pegasus-infra/pegasusctl/internal/iostreams"
	"github.com/pegasus-infra/pegasusctl/internal/view/dataview"
	"github.com/pegasus-infra/pegasusctl/internal/view/detail"
)

var testColumns = []dataview.Column{
	{Key: "site_id", Label: "Identifiant"},
	{Key: "province", Label: "Province"},
}

func testRows() []dataview.Row {
	return []dataview.Row{
		{"site_id": "SIT-001", "province": "Nord", "has_genset": true},
		{"site_id": "SIT-002", "province": "Sud", "has_genset": false},
		{"site_id": "SIT-003", "province": "Nord", "has_genset": nil},
	}
}

func TestRenderFallsBackToStaticWithoutTTY(t *testing.T) {
	streams, _, out, _ := iostreams.NewTestIOStreams()

	err := Render(context.Background(), streams, testRows(), testColumns,
		WithTitle("Sites"))
	require.NoError(t, err)

	text := out.String()
	require.Contains(t, text, "Sites")
	require.Contains(t, text, "Identifiant")
	require.Contains(t, text, "SIT-002")
	require.Contains(t, text, "(3 lignes)")
}

func TestRenderStaticAlignsColumns(t *testing.T) {
	var out bytes.Buffer
	err := renderStatic(&out, testRows(), testColumns, config{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	// header, rule, three rows, trailer
	require.Len(t, lines, 6)
	require.True(t, strings.HasPrefix(lines[1], "-"))

	idx := strings.Index(lines[0], "Province")
	require.Greater(t, idx, 0)
	for _, line := range lines[2:5] {
		require.True(t, strings.HasPrefix(line[idx:], "Nord") || strings.HasPrefix(line[idx:], "Sud"),
			"row cell not aligned under header: %q", line)
	}
}

func TestRenderStaticWithoutColumns(t *testing.T) {
	var out bytes.Buffer
	err := renderStatic(&out, testRows(), nil, config{})
	require.NoError(t, err)
	require.Equal(t, "(3 lignes)\n", out.String())
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func newTestModel(rows []dataview.Row, opts ...Option) *bubbleModel {
	cfg := config{pageSize: 2}
	for _, opt := range opts {
		opt(&cfg)
	}
	return newBubbleModel(context.Background(), rows, testColumns, cfg, 100, 30)
}

func TestModelSearchResetsPage(t *testing.T) {
	m := newTestModel(testRows())
	m.page.Index = 2
	m.recompute(false)
	require.Equal(t, 2, m.page.Index)

	m.handleKey(keyMsg("/"))
	require.True(t, m.searchEdit)
	m.handleKey(keyMsg("n"))

	require.Equal(t, 1, m.page.Index)
	require.Equal(t, "n", m.search)
	require.Equal(t, 2, m.view.TotalFiltered)
}

func TestModelSortToggleCyclesColumns(t *testing.T) {
	m := newTestModel(testRows())

	m.handleKey(keyMsg("tab"))
	require.Equal(t, dataview.Sort{Key: "site_id"}, m.sort)

	m.handleKey(keyMsg("s"))
	require.Equal(t, dataview.Sort{Key: "site_id", Descending: true}, m.sort)
	require.Equal(t, "SIT-003", m.view.PageItems[0]["site_id"])

	m.handleKey(keyMsg("tab"))
	require.Equal(t, dataview.Sort{Key: "province"}, m.sort)
}

func TestModelDropsStaleReloadResponses(t *testing.T) {
	m := newTestModel(testRows(), WithReloader(func(context.Context) ([]dataview.Row, error) {
		return nil, nil
	}))

	cmd := m.startReload()
	require.NotNil(t, cmd)
	current := m.requestID

	m.Update(rowsReloadedMsg{requestID: "stale", rows: nil})
	require.True(t, m.loading)
	require.Len(t, m.rows, 3)

	m.Update(rowsReloadedMsg{requestID: current, rows: testRows()[:1]})
	require.False(t, m.loading)
	require.Len(t, m.rows, 1)
}

func TestModelReloadResetsPageOnlyWhenDataChanges(t *testing.T) {
	m := newTestModel(testRows())
	m.page.Index = 2
	m.recompute(false)
	m.requestID = "req"

	// identical content keeps the current page
	m.Update(rowsReloadedMsg{requestID: "req", rows: testRows()})
	require.Equal(t, 2, m.page.Index)

	changed := testRows()
	changed[0]["province"] = "Ouest"
	m.requestID = "req2"
	m.Update(rowsReloadedMsg{requestID: "req2", rows: changed})
	require.Equal(t, 1, m.page.Index)
}

func TestModelDetailOpensForSelection(t *testing.T) {
	m := newTestModel(testRows())

	m.handleKey(keyMsg("enter"))
	require.True(t, m.detailOpen)

	view := m.detailPort.View()
	require.Contains(t, view, "Identifiant")
	require.Contains(t, view, "SIT-001")
	require.Contains(t, view, "Autres champs")
	require.Contains(t, view, "Oui")

	m.handleKey(keyMsg("esc"))
	require.False(t, m.detailOpen)
}

func TestPlainProjectionFlattensFields(t *testing.T) {
	p := detail.Project(testRows()[0], testColumns)

	text := plainProjection(p)

	lines := strings.Split(text, "\n")
	require.Equal(t, "Identifiant: SIT-001", lines[0])
	require.Equal(t, "Province: Nord", lines[1])
	require.Equal(t, "Has Genset: Oui", lines[2])
}
