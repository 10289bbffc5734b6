// Package tableview renders Pegasus dataset rows. On a TTY it runs an
// interactive Bubble Tea table with live search, sort toggling, pagination,
// and a drill-in detail panel; otherwise it falls back to a static table.
//
// All row transformations go through view/dataview and view/detail. This
// package only owns the transient UI state (search text, sort selection,
// page index) and feeds it into those pure engines on every input change.
package tableview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/pegasus-infra/pegasusctl/internal/iostreams"
	"github.com/pegasus-infra/pegasusctl/internal/log"
	"github.com/pegasus-infra/pegasusctl/internal/theme"
	"github.com/pegasus-infra/pegasusctl/internal/view/dataview"
	"github.com/pegasus-infra/pegasusctl/internal/view/detail"
)

// Reloader re-fetches the underlying dataset on user request.
type Reloader func(ctx context.Context) ([]dataview.Row, error)

type fdProvider interface {
	Fd() uintptr
}

type config struct {
	title       string
	footer      string
	profileName string
	pageSize    int
	reloader    Reloader
}

// Option allows configuring optional behaviour for the table renderer.
type Option func(*config)

// WithTitle adds a title above the rendered table.
func WithTitle(title string) Option {
	return func(cfg *config) {
		cfg.title = strings.TrimSpace(title)
	}
}

// WithFooter overrides the default footer message when running interactively.
func WithFooter(msg string) Option {
	return func(cfg *config) {
		cfg.footer = msg
	}
}

// WithProfileName records the active configuration profile for the status area.
func WithProfileName(name string) Option {
	return func(cfg *config) {
		cfg.profileName = strings.TrimSpace(name)
	}
}

// WithPageSize sets the initial page size.
func WithPageSize(size int) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.pageSize = size
		}
	}
}

// WithReloader registers a loader invoked when the user requests a refresh.
func WithReloader(loader Reloader) Option {
	return func(cfg *config) {
		cfg.reloader = loader
	}
}

const defaultPageSize = 50

// Render displays rows using the Bubble Tea table component when the output
// stream is a TTY, and a static table otherwise.
func Render(
	ctx context.Context,
	streams *iostreams.IOStreams,
	rows []dataview.Row,
	columns []dataview.Column,
	opts ...Option,
) error {
	if streams == nil || streams.Out == nil {
		return errors.New("tableview: output stream is not available")
	}

	cfg := config{pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	fd, isFile := streams.Out.(fdProvider)
	if !isFile || !isatty.IsTerminal(fd.Fd()) {
		return renderStatic(streams.Out, rows, columns, cfg)
	}

	width, height := 80, 24
	if w, h, err := term.GetSize(int(fd.Fd())); err == nil {
		width, height = w, h
	}

	// stderr log mirroring would tear the alternate screen
	log.DisableErrorMirroring()
	defer log.EnableErrorMirroring()

	model := newBubbleModel(ctx, rows, columns, cfg, width, height)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithOutput(streams.Out),
		tea.WithInput(streams.In),
		tea.WithAltScreen(),
	)
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type rowsReloadedMsg struct {
	requestID string
	rows      []dataview.Row
	err       error
}

type bubbleModel struct {
	ctx     context.Context
	cfg     config
	palette theme.Palette

	columns []dataview.Column
	rows    []dataview.Row

	// transient UI state feeding dataview.ComputeView
	search      string
	searchEdit  bool
	searchDraft []rune
	sort        dataview.Sort
	sortCol     int
	page        dataview.Page
	fingerprint uint64

	view  dataview.ViewResult
	table table.Model

	detailOpen bool
	detailPort viewport.Model

	spin      spinner.Model
	loading   bool
	requestID string
	errMsg    string
	status    string

	width  int
	height int
}

type keyBindings struct {
	search  key.Binding
	sortCol key.Binding
	sortDir key.Binding
	prev    key.Binding
	next    key.Binding
	first   key.Binding
	last    key.Binding
	grow    key.Binding
	shrink  key.Binding
	open    key.Binding
	copy    key.Binding
	reload  key.Binding
	back    key.Binding
	quit    key.Binding
}

var keys = keyBindings{
	search:  key.NewBinding(key.WithKeys("/")),
	sortCol: key.NewBinding(key.WithKeys("tab")),
	sortDir: key.NewBinding(key.WithKeys("s")),
	prev:    key.NewBinding(key.WithKeys("left", "h")),
	next:    key.NewBinding(key.WithKeys("right", "l")),
	first:   key.NewBinding(key.WithKeys("g")),
	last:    key.NewBinding(key.WithKeys("G")),
	grow:    key.NewBinding(key.WithKeys("+")),
	shrink:  key.NewBinding(key.WithKeys("-")),
	open:    key.NewBinding(key.WithKeys("enter")),
	copy:    key.NewBinding(key.WithKeys("c")),
	reload:  key.NewBinding(key.WithKeys("r")),
	back:    key.NewBinding(key.WithKeys("esc")),
	quit:    key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

func newBubbleModel(
	ctx context.Context,
	rows []dataview.Row,
	columns []dataview.Column,
	cfg config,
	width, height int,
) *bubbleModel {
	palette := theme.Current()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = palette.ForegroundStyle(theme.ColorAccent)

	m := &bubbleModel{
		ctx:         ctx,
		cfg:         cfg,
		palette:     palette,
		columns:     columns,
		rows:        rows,
		sortCol:     -1,
		page:        dataview.Page{Index: 1, Size: cfg.pageSize},
		fingerprint: dataview.Fingerprint(rows),
		spin:        s,
		width:       width,
		height:      height,
	}
	m.recompute(false)
	return m
}

func (m *bubbleModel) Init() tea.Cmd {
	return nil
}

// recompute re-derives the visible page from the current inputs. When reset
// is true the page index returns to 1 first (search, sort, size, or dataset
// change); ComputeView's clamp stays as the safety net.
func (m *bubbleModel) recompute(reset bool) {
	if reset {
		m.page.Index = 1
	}
	m.view = dataview.ComputeView(m.rows, m.columns, m.search, m.sort, m.page)
	m.rebuildTable()
}

func (m *bubbleModel) rebuildTable() {
	cols := make([]table.Column, len(m.columns))
	widths := m.columnWidths()
	for i, col := range m.columns {
		title := col.Label
		if i == m.sortCol && m.sort.Key == col.Key {
			if m.sort.Descending {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}

	tableRows := make([]table.Row, len(m.view.PageItems))
	for i, row := range m.view.PageItems {
		cells := make([]string, len(m.columns))
		for j, col := range m.columns {
			text := detail.FormatValue(col.Value(row))
			if col.Formatter != nil {
				text = col.Formatter(col.Value(row), row)
			}
			text = strings.ReplaceAll(text, "\n", " ")
			cells[j] = runewidth.Truncate(text, widths[j], "…")
		}
		tableRows[i] = table.Row(cells)
	}

	cursor := 0
	if m.table.Cursor() > 0 && m.table.Cursor() < len(tableRows) {
		cursor = m.table.Cursor()
	}

	height := m.height - 9
	if height < 4 {
		height = 4
	}
	if height > len(tableRows)+1 {
		height = len(tableRows) + 1
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(tableRows),
		table.WithHeight(height),
		table.WithFocused(true),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(m.palette.Adaptive(theme.ColorBorder)).
		BorderBottom(true).
		Bold(true).
		Foreground(m.palette.Adaptive(theme.ColorTextSecondary))
	styles.Selected = styles.Selected.
		Foreground(m.palette.Adaptive(theme.ColorHighlight)).
		Background(m.palette.Adaptive(theme.ColorAccent)).
		Bold(false)
	t.SetStyles(styles)
	t.SetCursor(cursor)

	m.table = t
}

func (m *bubbleModel) columnWidths() []int {
	widths := make([]int, len(m.columns))
	available := m.width - 4 - 2*len(m.columns)
	flexible := 0
	for i, col := range m.columns {
		if col.Width > 0 {
			widths[i] = col.Width
			available -= col.Width
		} else {
			flexible++
		}
	}
	if flexible > 0 {
		share := available / flexible
		if share < 8 {
			share = 8
		}
		for i := range widths {
			if widths[i] == 0 {
				widths[i] = share
			}
		}
	}
	return widths
}

func (m *bubbleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.detailOpen {
			m.detailPort.Width = m.width - 4
			m.detailPort.Height = m.height - 6
		}
		m.rebuildTable()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case rowsReloadedMsg:
		// stale responses from superseded requests are dropped
		if msg.requestID != m.requestID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.rows = msg.rows
		if fp := dataview.Fingerprint(msg.rows); fp != m.fingerprint {
			m.fingerprint = fp
			m.recompute(true)
		} else {
			m.recompute(false)
		}
		m.status = fmt.Sprintf("Rechargé : %d lignes", len(msg.rows))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *bubbleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchEdit {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, keys.quit):
		return m, tea.Quit

	case key.Matches(msg, keys.back):
		if m.detailOpen {
			m.detailOpen = false
			return m, nil
		}
		if m.search != "" {
			m.search = ""
			m.recompute(true)
			return m, nil
		}
		return m, tea.Quit

	case m.detailOpen:
		return m.handleDetailKey(msg)

	case key.Matches(msg, keys.search):
		m.searchEdit = true
		m.searchDraft = []rune(m.search)
		return m, nil

	case key.Matches(msg, keys.sortCol):
		if len(m.columns) == 0 {
			return m, nil
		}
		m.sortCol = (m.sortCol + 1) % len(m.columns)
		m.sort = m.sort.Toggle(m.columns[m.sortCol].Key)
		m.recompute(true)
		return m, nil

	case key.Matches(msg, keys.sortDir):
		if m.sortCol < 0 || m.sortCol >= len(m.columns) {
			return m, nil
		}
		m.sort = m.sort.Toggle(m.columns[m.sortCol].Key)
		m.recompute(true)
		return m, nil

	case key.Matches(msg, keys.prev):
		if m.page.Index > 1 {
			m.page.Index--
			m.recompute(false)
		}
		return m, nil

	case key.Matches(msg, keys.next):
		if m.page.Index < m.view.TotalPages {
			m.page.Index++
			m.recompute(false)
		}
		return m, nil

	case key.Matches(msg, keys.first):
		m.page.Index = 1
		m.recompute(false)
		return m, nil

	case key.Matches(msg, keys.last):
		m.page.Index = m.view.TotalPages
		m.recompute(false)
		return m, nil

	case key.Matches(msg, keys.grow):
		m.page.Size += 10
		m.recompute(true)
		return m, nil

	case key.Matches(msg, keys.shrink):
		if m.page.Size > 10 {
			m.page.Size -= 10
			m.recompute(true)
		}
		return m, nil

	case key.Matches(msg, keys.open):
		m.openDetail()
		return m, nil

	case key.Matches(msg, keys.reload):
		return m, m.startReload()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *bubbleModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.searchEdit = false
		m.searchDraft = nil
		return m, nil
	case tea.KeyEnter:
		m.searchEdit = false
		return m, nil
	case tea.KeyBackspace:
		if len(m.searchDraft) > 0 {
			m.searchDraft = m.searchDraft[:len(m.searchDraft)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.searchDraft = append(m.searchDraft, msg.Runes...)
	default:
		return m, nil
	}

	// live filtering on every keystroke, with the page reset contract
	m.search = string(m.searchDraft)
	m.recompute(true)
	return m, nil
}

func (m *bubbleModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.copy) {
		m.copyDetail()
		return m, nil
	}
	var cmd tea.Cmd
	m.detailPort, cmd = m.detailPort.Update(msg)
	return m, cmd
}

func (m *bubbleModel) selectedRow() (dataview.Row, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.view.PageItems) {
		return nil, false
	}
	return m.view.PageItems[idx], true
}

func (m *bubbleModel) openDetail() {
	row, ok := m.selectedRow()
	if !ok {
		return
	}

	projection := detail.Project(row, m.columns)
	if projection.Summary == nil {
		m.status = "Rien à afficher pour cette ligne."
		return
	}

	m.detailPort = viewport.New(m.width-4, m.height-6)
	m.detailPort.SetContent(m.renderProjection(projection))
	m.detailOpen = true
}

func (m *bubbleModel) copyDetail() {
	row, ok := m.selectedRow()
	if !ok {
		return
	}
	projection := detail.Project(row, m.columns)
	if err := clipboard.WriteAll(plainProjection(projection)); err != nil {
		m.status = fmt.Sprintf("Copie impossible : %v", err)
		return
	}
	m.status = "Fiche copiée dans le presse-papiers."
}

func (m *bubbleModel) startReload() tea.Cmd {
	if m.cfg.reloader == nil || m.loading {
		return nil
	}

	m.loading = true
	m.errMsg = ""
	m.requestID = uuid.NewString()
	requestID := m.requestID
	loader := m.cfg.reloader
	ctx := m.ctx

	fetch := func() tea.Msg {
		rows, err := loader(ctx)
		return rowsReloadedMsg{requestID: requestID, rows: rows, err: err}
	}
	return tea.Batch(m.spin.Tick, fetch)
}

func (m *bubbleModel) renderProjection(p detail.Projection) string {
	labelStyle := m.palette.ForegroundStyle(theme.ColorTextSecondary)
	valueStyle := m.palette.ForegroundStyle(theme.ColorTextPrimary)
	sectionStyle := m.palette.ForegroundStyle(theme.ColorAccent).Bold(true)

	labelWidth := 0
	for _, f := range append(append([]detail.Field{}, p.Primary...), p.Remaining...) {
		if w := runewidth.StringWidth(f.Label); w > labelWidth {
			labelWidth = w
		}
	}

	renderField := func(b *strings.Builder, f detail.Field) {
		label := runewidth.FillRight(f.Label, labelWidth)
		if f.Multiline {
			b.WriteString(labelStyle.Render(label))
			b.WriteString("\n")
			for _, line := range strings.Split(f.Value, "\n") {
				b.WriteString("  ")
				b.WriteString(valueStyle.Render(line))
				b.WriteString("\n")
			}
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString("  ")
		b.WriteString(valueStyle.Render(f.Value))
		b.WriteString("\n")
	}

	var b strings.Builder
	for _, f := range p.Primary {
		renderField(&b, f)
	}
	if len(p.Remaining) > 0 {
		if len(p.Primary) > 0 {
			b.WriteString("\n")
			b.WriteString(sectionStyle.Render("Autres champs"))
			b.WriteString("\n")
		}
		for _, f := range p.Remaining {
			renderField(&b, f)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func plainProjection(p detail.Projection) string {
	var b strings.Builder
	for _, f := range append(append([]detail.Field{}, p.Primary...), p.Remaining...) {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *bubbleModel) View() string {
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(m.palette.Adaptive(theme.ColorBorder)).
		Padding(0, 1)

	var sections []string

	if m.cfg.title != "" {
		sections = append(sections,
			m.palette.ForegroundStyle(theme.ColorAccent).Bold(true).Render(m.cfg.title))
	}

	if m.detailOpen {
		sections = append(sections, boxStyle.Render(m.detailPort.View()))
		sections = append(sections, m.palette.ForegroundStyle(theme.ColorTextMuted).
			Render("esc retour • c copier • ↑/↓ défiler"))
		return strings.Join(sections, "\n")
	}

	if m.errMsg != "" {
		sections = append(sections, m.palette.ForegroundStyle(theme.ColorDanger).
			Render("Erreur : "+m.errMsg+" (r pour réessayer)"))
	}

	sections = append(sections, boxStyle.Render(m.table.View()))
	sections = append(sections, m.statusLine())
	sections = append(sections, m.footerLine())
	return strings.Join(sections, "\n")
}

func (m *bubbleModel) statusLine() string {
	parts := []string{
		fmt.Sprintf("Page %d/%d", clampIndex(m.page.Index, m.view.TotalPages), m.view.TotalPages),
		fmt.Sprintf("%d résultats", m.view.TotalFiltered),
	}
	if m.searchEdit {
		parts = append(parts, "/"+string(m.searchDraft)+"▌")
	} else if m.search != "" {
		parts = append(parts, "filtre : "+m.search)
	}
	if m.sort.Key != "" {
		dir := "↑"
		if m.sort.Descending {
			dir = "↓"
		}
		parts = append(parts, "tri : "+m.sort.Key+" "+dir)
	}
	if m.loading {
		parts = append(parts, m.spin.View()+"chargement…")
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.cfg.profileName != "" {
		parts = append(parts, "profil : "+m.cfg.profileName)
	}
	return m.palette.ForegroundStyle(theme.ColorTextSecondary).
		Render(strings.Join(parts, " • "))
}

func (m *bubbleModel) footerLine() string {
	footer := m.cfg.footer
	if footer == "" {
		footer = "/ rechercher • tab/s trier • ←/→ pages • +/- taille • entrée fiche • r recharger • q quitter"
	}
	return m.palette.ForegroundStyle(theme.ColorTextMuted).Render(footer)
}

func clampIndex(index, totalPages int) int {
	if index < 1 {
		return 1
	}
	if index > totalPages {
		return totalPages
	}
	return index
}
