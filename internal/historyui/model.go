// Package historyui provides the Bubble Tea history browser.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/ropescore/internal/history"
	"github.com/verte-zerg/ropescore/internal/logging"
	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/scoring"
)

const (
	tabOverview = iota
	tabScores
)

const plotHeight = 8

// Store is the part of the score history the browser reads and edits.
type Store interface {
	history.Lister
	DeleteScore(ctx context.Context, ref string) error
}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Model implements the Bubble Tea history UI.
type Model struct {
	store  Store
	filter model.HistoryFilter
	log    *zap.Logger

	report history.Report
	errMsg string
	notice string

	tabs      []string
	activeTab int
	overview  viewport.Model
	scores    table.Model
	rowRefs   []string

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	pendingDelete string
}

// NewModel constructs a history UI model.
func NewModel(st Store, filter model.HistoryFilter, log *zap.Logger) *Model {
	if log == nil {
		log = logging.Nop()
	}
	m := &Model{
		store:    st,
		filter:   filter,
		log:      log,
		tabs:     []string{"Overview", "Scores"},
		overview: viewport.New(0, 0),
		scores:   newScoresTable(),
	}
	m.filterInputs = []textinput.Model{
		newFilterInput("Rulebook (new/old): "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Trend window: "),
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.pendingDelete != "" {
			return m.updateDeleteConfirm(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.filter.TrendWindow = max(1, m.filter.TrendWindow) + 1
			m.refreshReport()
			return m, nil
		case "-":
			m.filter.TrendWindow = max(1, m.filter.TrendWindow-1)
			m.refreshReport()
			return m, nil
		case "/":
			m.filterMode = true
			m.filterError = ""
			m.setInputsFromFilter()
			return m, m.setFilterIndex(0)
		case "d":
			if m.activeTab == tabScores {
				m.startDelete()
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabScores {
				m.scores.GotoTop()
			} else {
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabScores {
				m.scores.GotoBottom()
			} else {
				m.overview.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabScores {
			m.scores, cmd = m.scores.Update(msg)
		} else {
			m.overview, cmd = m.overview.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.pendingDelete != "" {
		return fitLines(m.renderDeleteModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func newScoresTable() table.Model {
	t := table.New(
		table.WithColumns(scoreColumns()),
		table.WithFocused(true),
		table.WithHeight(1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.Padding(0, 1).PaddingLeft(0)
	styles.Selected = styles.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	t.SetStyles(styles)
	return t
}

func scoreColumns() []table.Column {
	return []table.Column{
		{Title: "Ref", Width: 8},
		{Title: "Saved", Width: 16},
		{Title: "Label", Width: 14},
		{Title: "Rulebook", Width: 8},
		{Title: "Levels", Width: 6},
		{Title: "Difficulty", Width: 10},
		{Title: "Custom", Width: 8},
		{Title: "Custom %", Width: 8},
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && (m.errMsg != "" || m.notice != "") {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.scores.SetWidth(m.width)
	m.scores.SetHeight(max(1, bodyHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabScores {
		m.scores.Focus()
	} else {
		m.scores.Blur()
	}
}

func (m *Model) refreshReport() {
	report, err := history.BuildReport(context.Background(), m.store, m.filter)
	if err != nil {
		m.log.Error("failed to load history", zap.Error(err))
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load history.")
		m.scores.SetRows(nil)
		m.rowRefs = nil
		return
	}
	m.errMsg = ""
	m.report = report
	rows, refs := scoreRows(report.Records)
	m.scores.SetRows(rows)
	m.rowRefs = refs
	if m.scores.Cursor() >= len(rows) {
		m.scores.SetCursor(max(0, len(rows)-1))
	}
	m.renderOverview()
}

// scoreRows lists the newest score first.
func scoreRows(records []model.ScoreRecord) ([]table.Row, []string) {
	cells := history.TableRows(records)
	rows := make([]table.Row, 0, len(cells))
	refs := make([]string, 0, len(cells))
	for i := len(cells) - 1; i >= 0; i-- {
		rows = append(rows, table.Row(cells[i]))
		refs = append(refs, records[i].Ref)
	}
	return rows, refs
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, width))
}

func renderOverview(r history.Report, width int) string {
	if len(r.Records) == 0 {
		return "No saved scores found."
	}
	sum := r.Summary
	cards := []string{
		metricCard("Scores", strconv.Itoa(sum.Count)),
		metricCard("Avg difficulty", scoring.FormatScore(sum.AvgDifficulty)),
		metricCard("Best difficulty", scoring.FormatScore(sum.BestDifficulty)),
		metricCard("Avg custom", scoring.FormatScore(sum.AvgCustom)),
		metricCard("Best custom", scoring.FormatScore(sum.BestCustom)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	var buf bytes.Buffer
	err := history.PlotTrend(&buf, "Trend", history.TrendSeries(r), history.PlotWidthFor(width), plotHeight, true)
	if err != nil {
		return summary + "\n\n" + fmt.Sprintf("Failed to render trend: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) startDelete() {
	row := m.scores.Cursor()
	if row < 0 || row >= len(m.rowRefs) {
		return
	}
	m.pendingDelete = m.rowRefs[row]
}

func (m *Model) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		ref := m.pendingDelete
		m.pendingDelete = ""
		if err := m.store.DeleteScore(context.Background(), ref); err != nil {
			m.log.Error("failed to delete score", zap.String("ref", ref), zap.Error(err))
			m.notice = ""
			m.errMsg = err.Error()
			return m, nil
		}
		m.notice = "Deleted " + history.ShortRef(ref)
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case "n", "esc", "q":
		m.pendingDelete = ""
	}
	return m, nil
}

func (m *Model) renderDeleteModal() string {
	body := []string{
		cardValueStyle.Render("Delete score"),
		fmt.Sprintf("Delete %s? This cannot be undone.", history.ShortRef(m.pendingDelete)),
		headerStyle.Render("y/enter: delete  n/esc: cancel"),
	}
	width := max(40, min(m.width-4, 80))
	box := modalStyle.Width(width).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		filter, err := m.parseFilter()
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filter = filter
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) setInputsFromFilter() {
	m.filterInputs[0].SetValue(m.filter.Rulebook)
	m.filterInputs[1].SetValue("")
	if m.filter.Since != nil {
		m.filterInputs[1].SetValue(m.filter.Since.UTC().Format(history.SinceLayout))
	}
	m.filterInputs[2].SetValue("")
	if m.filter.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.filter.Last))
	}
	m.filterInputs[3].SetValue(strconv.Itoa(max(1, m.filter.TrendWindow)))
}

func (m *Model) parseFilter() (model.HistoryFilter, error) {
	out := model.HistoryFilter{}
	if raw := strings.TrimSpace(m.filterInputs[0].Value()); raw != "" {
		version, err := scoring.ParseRulebookVersion(raw)
		if err != nil {
			return out, err
		}
		out.Rulebook = version.String()
	}
	if raw := strings.TrimSpace(m.filterInputs[1].Value()); raw != "" {
		parsed, err := history.ParseSince(raw)
		if err != nil {
			return out, err
		}
		out.Since = &parsed
	}
	if raw := strings.TrimSpace(m.filterInputs[2].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return out, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		out.Last = parsed
	}
	out.TrendWindow = 1
	if raw := strings.TrimSpace(m.filterInputs[3].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return out, fmt.Errorf("invalid trend window (use integer >= 1)")
		}
		out.TrendWindow = parsed
	}
	return out, nil
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	rulebook := m.filter.Rulebook
	if rulebook == "" {
		rulebook = "any"
	}
	since := "any"
	if m.filter.Since != nil {
		since = m.filter.Since.UTC().Format(history.SinceLayout)
	}
	last := "all"
	if m.filter.Last > 0 {
		last = strconv.Itoa(m.filter.Last)
	}
	summary := fmt.Sprintf("Filter: rulebook=%s  since=%s  last=%s  window=%d", rulebook, since, last, max(1, m.filter.TrendWindow))
	return m.renderTabs() + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody() string {
	if m.filterMode {
		lines := []string{"Filter (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return strings.Join(lines, "\n")
	}
	if m.activeTab == tabScores {
		if len(m.report.Records) == 0 {
			return "No saved scores found."
		}
		return tableMutedStyle.Render(m.scores.View())
	}
	return m.overview.View()
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down  Window: -/=  Filter: /  Quit: q"
	if m.activeTab == tabScores {
		help = "Nav: left/right  Select: up/down  Delete: d  Filter: /  Quit: q"
	}
	out := headerStyle.Render(help)
	if m.errMsg != "" {
		return out + "\n" + errorStyle.Render(m.errMsg)
	}
	if m.notice != "" {
		return out + "\n" + cardTitleStyle.Render(m.notice)
	}
	return out
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
