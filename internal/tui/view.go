package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/ropescore/internal/scoring"
)

const (
	maxContentWidth = 72
	sliderBarWidth  = 21
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// View implements tea.Model.
func (m *Model) View() string {
	body := m.renderCalculator()
	help := "tab: levels/sliders  ctrl+r: rulebook  ctrl+x: reset  ctrl+s: save  ctrl+t: reference  esc: quit"
	if m.activeTab == tabReference {
		body = m.reference.View()
		help = "up/down/pgup/pgdn: scroll  ctrl+t: calculator  esc: quit"
	}
	footer := m.renderFooter() + "\n" + mutedStyle.Render(help)
	if m.width == 0 || m.height == 0 {
		return strings.Join([]string{m.renderTabs(), body, footer}, "\n")
	}
	bodyHeight := max(1, m.height-headerHeight()-lipgloss.Height(footer))
	if m.activeTab == tabCalculator {
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Top, body)
	}
	return strings.Join([]string{m.renderTabs(), body, footer}, "\n")
}

func headerHeight() int {
	return max(1, lipgloss.Height(activeTabStyle.Render("X")))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeTabStyle.Render(tab))
		} else {
			parts = append(parts, inactiveTabStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderCalculator() string {
	res := m.result
	lines := []string{
		m.levels.View(),
		mutedStyle.Render(fmt.Sprintf("%s (ctrl+r to switch). %s", m.version.Label(), m.version.Explain())),
	}
	switch {
	case !res.Validation.OK:
		lines = append(lines, errorStyle.Render(res.Validation.Error))
	case !res.Finite():
		lines = append(lines, errorStyle.Render(scoring.MsgTooLarge))
	default:
		lines = append(lines, "")
	}
	lines = append(lines,
		"",
		labelStyle.Render("Difficulty score: ")+valueStyle.Render(scoring.FormatScore(res.Difficulty)),
		labelStyle.Render("Custom score:     ")+valueStyle.Render(scoring.FormatScore(res.Custom.Score))+
			mutedStyle.Render(fmt.Sprintf("  (%s)", signedPct(res.Custom.Pct))),
		"",
		renderRanges(res.Ranges),
		"",
		m.renderSliders(),
		"",
		mutedStyle.Render("Rules: "+m.catalog.Links.Rules),
		mutedStyle.Render("Difficulty: "+m.catalog.Links.Difficulty),
	)
	return strings.Join(lines, "\n")
}

func renderRanges(ranges scoring.Ranges) string {
	lines := []string{labelStyle.Render(fmt.Sprintf("%-14s %8s %8s", "Category", "Min", "Max"))}
	for _, rg := range ranges {
		lines = append(lines, fmt.Sprintf("%-14s %8s %8s", rg.Category.Title(), scoring.FormatScore(rg.Min), scoring.FormatScore(rg.Max)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSliders() string {
	title := "Presentation sliders"
	if m.focus == focusSliders {
		title += " (up/down: select, left/right: adjust, 0: zero)"
	} else {
		title += " (tab to adjust)"
	}
	lines := []string{labelStyle.Render(title)}
	for i, c := range scoring.SliderCategories {
		v := m.sliders.Value(c)
		line := fmt.Sprintf("%-14s %s %+.2f", c.Title(), sliderBar(v, c.Limit(), sliderBarWidth), v)
		if m.focus == focusSliders && i == m.slider {
			lines = append(lines, selectedStyle.Render("> "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}
	return strings.Join(lines, "\n")
}

// sliderBar draws v within [-limit, limit] as a marker on a fixed-width track.
func sliderBar(v, limit float64, width int) string {
	if width < 3 {
		width = 3
	}
	pos := width / 2
	if limit > 0 {
		pos = int(math.Round((v + limit) / (2 * limit) * float64(width-1)))
		pos = max(0, min(width-1, pos))
	}
	track := []rune(strings.Repeat("─", width))
	track[width/2] = '┼'
	track[pos] = '●'
	return "[" + string(track) + "]"
}

func signedPct(p float64) string {
	s := scoring.FormatPct(p)
	if p > 0 {
		return "+" + s
	}
	return s
}

func (m *Model) renderFooter() string {
	segments := []string{fmt.Sprintf("Saved %d", m.savedCount)}
	if m.lastSaved != nil {
		segments = append(segments, fmt.Sprintf("Last %s · %s", scoring.FormatScore(m.lastSaved.Difficulty), m.lastSaved.Rulebook))
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.status == "" {
		return footer
	}
	if m.statusErr {
		return footer + "  " + errorStyle.Render(m.status)
	}
	return footer + "  " + valueStyle.Render(m.status)
}
