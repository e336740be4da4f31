// Package tui provides the Bubble Tea calculator interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/ropescore/internal/logging"
	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/reference"
	"github.com/verte-zerg/ropescore/internal/scoring"
)

const (
	tabCalculator = iota
	tabReference
)

const (
	focusLevels = iota
	focusSliders
)

// DefaultStep is the slider increment used when none is configured.
const DefaultStep = 0.01

// Store is the part of the score history the calculator uses.
type Store interface {
	InsertScore(ctx context.Context, rec model.ScoreRecord) (model.ScoreRecord, error)
	ListScores(ctx context.Context, filter model.HistoryFilter) ([]model.ScoreRecord, error)
	Count(ctx context.Context) (int, error)
}

// Model implements the Bubble Tea calculator UI.
type Model struct {
	store   Store
	catalog reference.Catalog
	log     *zap.Logger
	now     func() time.Time

	width  int
	height int

	tabs      []string
	activeTab int
	focus     int
	slider    int
	step      float64

	levels    textinput.Model
	reference viewport.Model

	version scoring.RulebookVersion
	sliders scoring.SliderState
	result  scoring.Result

	savedCount int
	lastSaved  *model.ScoreRecord
	status     string
	statusErr  bool
}

// NewModel constructs a calculator model. A nil store disables saving.
func NewModel(cfg model.Config, st Store, cat reference.Catalog, log *zap.Logger) *Model {
	if log == nil {
		log = logging.Nop()
	}
	step := cfg.Step
	if step <= 0 {
		step = DefaultStep
	}
	m := &Model{
		store:     st,
		catalog:   cat,
		log:       log,
		now:       time.Now,
		tabs:      []string{"Calculator", "Reference"},
		step:      step,
		version:   cfg.Rulebook,
		reference: viewport.New(0, 0),
	}
	m.levels = textinput.New()
	m.levels.Prompt = "Levels: "
	m.levels.Placeholder = "e.g. 2, 3, 4 5"
	m.levels.CharLimit = 0
	m.levels.Cursor.SetMode(cursor.CursorBlink)
	m.levels.SetValue(cfg.Levels)
	m.levels.Focus()
	m.recompute()
	m.loadFooterStats()
	m.renderReference()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+t":
			m.activeTab = (m.activeTab + 1) % len(m.tabs)
			return m, tea.ClearScreen
		}
		if m.activeTab == tabReference {
			var cmd tea.Cmd
			m.reference, cmd = m.reference.Update(msg)
			return m, cmd
		}
		return m.updateCalculator(msg)
	}
	if m.activeTab == tabCalculator && m.focus == focusLevels {
		var cmd tea.Cmd
		m.levels, cmd = m.levels.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateCalculator(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		return m, m.toggleFocus()
	case "ctrl+r":
		m.version = m.version.Toggle()
		m.recompute()
		return m, nil
	case "ctrl+x":
		m.sliders.Reset()
		m.recompute()
		return m, nil
	case "ctrl+s":
		m.save()
		return m, nil
	}
	if m.focus == focusSliders {
		m.updateSliders(msg)
		return m, nil
	}
	var cmd tea.Cmd
	m.levels, cmd = m.levels.Update(msg)
	m.recompute()
	return m, cmd
}

func (m *Model) updateSliders(msg tea.KeyMsg) {
	count := len(scoring.SliderCategories)
	switch msg.String() {
	case "up", "k":
		m.slider = (m.slider - 1 + count) % count
	case "down", "j":
		m.slider = (m.slider + 1) % count
	case "left", "h":
		m.sliders.Nudge(scoring.SliderCategories[m.slider], -m.step)
		m.recompute()
	case "right", "l":
		m.sliders.Nudge(scoring.SliderCategories[m.slider], m.step)
		m.recompute()
	case "0":
		m.sliders.Set(scoring.SliderCategories[m.slider], 0)
		m.recompute()
	}
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusLevels {
		m.focus = focusSliders
		m.levels.Blur()
		return nil
	}
	m.focus = focusLevels
	return m.levels.Focus()
}

func (m *Model) input() scoring.Input {
	return scoring.Input{Text: m.levels.Value(), Version: m.version, Sliders: m.sliders}
}

func (m *Model) recompute() {
	m.result = scoring.Compute(m.input())
}

func (m *Model) save() {
	if m.store == nil {
		m.setStatus("History is not available.", true)
		return
	}
	if err := m.result.Err(); err != nil {
		m.setStatus("Not saved: "+err.Error(), true)
		return
	}
	if len(m.result.Levels) == 0 {
		m.setStatus("Not saved: enter at least one level.", true)
		return
	}
	rec := model.NewScoreRecord("", m.input(), m.result, m.now())
	saved, err := m.store.InsertScore(context.Background(), rec)
	if err != nil {
		m.log.Error("failed to save score", zap.Error(err))
		m.setStatus("Failed to save score.", true)
		return
	}
	m.log.Debug("saved score", zap.String("ref", saved.Ref), zap.Float64("difficulty", saved.Difficulty))
	m.savedCount++
	m.lastSaved = &saved
	m.setStatus(fmt.Sprintf("Saved %s", shortRef(saved.Ref)), false)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	ctx := context.Background()
	count, err := m.store.Count(ctx)
	if err != nil {
		m.log.Error("failed to count saved scores", zap.Error(err))
		return
	}
	m.savedCount = count
	if count == 0 {
		return
	}
	recent, err := m.store.ListScores(ctx, model.HistoryFilter{Last: 1})
	if err != nil {
		m.log.Error("failed to load last saved score", zap.Error(err))
		return
	}
	if len(recent) > 0 {
		m.lastSaved = &recent[len(recent)-1]
	}
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.levels.Width = max(10, min(m.width, maxContentWidth)-len(m.levels.Prompt)-2)
	m.reference.Width = m.width
	m.reference.Height = max(1, m.height-headerHeight()-1)
	m.renderReference()
}

func (m *Model) renderReference() {
	var b strings.Builder
	if err := m.catalog.Render(&b, reference.SectionAll); err != nil {
		m.log.Error("failed to render reference", zap.Error(err))
		m.reference.SetContent("Failed to render reference tables.")
		return
	}
	m.reference.SetContent(wrapText(strings.TrimRight(b.String(), "\n"), m.reference.Width))
}

func shortRef(ref string) string {
	if len(ref) <= 8 {
		return ref
	}
	return ref[:8]
}
