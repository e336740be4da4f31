package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/reference"
	"github.com/verte-zerg/ropescore/internal/scoring"
)

type fakeStore struct {
	records []model.ScoreRecord
	failErr error
}

func (f *fakeStore) InsertScore(_ context.Context, rec model.ScoreRecord) (model.ScoreRecord, error) {
	if f.failErr != nil {
		return model.ScoreRecord{}, f.failErr
	}
	rec.ID = int64(len(f.records) + 1)
	rec.Ref = "abcdef0123456789"
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeStore) ListScores(_ context.Context, filter model.HistoryFilter) ([]model.ScoreRecord, error) {
	out := f.records
	if filter.Last > 0 && len(out) > filter.Last {
		out = out[len(out)-filter.Last:]
	}
	return out, nil
}

func (f *fakeStore) Count(context.Context) (int, error) {
	return len(f.records), nil
}

func newTestModel(t *testing.T, cfg model.Config, st Store) *Model {
	t.Helper()
	cat, err := reference.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	m := NewModel(cfg, st, cat, nil)
	m.now = func() time.Time { return time.Unix(1000, 0) }
	return m
}

func press(m *Model, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTypingRecomputes(t *testing.T) {
	m := newTestModel(t, model.Config{}, &fakeStore{})
	press(m, typeText("2 3 4"))
	if m.result.Difficulty != 0.36 {
		t.Fatalf("difficulty = %v, want 0.36", m.result.Difficulty)
	}
	press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.version != scoring.RulebookOld || m.result.Difficulty != 1.08 {
		t.Fatalf("expected old rulebook score 1.08, got %v (%v)", m.result.Difficulty, m.version)
	}
}

func TestInvalidInputShowsMessage(t *testing.T) {
	m := newTestModel(t, model.Config{Levels: "2 -1"}, &fakeStore{})
	if m.result.Validation.OK || m.result.Difficulty != 0 {
		t.Fatalf("expected invalid result, got %+v", m.result)
	}
	if !strings.Contains(m.View(), scoring.MsgNegativeLevel) {
		t.Fatalf("expected validation message in view")
	}
}

func TestOverflowShowsMessageAndIsNotSaved(t *testing.T) {
	st := &fakeStore{}
	m := newTestModel(t, model.Config{Levels: "1800"}, st)
	if m.result.Finite() {
		t.Fatalf("expected an overflowed result, got %+v", m.result)
	}
	if !strings.Contains(m.View(), scoring.MsgTooLarge) {
		t.Fatalf("expected overflow message in view")
	}
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if len(st.records) != 0 || !m.statusErr {
		t.Fatalf("overflowed score should not be saved")
	}
}

func TestSlidersAdjustClampAndReset(t *testing.T) {
	m := newTestModel(t, model.Config{Levels: "8", Step: 0.05}, &fakeStore{})
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != focusSliders {
		t.Fatalf("expected slider focus")
	}
	for i := 0; i < 5; i++ {
		press(m, tea.KeyMsg{Type: tea.KeyRight})
	}
	if got := m.sliders.Entertainment; got != 0.15 {
		t.Fatalf("entertainment = %v, want clamp at 0.15", got)
	}
	if m.result.Custom.Pct != 0.15 {
		t.Fatalf("pct = %v, want 0.15", m.result.Custom.Pct)
	}
	press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyLeft})
	if got := m.sliders.Execution; got != -0.05 {
		t.Fatalf("execution = %v, want -0.05", got)
	}
	press(m, tea.KeyMsg{Type: tea.KeyCtrlX})
	if m.sliders != (scoring.SliderState{}) || m.result.Custom.Score != m.result.Difficulty {
		t.Fatalf("expected reset sliders, got %+v", m.sliders)
	}
}

func TestSaveOnlyWhenValid(t *testing.T) {
	st := &fakeStore{}
	m := newTestModel(t, model.Config{Levels: "2, x"}, st)
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if len(st.records) != 0 || !m.statusErr {
		t.Fatalf("invalid input should not be saved")
	}

	m = newTestModel(t, model.Config{Levels: "2 3 4"}, st)
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if len(st.records) != 1 {
		t.Fatalf("expected one saved record, got %d", len(st.records))
	}
	if st.records[0].Difficulty != 0.36 || st.records[0].Rulebook != "new" {
		t.Fatalf("unexpected record %+v", st.records[0])
	}
	footer := m.renderFooter()
	for _, want := range []string{"Saved 1", "Last 0.36", "abcdef01"} {
		if !strings.Contains(footer, want) {
			t.Fatalf("footer %q missing %q", footer, want)
		}
	}
}

func TestSaveFailureKeepsCount(t *testing.T) {
	st := &fakeStore{failErr: errors.New("disk full")}
	m := newTestModel(t, model.Config{Levels: "1"}, st)
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.savedCount != 0 || !m.statusErr {
		t.Fatalf("expected failed save status, got count=%d status=%q", m.savedCount, m.status)
	}
}

func TestFooterLoadsExistingHistory(t *testing.T) {
	st := &fakeStore{records: []model.ScoreRecord{{Difficulty: 1.5, Rulebook: "old"}, {Difficulty: 0.85, Rulebook: "new"}}}
	m := newTestModel(t, model.Config{}, st)
	footer := m.renderFooter()
	if !strings.Contains(footer, "Saved 2") || !strings.Contains(footer, "Last 0.85 · new") {
		t.Fatalf("unexpected footer %q", footer)
	}
}

func TestReferenceTab(t *testing.T) {
	m := newTestModel(t, model.Config{Rulebook: scoring.RulebookOld}, nil)
	press(m, tea.WindowSizeMsg{Width: 60, Height: 30}, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.activeTab != tabReference {
		t.Fatalf("expected reference tab")
	}
	if !strings.Contains(m.View(), "Level") {
		t.Fatalf("expected reference content in view")
	}
	press(m, typeText("5"))
	if m.levels.Value() != "" {
		t.Fatalf("reference tab should not edit levels")
	}
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.status != "" {
		t.Fatalf("save should be ignored on reference tab, got %q", m.status)
	}
}

func TestSliderBar(t *testing.T) {
	if got := sliderBar(0, 0.15, 5); got != "[──●──]" {
		t.Fatalf("centered bar = %q", got)
	}
	if got := sliderBar(0.15, 0.15, 5); got != "[──┼─●]" {
		t.Fatalf("max bar = %q", got)
	}
	if got := sliderBar(-0.15, 0.15, 5); got != "[●─┼──]" {
		t.Fatalf("min bar = %q", got)
	}
}
