package history

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/ropescore/internal/model"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Label", "Difficulty", "Custom"}
	rows := [][]string{
		{"final", "0.36", "0.40"},
		{"warm-up run", "12.50", "9.00"},
	}
	lines := formatTable(headers, rows, map[int]bool{1: true, 2: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Label       Difficulty Custom" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "final             0.36   0.40" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "warm-up run      12.50   9.00" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestRenderTableAndSummary(t *testing.T) {
	records := []model.ScoreRecord{{
		Ref:         "0123456789abcdef",
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Label:       "finals",
		Rulebook:    "new",
		LevelsCount: 3,
		Difficulty:  0.36,
		CustomScore: 0.4,
		Pct:         0.1,
	}}
	var buf bytes.Buffer
	if err := RenderTable(&buf, records); err != nil {
		t.Fatalf("render table: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Ref", "01234567", "2024-05-01 10:00", "finals", "0.36", "0.40", "10%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}

	buf.Reset()
	if err := RenderSummary(&buf, Summarize(records)); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if !strings.Contains(buf.String(), "Scores: 1 (new=1)") {
		t.Fatalf("unexpected summary: %q", buf.String())
	}

	buf.Reset()
	if err := RenderTable(&buf, nil); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if !strings.Contains(buf.String(), "No saved scores") {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}
}
