package history

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotTrend(t *testing.T) {
	var buf bytes.Buffer
	err := PlotTrend(&buf, "Trend", []Series{
		{Name: "difficulty", Values: []float64{0.5, 1, 1.5, 1}},
		{Name: "custom", Values: []float64{0.6, 1.2}},
		{Name: "empty"},
	}, 12, 4, false)
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1+4+1 {
		t.Fatalf("expected 6 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "Trend" {
		t.Fatalf("unexpected title %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  1.50") || !strings.HasPrefix(lines[4], "  0.50") {
		t.Fatalf("unexpected axis labels: %q / %q", lines[1], lines[4])
	}
	if strings.Contains(buf.String(), "empty") {
		t.Fatalf("empty series should be skipped")
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("unexpected color codes")
	}
}

func TestPlotTrendNothingToDraw(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotTrend(&buf, "Trend", nil, 10, 4, false); err != nil {
		t.Fatalf("plot: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80); got != 80-axisLabelWidth-2 {
		t.Fatalf("unexpected width %d", got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width, got %d", got)
	}
}
