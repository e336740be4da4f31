package history

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/scoring"
	"github.com/verte-zerg/ropescore/internal/store"
)

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ropescore.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	inputs := []scoring.Input{
		{Text: "2 3 4", Version: scoring.RulebookNew},
		{Text: "1 2 3", Version: scoring.RulebookOld},
		{Text: "8", Version: scoring.RulebookNew},
	}
	ctx := context.Background()
	for i, in := range inputs {
		rec := model.NewScoreRecord("", in, scoring.Compute(in), time.Unix(int64(i)*60, 0))
		if _, err := st.InsertScore(ctx, rec); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	return st
}

func TestBuildReport(t *testing.T) {
	st := seedStore(t)
	report, err := BuildReport(context.Background(), st, model.HistoryFilter{TrendWindow: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(report.Records))
	}

	sum := report.Summary
	if sum.Count != 3 || sum.AvgDifficulty != 0.64 || sum.BestDifficulty != 0.85 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.AvgCustom != sum.AvgDifficulty || sum.BestCustom != sum.BestDifficulty {
		t.Fatalf("custom scores should equal difficulty without sliders: %+v", sum)
	}
	if sum.ByRulebook["new"] != 2 || sum.ByRulebook["old"] != 1 {
		t.Fatalf("unexpected rulebook counts: %v", sum.ByRulebook)
	}

	want := []float64{0.36, 0.54, 0.785}
	for i, v := range want {
		if math.Abs(report.Trend[i]-v) > 1e-9 {
			t.Fatalf("trend[%d] = %v, want %v", i, report.Trend[i], v)
		}
	}
}

func TestBuildReportLastAndRulebook(t *testing.T) {
	st := seedStore(t)
	report, err := BuildReport(context.Background(), st, model.HistoryFilter{Rulebook: "new", Last: 1})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Records) != 1 || report.Records[0].Input != "8" {
		t.Fatalf("unexpected records: %+v", report.Records)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum.Count != 0 || sum.BestDifficulty != 0 || sum.ByRulebook == nil {
		t.Fatalf("unexpected empty summary: %+v", sum)
	}
}

func TestMovingAverageAndSparkline(t *testing.T) {
	got := MovingAverage([]float64{1, 3, 5}, 2)
	if got[0] != 1 || got[1] != 2 || got[2] != 4 {
		t.Fatalf("unexpected moving average: %v", got)
	}
	if line := Sparkline([]float64{0, 1}); line != " @" {
		t.Fatalf("unexpected sparkline %q", line)
	}
	if line := Sparkline([]float64{2, 2, 2}); len(line) != 3 {
		t.Fatalf("unexpected flat sparkline %q", line)
	}
}

func TestParseSince(t *testing.T) {
	got, err := ParseSince(" 2024-05-01 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("ParseSince = %v, want %v", got, want)
	}
	for _, raw := range []string{"", "yesterday", "05/01/2024", "2024-13-01"} {
		if _, err := ParseSince(raw); err == nil {
			t.Fatalf("ParseSince(%q) should fail", raw)
		}
	}
}
