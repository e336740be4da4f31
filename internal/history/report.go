// Package history summarizes, renders and exports saved scores.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/scoring"
)

// SinceLayout is the date format accepted for the since filter.
const SinceLayout = "2006-01-02"

// ParseSince reads a since date as midnight UTC, the zone scores are stored
// and displayed in.
func ParseSince(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := time.ParseInLocation(SinceLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid since date %q (expected YYYY-MM-DD)", raw)
	}
	return parsed, nil
}

// Lister is the part of the store a report needs.
type Lister interface {
	ListScores(ctx context.Context, filter model.HistoryFilter) ([]model.ScoreRecord, error)
}

// Summary aggregates a set of saved scores.
type Summary struct {
	Count          int
	AvgDifficulty  float64
	BestDifficulty float64
	AvgCustom      float64
	BestCustom     float64
	ByRulebook     map[string]int
}

// Report contains precomputed data for history rendering.
type Report struct {
	Records []model.ScoreRecord
	Summary Summary
	Trend   []float64
}

// BuildReport loads saved scores and prepares summary and trend data.
func BuildReport(ctx context.Context, st Lister, filter model.HistoryFilter) (Report, error) {
	records, err := st.ListScores(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	difficulties := make([]float64, len(records))
	for i, rec := range records {
		difficulties[i] = rec.Difficulty
	}
	return Report{
		Records: records,
		Summary: Summarize(records),
		Trend:   MovingAverage(difficulties, filter.TrendWindow),
	}, nil
}

// Summarize computes averages and bests over records.
func Summarize(records []model.ScoreRecord) Summary {
	sum := Summary{ByRulebook: map[string]int{}}
	if len(records) == 0 {
		return sum
	}
	var totalDifficulty, totalCustom float64
	for i, rec := range records {
		totalDifficulty += rec.Difficulty
		totalCustom += rec.CustomScore
		if i == 0 || rec.Difficulty > sum.BestDifficulty {
			sum.BestDifficulty = rec.Difficulty
		}
		if i == 0 || rec.CustomScore > sum.BestCustom {
			sum.BestCustom = rec.CustomScore
		}
		sum.ByRulebook[rec.Rulebook]++
	}
	sum.Count = len(records)
	sum.AvgDifficulty = scoring.Round2(totalDifficulty / float64(len(records)))
	sum.AvgCustom = scoring.Round2(totalCustom / float64(len(records)))
	return sum
}
