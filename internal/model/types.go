// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/verte-zerg/ropescore/internal/scoring"
)

// Config defines calculator settings.
type Config struct {
	Rulebook scoring.RulebookVersion
	Levels   string
	Step     float64
}

// HistoryFilter selects saved scores for listing and reports.
type HistoryFilter struct {
	Rulebook    string
	Since       *time.Time
	Last        int
	TrendWindow int
}

// ScoreRecord is a saved calculator result.
type ScoreRecord struct {
	ID            int64
	Ref           string
	CreatedAt     time.Time
	Label         string
	Rulebook      string
	Input         string
	LevelsCount   int
	RawDifficulty float64
	Difficulty    float64
	Pct           float64
	CustomScore   float64
	Sliders       scoring.SliderState
}

// NewScoreRecord captures a valid computation for storage.
func NewScoreRecord(label string, in scoring.Input, res scoring.Result, now time.Time) ScoreRecord {
	return ScoreRecord{
		CreatedAt:     now,
		Label:         label,
		Rulebook:      in.Version.String(),
		Input:         in.Text,
		LevelsCount:   len(res.Levels),
		RawDifficulty: res.RawDifficulty,
		Difficulty:    res.Difficulty,
		Pct:           res.Custom.Pct,
		CustomScore:   res.Custom.Score,
		Sliders:       in.Sliders,
	}
}
