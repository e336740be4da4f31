package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/verte-zerg/ropescore/internal/history"
	"github.com/verte-zerg/ropescore/internal/logging"
	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/scoring"
	"github.com/verte-zerg/ropescore/internal/store"
)

type scoreRequest struct {
	Levels   string              `json:"levels"`
	Rulebook string              `json:"rulebook"`
	Sliders  scoring.SliderState `json:"sliders"`
	Save     bool                `json:"save"`
	Label    string              `json:"label"`
}

type rangePayload struct {
	Category string  `json:"category"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

type customPayload struct {
	Score float64 `json:"score"`
	Pct   float64 `json:"pct"`
}

type formattedPayload struct {
	Difficulty  string `json:"difficulty"`
	CustomScore string `json:"custom_score"`
	Pct         string `json:"pct"`
}

type scoreResponse struct {
	Levels        []float64        `json:"levels"`
	Rulebook      string           `json:"rulebook"`
	RawDifficulty float64          `json:"raw_difficulty"`
	Difficulty    float64          `json:"difficulty"`
	Ranges        []rangePayload   `json:"ranges"`
	Custom        customPayload    `json:"custom"`
	Formatted     formattedPayload `json:"formatted"`
	Ref           string           `json:"ref,omitempty"`
}

type recordPayload struct {
	Ref           string              `json:"ref"`
	CreatedAt     string              `json:"created_at"`
	Label         string              `json:"label,omitempty"`
	Rulebook      string              `json:"rulebook"`
	Input         string              `json:"input"`
	LevelsCount   int                 `json:"levels_count"`
	RawDifficulty float64             `json:"raw_difficulty"`
	Difficulty    float64             `json:"difficulty"`
	CustomScore   float64             `json:"custom_score"`
	Pct           float64             `json:"pct"`
	Sliders       scoring.SliderState `json:"sliders"`
}

func newRecordPayload(rec model.ScoreRecord) recordPayload {
	return recordPayload{
		Ref:           rec.Ref,
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
		Label:         rec.Label,
		Rulebook:      rec.Rulebook,
		Input:         rec.Input,
		LevelsCount:   rec.LevelsCount,
		RawDifficulty: rec.RawDifficulty,
		Difficulty:    rec.Difficulty,
		CustomScore:   rec.CustomScore,
		Pct:           rec.Pct,
		Sliders:       rec.Sliders,
	}
}

type summaryPayload struct {
	Count          int            `json:"count"`
	AvgDifficulty  float64        `json:"avg_difficulty"`
	BestDifficulty float64        `json:"best_difficulty"`
	AvgCustom      float64        `json:"avg_custom_score"`
	BestCustom     float64        `json:"best_custom_score"`
	ByRulebook     map[string]int `json:"by_rulebook"`
}

type scoreListResponse struct {
	Scores  []recordPayload `json:"scores"`
	Summary summaryPayload  `json:"summary"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    s.now().Sub(s.started).String(),
		"history":   s.store != nil,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, newError("invalid_json", fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest))
		return
	}
	version, err := scoring.ParseRulebookVersion(req.Rulebook)
	if err != nil {
		writeError(w, r, newError("invalid_rulebook", err.Error(), http.StatusBadRequest))
		return
	}
	if err := req.Sliders.Validate(); err != nil {
		writeError(w, r, newError("invalid_sliders", err.Error(), http.StatusBadRequest))
		return
	}

	in := scoring.Input{Text: req.Levels, Version: version, Sliders: req.Sliders}
	res := scoring.Compute(in)
	if !res.Validation.OK {
		writeError(w, r, newError("invalid_levels", res.Validation.Error, http.StatusBadRequest))
		return
	}
	if errors.Is(res.Err(), scoring.ErrTooLarge) {
		writeError(w, r, newError("invalid_levels", scoring.MsgTooLarge, http.StatusBadRequest))
		return
	}

	resp := newScoreResponse(version, res)
	if req.Save || s.cfg.SaveAll {
		if s.store == nil {
			writeError(w, r, newError("history_disabled", "score history is not configured", http.StatusNotFound))
			return
		}
		saved, err := s.store.InsertScore(r.Context(), model.NewScoreRecord(strings.TrimSpace(req.Label), in, res, s.now()))
		if err != nil {
			logging.FromContext(r.Context()).Error("failed to save score", zap.Error(err))
			writeError(w, r, newError("store_error", "failed to save score", http.StatusInternalServerError))
			return
		}
		resp.Ref = saved.Ref
	}
	writeJSON(w, http.StatusOK, resp)
}

func newScoreResponse(version scoring.RulebookVersion, res scoring.Result) scoreResponse {
	levels := res.Levels
	if levels == nil {
		levels = []float64{}
	}
	ranges := make([]rangePayload, 0, len(res.Ranges))
	for _, rg := range res.Ranges {
		ranges = append(ranges, rangePayload{Category: string(rg.Category), Min: rg.Min, Max: rg.Max})
	}
	return scoreResponse{
		Levels:        levels,
		Rulebook:      version.String(),
		RawDifficulty: res.RawDifficulty,
		Difficulty:    res.Difficulty,
		Ranges:        ranges,
		Custom:        customPayload{Score: res.Custom.Score, Pct: res.Custom.Pct},
		Formatted: formattedPayload{
			Difficulty:  scoring.FormatScore(res.Difficulty),
			CustomScore: scoring.FormatScore(res.Custom.Score),
			Pct:         scoring.FormatPct(res.Custom.Pct),
		},
	}
}

func (s *Server) pointValue(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("level"))
	if raw == "" {
		writeError(w, r, newError("missing_level", "query parameter level is required", http.StatusBadRequest))
		return
	}
	level := scoring.ParseLevel(raw).Value
	if v := scoring.ValidateLevels([]float64{level}); !v.OK {
		writeError(w, r, newError("invalid_level", v.Error, http.StatusBadRequest))
		return
	}
	pv := scoring.PointValue(level)
	if math.IsInf(pv, 0) {
		writeError(w, r, newError("invalid_level", "level is too large", http.StatusBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"level":       level,
		"point_value": pv,
	})
}

func (s *Server) reference(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}

func (s *Server) listScores(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, newError("history_disabled", "score history is not configured", http.StatusNotFound))
		return
	}
	filter, err := parseHistoryFilter(r)
	if err != nil {
		writeError(w, r, newError("invalid_filter", err.Error(), http.StatusBadRequest))
		return
	}
	records, err := s.store.ListScores(r.Context(), filter)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list scores", zap.Error(err))
		writeError(w, r, newError("store_error", "failed to list scores", http.StatusInternalServerError))
		return
	}
	resp := scoreListResponse{Scores: make([]recordPayload, 0, len(records))}
	for _, rec := range records {
		resp.Scores = append(resp.Scores, newRecordPayload(rec))
	}
	sum := history.Summarize(records)
	resp.Summary = summaryPayload{
		Count:          sum.Count,
		AvgDifficulty:  sum.AvgDifficulty,
		BestDifficulty: sum.BestDifficulty,
		AvgCustom:      sum.AvgCustom,
		BestCustom:     sum.BestCustom,
		ByRulebook:     sum.ByRulebook,
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseHistoryFilter(r *http.Request) (model.HistoryFilter, error) {
	q := r.URL.Query()
	var filter model.HistoryFilter
	if raw := strings.TrimSpace(q.Get("rulebook")); raw != "" {
		version, err := scoring.ParseRulebookVersion(raw)
		if err != nil {
			return filter, err
		}
		filter.Rulebook = version.String()
	}
	if raw := strings.TrimSpace(q.Get("since")); raw != "" {
		since, err := history.ParseSince(raw)
		if err != nil {
			return filter, err
		}
		filter.Since = &since
	}
	if raw := strings.TrimSpace(q.Get("last")); raw != "" {
		last, err := strconv.Atoi(raw)
		if err != nil || last < 0 {
			return filter, fmt.Errorf("invalid last %q (use 0 or a positive integer)", raw)
		}
		filter.Last = last
	}
	return filter, nil
}

func (s *Server) getScore(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, newError("history_disabled", "score history is not configured", http.StatusNotFound))
		return
	}
	ref := chi.URLParam(r, "ref")
	rec, err := s.store.GetScore(r.Context(), ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, newError("score_not_found", fmt.Sprintf("no score with ref %s", ref), http.StatusNotFound))
			return
		}
		logging.FromContext(r.Context()).Error("failed to load score", zap.String("ref", ref), zap.Error(err))
		writeError(w, r, newError("store_error", "failed to load score", http.StatusInternalServerError))
		return
	}
	writeJSON(w, http.StatusOK, newRecordPayload(rec))
}

func (s *Server) deleteScore(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, newError("history_disabled", "score history is not configured", http.StatusNotFound))
		return
	}
	ref := chi.URLParam(r, "ref")
	if err := s.store.DeleteScore(r.Context(), ref); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, newError("score_not_found", fmt.Sprintf("no score with ref %s", ref), http.StatusNotFound))
			return
		}
		logging.FromContext(r.Context()).Error("failed to delete score", zap.String("ref", ref), zap.Error(err))
		writeError(w, r, newError("store_error", "failed to delete score", http.StatusInternalServerError))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
