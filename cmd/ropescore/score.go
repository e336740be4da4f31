package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/ropescore/internal/config"
	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/scoring"
)

const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

var (
	scoreRulebook string
	scoreFormat   string
	scoreSave     bool
	scoreLabel    string
	scoreSliders  scoring.SliderState
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [levels...]",
		Short: "Compute the difficulty score for a list of levels",
		Example: `  ropescore score 2 3 4
  ropescore score "1; 2, 3" --rulebook old --format json
  ropescore score 4 4 5 --execution 0.05 --save --label "regionals"`,
		RunE: runScoreCmd,
	}
	cmd.Flags().StringVar(&scoreRulebook, "rulebook", defaultRulebook, "rulebook version (new or old)")
	cmd.Flags().StringVar(&scoreFormat, "format", formatText, "output format (text, json, markdown)")
	cmd.Flags().BoolVar(&scoreSave, "save", false, "save the score to history")
	cmd.Flags().StringVar(&scoreLabel, "label", "", "label stored with a saved score")
	cmd.Flags().Float64Var(&scoreSliders.Entertainment, "entertainment", 0, "entertainment offset (-0.15..0.15)")
	cmd.Flags().Float64Var(&scoreSliders.Execution, "execution", 0, "execution offset (-0.15..0.15)")
	cmd.Flags().Float64Var(&scoreSliders.Musicality, "musicality", 0, "musicality offset (-0.12..0.12)")
	cmd.Flags().Float64Var(&scoreSliders.Creativity, "creativity", 0, "creativity offset (-0.09..0.09)")
	cmd.Flags().Float64Var(&scoreSliders.Variety, "variety", 0, "variety offset (-0.09..0.09)")
	return cmd
}

func runScoreCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "rulebook", &scoreRulebook, fileCfg.Calculator.Rulebook)

	version, err := scoring.ParseRulebookVersion(scoreRulebook)
	if err != nil {
		return fmt.Errorf("invalid --rulebook: %w", err)
	}
	switch scoreFormat {
	case formatText, formatJSON, formatMarkdown:
	default:
		return fmt.Errorf("invalid --format %q (use text, json or markdown)", scoreFormat)
	}
	if err := scoreSliders.Validate(); err != nil {
		return fmt.Errorf("invalid slider: %w", err)
	}

	in := scoring.Input{Text: strings.Join(args, " "), Version: version, Sliders: scoreSliders}
	res := scoring.Compute(in)
	if err := res.Err(); err != nil {
		return err
	}

	var ref string
	if scoreSave {
		if len(res.Levels) == 0 {
			return fmt.Errorf("nothing to save: enter at least one level")
		}
		ref, err = saveScore(cmd, fileCfg, in, res)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch scoreFormat {
	case formatJSON:
		return writeScoreJSON(out, version, res, ref)
	case formatMarkdown:
		return writeScoreMarkdown(out, version, res, ref)
	default:
		return writeScoreText(out, version, res, ref)
	}
}

func saveScore(cmd *cobra.Command, fileCfg config.FileConfig, in scoring.Input, res scoring.Result) (string, error) {
	logger, err := newLogger(cmd, fileCfg)
	if err != nil {
		return "", err
	}
	defer func() { _ = logger.Sync() }()

	st, closeStore, err := openStore(logger)
	if err != nil {
		return "", err
	}
	defer closeStore()

	rec := model.NewScoreRecord(strings.TrimSpace(scoreLabel), in, res, time.Now())
	saved, err := st.InsertScore(cmd.Context(), rec)
	if err != nil {
		return "", fmt.Errorf("failed to save score: %w", err)
	}
	logger.Info("saved score", zap.String("ref", saved.Ref), zap.Float64("difficulty", saved.Difficulty))
	return saved.Ref, nil
}

func formatLevels(levels []float64) string {
	if len(levels) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(levels))
	for _, lv := range levels {
		parts = append(parts, strconv.FormatFloat(lv, 'g', -1, 64))
	}
	return strings.Join(parts, ", ")
}

func signedPct(p float64) string {
	s := scoring.FormatPct(p)
	if p > 0 {
		return "+" + s
	}
	return s
}

func writeScoreText(w io.Writer, version scoring.RulebookVersion, res scoring.Result, ref string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Levels:           %s\n", formatLevels(res.Levels))
	fmt.Fprintf(&b, "Rulebook:         %s. %s\n", version.Label(), version.Explain())
	fmt.Fprintf(&b, "Difficulty score: %s\n", scoring.FormatScore(res.Difficulty))
	fmt.Fprintf(&b, "Custom score:     %s (%s)\n", scoring.FormatScore(res.Custom.Score), signedPct(res.Custom.Pct))
	if ref != "" {
		fmt.Fprintf(&b, "Saved:            %s\n", ref)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-14s %8s %8s\n", "Category", "Min", "Max")
	for _, rg := range res.Ranges {
		fmt.Fprintf(&b, "%-14s %8s %8s\n", rg.Category.Title(), scoring.FormatScore(rg.Min), scoring.FormatScore(rg.Max))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeScoreMarkdown(w io.Writer, version scoring.RulebookVersion, res scoring.Result, ref string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "**Levels:** %s  \n", formatLevels(res.Levels))
	fmt.Fprintf(&b, "**%s:** %s  \n", version.Label(), version.Explain())
	fmt.Fprintf(&b, "**Difficulty score:** %s  \n", scoring.FormatScore(res.Difficulty))
	fmt.Fprintf(&b, "**Custom score:** %s (%s)\n", scoring.FormatScore(res.Custom.Score), signedPct(res.Custom.Pct))
	if ref != "" {
		fmt.Fprintf(&b, "\nSaved as `%s`.\n", ref)
	}
	b.WriteString("\n| Category | Min | Max |\n| --- | ---: | ---: |\n")
	for _, rg := range res.Ranges {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", rg.Category.Title(), scoring.FormatScore(rg.Min), scoring.FormatScore(rg.Max))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type jsonRange struct {
	Category string  `json:"category"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

type jsonScore struct {
	Levels        []float64           `json:"levels"`
	Rulebook      string              `json:"rulebook"`
	RawDifficulty float64             `json:"raw_difficulty"`
	Difficulty    float64             `json:"difficulty"`
	CustomScore   float64             `json:"custom_score"`
	Pct           float64             `json:"pct"`
	Sliders       scoring.SliderState `json:"sliders"`
	Ranges        []jsonRange         `json:"ranges"`
	Ref           string              `json:"ref,omitempty"`
}

func writeScoreJSON(w io.Writer, version scoring.RulebookVersion, res scoring.Result, ref string) error {
	levels := res.Levels
	if levels == nil {
		levels = []float64{}
	}
	payload := jsonScore{
		Levels:        levels,
		Rulebook:      version.String(),
		RawDifficulty: res.RawDifficulty,
		Difficulty:    res.Difficulty,
		CustomScore:   res.Custom.Score,
		Pct:           res.Custom.Pct,
		Sliders:       scoreSliders,
		Ranges:        make([]jsonRange, 0, len(res.Ranges)),
		Ref:           ref,
	}
	for _, rg := range res.Ranges {
		payload.Ranges = append(payload.Ranges, jsonRange{Category: string(rg.Category), Min: rg.Min, Max: rg.Max})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
