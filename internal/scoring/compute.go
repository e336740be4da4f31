package scoring

import (
	"errors"
	"fmt"
	"math"
)

// MsgTooLarge is reported when valid levels produce a score beyond float range.
const MsgTooLarge = "Difficulty is too large."

// ErrTooLarge reports a result that cannot be represented as a finite number.
var ErrTooLarge = errors.New(MsgTooLarge)

// Input is everything the calculator reads from the user.
type Input struct {
	Text    string
	Version RulebookVersion
	Sliders SliderState
}

// Result is derived entirely from an Input.
type Result struct {
	Tokens        []Token
	Levels        []float64
	Validation    ValidationResult
	RawDifficulty float64
	Difficulty    float64
	Ranges        Ranges
	Custom        CustomScore
}

// Compute runs the whole pipeline. Invalid input produces zero scores and
// carries the validation message.
func Compute(in Input) Result {
	tokens := ParseTokens(in.Text)
	levels := Values(tokens)
	res := Result{
		Tokens:     tokens,
		Levels:     levels,
		Validation: ValidateLevels(levels),
	}
	if res.Validation.OK {
		res.RawDifficulty = DifficultyRaw(levels)
		res.Difficulty = Difficulty(levels, in.Version)
	}
	res.Ranges = PresentationRanges(res.Difficulty)
	res.Custom = EditedPresentation(res.Difficulty, in.Sliders)
	return res
}

// Err returns the validation failure, or ErrTooLarge when any score
// overflowed.
func (r Result) Err() error {
	if err := r.Validation.Err(); err != nil {
		return err
	}
	if !r.Finite() {
		return ErrTooLarge
	}
	return nil
}

// Finite reports whether every derived number is finite.
func (r Result) Finite() bool {
	values := []float64{r.RawDifficulty, r.Difficulty, r.Custom.Score, r.Custom.Pct}
	for _, rg := range r.Ranges {
		values = append(values, rg.Min, rg.Max)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FormatScore renders a score with exactly two decimals.
func FormatScore(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		x = 0
	}
	return fmt.Sprintf("%.2f", Round2(x))
}

// FormatPct renders a fraction as a percentage, e.g. 0.15 -> "15%".
func FormatPct(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		p = 0
	}
	return fmt.Sprintf("%s%%", formatTrimmed(Round2(p*100)))
}

func formatTrimmed(v float64) string {
	if v == 0 {
		return "0"
	}
	return fmt.Sprintf("%g", v)
}
