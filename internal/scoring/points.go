package scoring

import "math"

const (
	pointBase   = 0.1
	pointGrowth = 1.5
)

// PointValue maps one difficulty level to its point value: 0.1 × 1.5^level
// rounded to two decimals. Level zero and non-finite levels are worth 0.
func PointValue(level float64) float64 {
	if level == 0 || math.IsNaN(level) || math.IsInf(level, 0) {
		return 0
	}
	return Round2(pointBase * math.Pow(pointGrowth, level))
}

// DifficultyRaw sums the point values of all levels.
func DifficultyRaw(levels []float64) float64 {
	sum := 0.0
	for _, lv := range levels {
		sum += PointValue(lv)
	}
	return Round2(sum)
}

// Difficulty applies the rulebook divisor to the raw total. An invalid
// level list yields 0.
func Difficulty(levels []float64, version RulebookVersion) float64 {
	if !ValidateLevels(levels).OK {
		return 0
	}
	raw := DifficultyRaw(levels)
	if version == RulebookOld {
		return Round2(raw)
	}
	return Round2(raw / version.Divisor())
}
