package scoring

import (
	"fmt"
	"math"
	"strings"
)

// Category is a judged presentation component.
type Category string

const (
	Presentation  Category = "presentation"
	Entertainment Category = "entertainment"
	Execution     Category = "execution"
	Musicality    Category = "musicality"
	Creativity    Category = "creativity"
	Variety       Category = "variety"
)

// MaxPresentationAffect caps the combined presentation deviation.
const MaxPresentationAffect = 0.6

// Categories lists every category in display order.
var Categories = []Category{Presentation, Entertainment, Execution, Musicality, Creativity, Variety}

// SliderCategories are the five components a user can adjust.
var SliderCategories = []Category{Entertainment, Execution, Musicality, Creativity, Variety}

var categoryShares = map[Category]float64{
	Presentation:  1,
	Entertainment: 0.25,
	Execution:     0.25,
	Musicality:    0.2,
	Creativity:    0.15,
	Variety:       0.15,
}

// Limit returns the maximum fractional affect of the category on the base score.
func (c Category) Limit() float64 {
	return Round2(MaxPresentationAffect * categoryShares[c])
}

// Title is the capitalized display name.
func (c Category) Title() string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseCategory resolves a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryShares[c]; !ok {
		return "", fmt.Errorf("unknown presentation category %q", s)
	}
	return c, nil
}

// Range is the min/max score band for one category.
type Range struct {
	Category Category
	Min      float64
	Max      float64
}

// Ranges holds one band per category in display order.
type Ranges []Range

// Get returns the band for a category.
func (r Ranges) Get(c Category) (Range, bool) {
	for _, rg := range r {
		if rg.Category == c {
			return rg, true
		}
	}
	return Range{}, false
}

// PresentationRanges derives the symmetric min/max bands around base.
func PresentationRanges(base float64) Ranges {
	out := make(Ranges, 0, len(Categories))
	for _, c := range Categories {
		limit := c.Limit()
		out = append(out, Range{
			Category: c,
			Max:      Round2(base + base*limit),
			Min:      Round2(base - base*limit),
		})
	}
	return out
}

// SliderState holds the signed offset chosen for each adjustable category.
type SliderState struct {
	Entertainment float64 `json:"entertainment"`
	Execution     float64 `json:"execution"`
	Musicality    float64 `json:"musicality"`
	Creativity    float64 `json:"creativity"`
	Variety       float64 `json:"variety"`
}

func (s *SliderState) field(c Category) *float64 {
	switch c {
	case Entertainment:
		return &s.Entertainment
	case Execution:
		return &s.Execution
	case Musicality:
		return &s.Musicality
	case Creativity:
		return &s.Creativity
	case Variety:
		return &s.Variety
	}
	return nil
}

// Value returns the offset for a category; presentation has no slider.
func (s SliderState) Value(c Category) float64 {
	if p := s.field(c); p != nil {
		return *p
	}
	return 0
}

// Set stores v clamped to the category limit.
func (s *SliderState) Set(c Category, v float64) {
	if p := s.field(c); p != nil {
		*p = clamp(v, c.Limit())
	}
}

// Nudge moves a slider by delta and clamps the result.
func (s *SliderState) Nudge(c Category, delta float64) {
	s.Set(c, Round2(s.Value(c)+delta))
}

// Clamp limits every slider to its category range. Valid values are unchanged.
func (s *SliderState) Clamp() {
	for _, c := range SliderCategories {
		s.Set(c, s.Value(c))
	}
}

// Reset sets every slider back to zero.
func (s *SliderState) Reset() {
	*s = SliderState{}
}

// Validate reports the first slider outside its range.
func (s SliderState) Validate() error {
	for _, c := range SliderCategories {
		v := s.Value(c)
		limit := c.Limit()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: %w", c, ErrInvalidNumber)
		}
		if v < -limit || v > limit {
			return fmt.Errorf("%s must be between %.2f and %.2f, got %g", c, -limit, limit, v)
		}
	}
	return nil
}

// Sum adds the five offsets; it is the implied presentation offset.
func (s SliderState) Sum() float64 {
	return s.Entertainment + s.Execution + s.Musicality + s.Creativity + s.Variety
}

func clamp(v, limit float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-limit, math.Min(limit, v))
}

// CustomScore is the base difficulty adjusted by the chosen slider offsets.
type CustomScore struct {
	Score float64
	Pct   float64
}

// EditedPresentation applies the slider offsets to base. Inputs are
// trusted; callers clamp sliders beforehand.
func EditedPresentation(base float64, sliders SliderState) CustomScore {
	pct := sliders.Sum()
	return CustomScore{
		Score: Round2(base + base*pct),
		Pct:   Round2(pct),
	}
}
