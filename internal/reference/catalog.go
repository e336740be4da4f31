// Package reference exposes the IJRU reference tables shown next to the calculator.
package reference

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is documentation only; nothing in it feeds the scoring formula.
type Catalog struct {
	Links              Links           `yaml:"links" json:"links"`
	RuleChange         string          `yaml:"rule_change" json:"rule_change"`
	PointValues        []PointValueRow `yaml:"point_values" json:"point_values"`
	GymnasticsAndPower LevelTable      `yaml:"gymnastics_and_power" json:"gymnastics_and_power"`
	MultiplesAndRope   LevelTable      `yaml:"multiples_and_rope" json:"multiples_and_rope"`
}

// Links to the published rules.
type Links struct {
	Rules      string `yaml:"rules" json:"rules"`
	Difficulty string `yaml:"difficulty" json:"difficulty"`
}

// PointValueRow compares published point values between rulebook editions.
type PointValueRow struct {
	Level float64 `yaml:"level" json:"level"`
	Old   float64 `yaml:"old" json:"old"`
	New   float64 `yaml:"new" json:"new"`
}

// LevelTable lists example skills per level in two columns.
type LevelTable struct {
	Title     string         `yaml:"title" json:"title"`
	Columns   []string       `yaml:"columns" json:"columns"`
	Rows      []LevelRow     `yaml:"rows" json:"rows"`
	Modifiers []ModifierList `yaml:"modifiers" json:"modifiers"`
}

// LevelRow holds the skills of one level.
type LevelRow struct {
	Level  float64  `yaml:"level" json:"level"`
	First  []string `yaml:"first" json:"first"`
	Second []string `yaml:"second" json:"second"`
}

// ModifierList is a titled list of level modifiers.
type ModifierList struct {
	Title string   `yaml:"title" json:"title"`
	Items []string `yaml:"items" json:"items"`
}

// Load decodes the embedded catalog.
func Load() (Catalog, error) {
	return Parse(catalogYAML)
}

// Parse decodes a catalog document.
func Parse(data []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("failed to decode reference catalog: %w", err)
	}
	if len(cat.PointValues) == 0 {
		return Catalog{}, fmt.Errorf("reference catalog has no point values")
	}
	return cat, nil
}

// Section names accepted by Render.
const (
	SectionPoints     = "points"
	SectionGymnastics = "gymnastics"
	SectionMultiples  = "multiples"
	SectionAll        = "all"
)

// Render writes one or all sections as plain text.
func (c Catalog) Render(w io.Writer, section string) error {
	var parts []string
	switch strings.ToLower(strings.TrimSpace(section)) {
	case SectionPoints:
		parts = append(parts, c.renderPoints())
	case SectionGymnastics:
		parts = append(parts, c.GymnasticsAndPower.render())
	case SectionMultiples:
		parts = append(parts, c.MultiplesAndRope.render())
	case SectionAll, "":
		parts = append(parts, c.renderLinks(), c.renderPoints(), c.GymnasticsAndPower.render(), c.MultiplesAndRope.render())
	default:
		return fmt.Errorf("unknown section %q (use points, gymnastics, multiples or all)", section)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, "\n\n"))
	return err
}

func (c Catalog) renderLinks() string {
	return fmt.Sprintf("Rules: %s\nDifficulty: %s", c.Links.Rules, c.Links.Difficulty)
}

func (c Catalog) renderPoints() string {
	var b strings.Builder
	b.WriteString("Rule change (difficulty score)\n")
	b.WriteString(c.RuleChange)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%-6s %16s %16s", "Level", "Old point value", "New point value")
	for _, row := range c.PointValues {
		fmt.Fprintf(&b, "\n%-6g %16.2f %16.2f", row.Level, row.Old, row.New)
	}
	return b.String()
}

func (t LevelTable) render() string {
	var b strings.Builder
	b.WriteString(t.Title)
	for _, row := range t.Rows {
		fmt.Fprintf(&b, "\n\nLevel %g", row.Level)
		for i, skills := range [][]string{row.First, row.Second} {
			name := ""
			if i < len(t.Columns) {
				name = t.Columns[i]
			}
			if len(skills) == 0 {
				fmt.Fprintf(&b, "\n  %s: —", name)
				continue
			}
			fmt.Fprintf(&b, "\n  %s:", name)
			for _, s := range skills {
				fmt.Fprintf(&b, "\n    - %s", s)
			}
		}
	}
	for _, mods := range t.Modifiers {
		fmt.Fprintf(&b, "\n\n%s", mods.Title)
		for _, item := range mods.Items {
			fmt.Fprintf(&b, "\n  • %s", item)
		}
	}
	return b.String()
}
