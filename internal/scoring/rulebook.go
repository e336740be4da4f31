// Package scoring implements the IJRU freestyle difficulty and presentation calculations.
package scoring

import (
	"fmt"
	"strings"
)

// RulebookVersion selects the difficulty aggregation formula.
type RulebookVersion int

const (
	// RulebookNew is IJRU Rulebook 4.0.0: the point value total is divided by 3.
	RulebookNew RulebookVersion = iota
	// RulebookOld is IJRU Rulebook 3.0.0: the point value total is used as is.
	RulebookOld
)

// ParseRulebookVersion accepts new/old and the rulebook numbers.
func ParseRulebookVersion(s string) (RulebookVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "new", "4", "4.0", "4.0.0":
		return RulebookNew, nil
	case "old", "3", "3.0", "3.0.0":
		return RulebookOld, nil
	default:
		return RulebookNew, fmt.Errorf("unknown rulebook version %q (use new or old)", s)
	}
}

// String returns the short name used in flags, config and storage.
func (v RulebookVersion) String() string {
	if v == RulebookOld {
		return "old"
	}
	return "new"
}

// Number returns the rulebook edition.
func (v RulebookVersion) Number() string {
	if v == RulebookOld {
		return "3.0.0"
	}
	return "4.0.0"
}

// Label is a human-readable name for the version.
func (v RulebookVersion) Label() string {
	return "Rulebook " + v.Number()
}

// Divisor is applied to the aggregated point value.
func (v RulebookVersion) Divisor() float64 {
	if v == RulebookOld {
		return 1
	}
	return 3
}

// Toggle returns the other version.
func (v RulebookVersion) Toggle() RulebookVersion {
	if v == RulebookOld {
		return RulebookNew
	}
	return RulebookOld
}

// Explain describes how the difficulty is derived for this version.
func (v RulebookVersion) Explain() string {
	if v == RulebookOld {
		return "Computed as total difficulty point value."
	}
	return "Computed as total difficulty point value ÷ 3."
}
