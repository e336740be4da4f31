package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Validation messages shown to users.
const (
	MsgInvalidNumber = "Some entries are not valid numbers."
	MsgNegativeLevel = "Levels must be non-negative."
)

var (
	// ErrInvalidNumber reports a token that is not a finite number.
	ErrInvalidNumber = errors.New(MsgInvalidNumber)
	// ErrNegativeLevel reports a level below zero.
	ErrNegativeLevel = errors.New(MsgNegativeLevel)
)

// Token is one entry of the level list together with its parse outcome.
type Token struct {
	Text  string
	Value float64
	Err   error
}

// ValidationResult is the outcome of ValidateLevels.
type ValidationResult struct {
	OK    bool
	Error string
}

// Err maps the result back to its sentinel error.
func (r ValidationResult) Err() error {
	switch {
	case r.OK:
		return nil
	case r.Error == MsgNegativeLevel:
		return ErrNegativeLevel
	default:
		return ErrInvalidNumber
	}
}

func isSeparator(r rune) bool {
	switch r {
	case ',', ';', '.', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// ParseTokens splits free text into level tokens. Commas, semicolons,
// periods, spaces, tabs and line breaks all separate entries, and runs of
// them count as one separator.
func ParseTokens(text string) []Token {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, isSeparator)
	tokens := make([]Token, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		tokens = append(tokens, ParseLevel(field))
	}
	return tokens
}

// ParseLevel parses a single level written in plain decimal notation,
// such as "4", "+2", "0.5" or "3e0". Hex, octal and binary literals,
// underscores and words like Inf are not numbers here.
func ParseLevel(s string) Token {
	if !isDecimal(s) {
		return Token{Text: s, Value: math.NaN(), Err: fmt.Errorf("level %q: %w", s, ErrInvalidNumber)}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			// Out-of-range literals become ±Inf and fail validation as non-finite.
			return Token{Text: s, Value: v, Err: fmt.Errorf("level %q: %w", s, ErrInvalidNumber)}
		}
		return Token{Text: s, Value: math.NaN(), Err: fmt.Errorf("level %q: %w", s, ErrInvalidNumber)}
	}
	if v < 0 {
		return Token{Text: s, Value: v, Err: fmt.Errorf("level %q: %w", s, ErrNegativeLevel)}
	}
	return Token{Text: s, Value: v}
}

// isDecimal accepts [sign] digits [. digits] [e [sign] digits] with at
// least one mantissa digit.
func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Values returns the numeric value of every token; unparseable tokens are NaN.
func Values(tokens []Token) []float64 {
	out := make([]float64, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Value
	}
	return out
}

// ParseLevels normalizes free text into a list of difficulty levels.
func ParseLevels(text string) []float64 {
	return Values(ParseTokens(text))
}

// ValidateLevels rejects non-finite and negative levels. Non-finite
// entries take precedence when both occur.
func ValidateLevels(levels []float64) ValidationResult {
	if len(levels) == 0 {
		return ValidationResult{OK: true}
	}
	for _, lv := range levels {
		if math.IsNaN(lv) || math.IsInf(lv, 0) {
			return ValidationResult{OK: false, Error: MsgInvalidNumber}
		}
	}
	for _, lv := range levels {
		if lv < 0 {
			return ValidationResult{OK: false, Error: MsgNegativeLevel}
		}
	}
	return ValidationResult{OK: true}
}
