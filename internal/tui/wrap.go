package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type cell struct {
	r       rune
	width   int
	isSpace bool
}

// wrapText word-wraps every line of text to width display columns.
// Continuation lines keep the indentation of the line they came from.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	if runewidth.StringWidth(line) <= width {
		return []string{line}
	}
	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	if runewidth.StringWidth(indent) >= width/2 {
		indent = ""
	}
	cells := toCells(strings.TrimLeft(line, " "))
	avail := width - runewidth.StringWidth(indent)

	var out []string
	var cur []cell
	curWidth := 0
	lastSpace := -1
	for i := 0; i < len(cells); {
		c := cells[i]
		if curWidth+c.width > avail && len(cur) > 0 {
			if lastSpace >= 0 {
				out = append(out, indent+renderCells(cur[:lastSpace]))
				cur = append([]cell{}, cur[lastSpace+1:]...)
			} else {
				out = append(out, indent+renderCells(cur))
				cur = cur[:0]
			}
			curWidth = cellsWidth(cur)
			lastSpace = lastSpaceIn(cur)
			continue
		}
		cur = append(cur, c)
		curWidth += c.width
		if c.isSpace {
			lastSpace = len(cur) - 1
		}
		i++
	}
	if len(cur) > 0 {
		out = append(out, indent+renderCells(cur))
	}
	return out
}

func toCells(s string) []cell {
	cells := make([]cell, 0, len(s))
	for _, r := range s {
		cells = append(cells, cell{r: r, width: runewidth.RuneWidth(r), isSpace: r == ' '})
	}
	return cells
}

func renderCells(cells []cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteRune(c.r)
	}
	return strings.TrimRight(b.String(), " ")
}

func cellsWidth(cells []cell) int {
	total := 0
	for _, c := range cells {
		total += c.width
	}
	return total
}

func lastSpaceIn(cells []cell) int {
	for i := len(cells) - 1; i >= 0; i-- {
		if cells[i].isSpace {
			return i
		}
	}
	return -1
}
