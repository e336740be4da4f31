package history

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// Series is a named line on the trend plot.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight = 8
	minPlotWidth      = 10
	fallbackTermWidth = 80
	axisLabelWidth    = 6
	axisSeparator     = " ┤"
	colorReset        = "\x1b[0m"
)

var seriesColors = []string{"\x1b[36m", "\x1b[33m", "\x1b[35m", "\x1b[32m"}

// TrendSeries returns the series plotted by the history command.
func TrendSeries(r Report) []Series {
	if len(r.Records) == 0 {
		return nil
	}
	custom := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		custom[i] = rec.CustomScore
	}
	return []Series{
		{Name: "difficulty (avg)", Values: r.Trend},
		{Name: "custom score", Values: custom},
	}
}

// PlotTrend draws the series on a shared value axis using braille cells.
// A non-positive width fits the plot to the terminal.
func PlotTrend(w io.Writer, title string, series []Series, width, height int, color bool) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	var all []float64
	for _, s := range series {
		all = append(all, s.Values...)
	}
	lo, hi := minMax(all)
	if hi-lo < 1e-9 {
		lo, hi = lo-1, hi+1
	}

	grids := make([][][]uint8, len(series))
	for i, s := range series {
		grids[i] = newGrid(height, width)
		points := resample(s.Values, width)
		prevX, prevY := -1, -1
		for x, v := range points {
			px, py := x*2, dotRow(v, lo, hi, height*4)
			if prevX < 0 {
				setDot(grids[i], px, py)
			} else {
				bresenham(prevX, prevY, px, py, func(dx, dy int) { setDot(grids[i], dx, dy) })
			}
			prevX, prevY = px, py
		}
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(title + "\n")
	}
	for y := 0; y < height; y++ {
		b.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, axisLabel(y, height, lo, hi), axisSeparator))
		for x := 0; x < width; x++ {
			mask, owner := overlay(grids, x, y)
			ch := rune(0x2800 + int(mask))
			if color && owner >= 0 {
				b.WriteString(seriesColors[owner%len(seriesColors)] + string(ch) + colorReset)
				continue
			}
			b.WriteRune(ch)
		}
		b.WriteString("\n")
	}
	legend := make([]string, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s", rune(0x2800+0x3f), s.Name)
		if color {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		legend[i] = label
	}
	b.WriteString(strings.Join(legend, "  ") + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// PlotWidthFor returns the plot width that fits a terminal of totalWidth columns.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(minPlotWidth, totalWidth-axisLabelWidth-len([]rune(axisSeparator)))
}

// UseColor reports whether ANSI colors should be written to w.
func UseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

func axisLabel(row, height int, lo, hi float64) string {
	switch {
	case row == 0:
		return fmt.Sprintf("%.2f", hi)
	case row == height-1:
		return fmt.Sprintf("%.2f", lo)
	case height > 2 && row == height/2:
		return fmt.Sprintf("%.2f", (lo+hi)/2)
	}
	return ""
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func newGrid(height, width int) [][]uint8 {
	grid := make([][]uint8, height)
	for y := range grid {
		grid[y] = make([]uint8, width)
	}
	return grid
}

// overlay merges the cell masks; the first series with a dot owns the color.
func overlay(grids [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, grid := range grids {
		m := grid[y][x]
		if m == 0 {
			continue
		}
		if owner < 0 {
			owner = i
		}
		mask |= m
	}
	return mask, owner
}

// resample stretches or averages values into exactly width points.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == 1:
		for i := range out {
			out[i] = values[0]
		}
	case n > width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(max(width-1, 1))
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func dotRow(v, lo, hi float64, rows int) int {
	pos := (v - lo) / (hi - lo)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	return max(0, min(rows-1, row))
}

func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Braille dot bits indexed by [column][row] within a 2x4 cell.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func setDot(grid [][]uint8, x, y int) {
	cy, cx := y/4, x/2
	if x < 0 || y < 0 || cy >= len(grid) || cx >= len(grid[cy]) {
		return
	}
	grid[cy][cx] |= dotBits[x%2][y%4]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
