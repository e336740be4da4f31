package history

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/scoring"
)

const timeLayout = "2006-01-02 15:04"

// Headers used by the history table and the spreadsheet export.
var tableHeaders = []string{"Ref", "Saved", "Label", "Rulebook", "Levels", "Difficulty", "Custom", "Custom %"}

// RenderSummary prints aggregate numbers for the records.
func RenderSummary(w io.Writer, sum Summary) error {
	if sum.Count == 0 {
		_, err := fmt.Fprintln(w, "No saved scores found.")
		return err
	}
	rulebooks := make([]string, 0, len(sum.ByRulebook))
	for name, n := range sum.ByRulebook {
		rulebooks = append(rulebooks, fmt.Sprintf("%s=%d", name, n))
	}
	sort.Strings(rulebooks)
	lines := []string{
		"Summary",
		fmt.Sprintf("Scores: %d (%s)", sum.Count, strings.Join(rulebooks, ", ")),
		fmt.Sprintf("Avg difficulty: %s", scoring.FormatScore(sum.AvgDifficulty)),
		fmt.Sprintf("Best difficulty: %s", scoring.FormatScore(sum.BestDifficulty)),
		fmt.Sprintf("Avg custom score: %s", scoring.FormatScore(sum.AvgCustom)),
		fmt.Sprintf("Best custom score: %s", scoring.FormatScore(sum.BestCustom)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTable prints one row per saved score.
func RenderTable(w io.Writer, records []model.ScoreRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No saved scores found.")
		return err
	}
	rightAlign := map[int]bool{4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(tableHeaders, TableRows(records), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// TableRows formats records as display cells.
func TableRows(records []model.ScoreRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			ShortRef(rec.Ref),
			rec.CreatedAt.UTC().Format(timeLayout),
			rec.Label,
			rec.Rulebook,
			fmt.Sprintf("%d", rec.LevelsCount),
			scoring.FormatScore(rec.Difficulty),
			scoring.FormatScore(rec.CustomScore),
			scoring.FormatPct(rec.Pct),
		})
	}
	return rows
}

// ShortRef abbreviates a reference for display.
func ShortRef(ref string) string {
	if len(ref) <= 8 {
		return ref
	}
	return ref[:8]
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		cells[i] = padCell(cell, width, rightAlignCols[i])
	}
	return strings.TrimRight(strings.Join(cells, " "), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	padding := width - runewidth.StringWidth(value)
	if padding <= 0 {
		return value
	}
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}
