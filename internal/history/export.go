package history

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/scoring"
)

const (
	scoresSheet  = "Scores"
	summarySheet = "Summary"
)

var exportHeaders = []string{
	"Ref", "Saved", "Label", "Rulebook", "Levels input", "Levels",
	"Raw difficulty", "Difficulty", "Custom score", "Custom %",
}

// ExportXLSX writes the report to a workbook at path.
func ExportXLSX(path string, r Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", scoresSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	headers := append([]string{}, exportHeaders...)
	for _, c := range scoring.SliderCategories {
		headers = append(headers, c.Title())
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(scoresSheet, cell, h); err != nil {
			return err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(scoresSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, rec := range r.Records {
		row := exportRow(rec)
		if err := f.SetSheetRow(scoresSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	if n := len(r.Records); n > 0 {
		pctStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10})
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(scoresSheet, "J2", fmt.Sprintf("J%d", n+1), pctStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(scoresSheet, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(scoresSheet, "B", "E", 18); err != nil {
		return err
	}
	if err := f.SetPanes(scoresSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	if err := writeSummarySheet(f, r.Summary); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func exportRow(rec model.ScoreRecord) []any {
	row := []any{
		rec.Ref,
		rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		rec.Label,
		rec.Rulebook,
		rec.Input,
		rec.LevelsCount,
		rec.RawDifficulty,
		rec.Difficulty,
		rec.CustomScore,
		rec.Pct,
	}
	for _, c := range scoring.SliderCategories {
		row = append(row, rec.Sliders.Value(c))
	}
	return row
}

func writeSummarySheet(f *excelize.File, sum Summary) error {
	rows := [][]any{
		{"Scores", sum.Count},
		{"Avg difficulty", sum.AvgDifficulty},
		{"Best difficulty", sum.BestDifficulty},
		{"Avg custom score", sum.AvgCustom},
		{"Best custom score", sum.BestCustom},
	}
	for i, row := range rows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 20)
}
