package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/ropescore/internal/model"
)

func TestExportXLSX(t *testing.T) {
	st := seedStore(t)
	report, err := BuildReport(context.Background(), st, model.HistoryFilter{})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out", "history.xlsx")
	if err := ExportXLSX(path, report); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(scoresSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Ref" || rows[0][len(rows[0])-1] != "Variety" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][4] != "2 3 4" || rows[1][3] != "new" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	difficulty, err := f.GetCellValue(scoresSheet, "H4", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if difficulty != "0.85" {
		t.Fatalf("difficulty cell = %q", difficulty)
	}

	count, err := f.GetCellValue(summarySheet, "B1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if count != "3" {
		t.Fatalf("summary count = %q", count)
	}
}
