// Package tracker reads pending keywords from the source spreadsheet and
// writes run results back to it.
package tracker

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/seyi-falode/blogpilot/constants"
	"github.com/seyi-falode/blogpilot/internal/common"
)

// Fixed workbook layout: row 1 is the header, data starts at row 2.
const (
	colKeyword  = 1 // A
	colStatus   = 3 // C
	colDocument = 4 // D
	colScore    = 5 // E

	firstDataRow = 2
)

// Row is a selected keyword row.
type Row struct {
	Keyword string
	Index   int // 1-based spreadsheet row number
}

// Workbook is the XLSX-backed source tracker. Each operation opens the file,
// works on the first sheet and closes it again; a one-shot run has no reason
// to hold the workbook open across stages.
type Workbook struct {
	path string
	log  *slog.Logger
}

func NewWorkbook(path string, logger *slog.Logger) *Workbook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workbook{path: path, log: logger}
}

// NextPending scans rows top-down and returns the first whose status cell is
// empty or "pending" (case-insensitive). Rows without a keyword are skipped.
// When nothing is pending it returns common.ErrNoPendingKeyword.
func (w *Workbook) NextPending() (*Row, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer w.close(f)

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	for i := firstDataRow - 1; i < len(rows); i++ {
		cells := rows[i]
		keyword := strings.TrimSpace(cell(cells, colKeyword))
		if keyword == "" {
			continue
		}
		status := strings.TrimSpace(cell(cells, colStatus))
		if status == "" || strings.EqualFold(status, constants.SheetStatusPending) {
			row := &Row{Keyword: keyword, Index: i + 1}
			w.log.Info("tracker.selected", "keyword", keyword, "row", row.Index)
			return row, nil
		}
	}
	return nil, common.ErrNoPendingKeyword
}

// UpdateResult writes the human-readable status, the document URL and the
// report score to the row's fixed columns and saves the workbook.
func (w *Workbook) UpdateResult(rowIndex int, status, docURL string, score float64) error {
	return w.update(rowIndex, status, func(f *excelize.File, sheet string) error {
		if err := setCell(f, sheet, colDocument, rowIndex, docURL); err != nil {
			return err
		}
		return setCell(f, sheet, colScore, rowIndex, score)
	})
}

// MarkFailed stamps only the status column, leaving document and score blank,
// so a failed keyword is not silently re-picked on the next run.
func (w *Workbook) MarkFailed(rowIndex int, status string) error {
	return w.update(rowIndex, status, nil)
}

func (w *Workbook) update(rowIndex int, status string, extra func(f *excelize.File, sheet string) error) error {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer w.close(f)

	sheet := f.GetSheetName(0)
	if err := setCell(f, sheet, colStatus, rowIndex, status); err != nil {
		return err
	}
	if extra != nil {
		if err := extra(f, sheet); err != nil {
			return err
		}
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	w.log.Info("tracker.updated", "row", rowIndex, "status", status)
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheet, name, v); err != nil {
		return fmt.Errorf("set cell %s: %w", name, err)
	}
	return nil
}

func cell(cells []string, col int) string {
	if col-1 < len(cells) {
		return cells[col-1]
	}
	return ""
}

func (w *Workbook) close(f *excelize.File) {
	if err := f.Close(); err != nil {
		w.log.Warn("tracker.close_error", "path", w.path, "error", err)
	}
}
