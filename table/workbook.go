package table

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ZaguanLabs/duotext"
	"github.com/xuri/excelize/v2"
)

// OriginalsSheet is the hidden sheet that holds per-cell originals.
const OriginalsSheet = "_duotext_originals"

// Workbook exposes the text cells of an Excel file as fields keyed
// "Sheet!A1". Originals are kept in OriginalsSheet as key/original rows.
type Workbook struct {
	mu        sync.Mutex
	f         *excelize.File
	path      string
	originals map[string]string
	rows      map[string]int
	nextRow   int
}

var _ duotext.FieldTable = (*Workbook)(nil)

// OpenWorkbook opens an .xlsx file.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	wb, err := NewWorkbook(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return wb, nil
}

// NewWorkbook wraps an already opened file. path is used by Save.
func NewWorkbook(f *excelize.File, path string) (*Workbook, error) {
	wb := &Workbook{
		f:         f,
		path:      path,
		originals: make(map[string]string),
		rows:      make(map[string]int),
		nextRow:   1,
	}
	if err := wb.loadOriginals(); err != nil {
		return nil, err
	}
	return wb, nil
}

func (wb *Workbook) loadOriginals() error {
	if !wb.hasSheet(OriginalsSheet) {
		return nil
	}
	rows, err := wb.f.GetRows(OriginalsSheet)
	if err != nil {
		return err
	}
	for i, row := range rows {
		wb.nextRow = i + 2
		if len(row) < 2 || row[0] == "" {
			continue
		}
		wb.rows[row[0]] = i + 1
		if row[1] != "" {
			wb.originals[row[0]] = row[1]
		}
	}
	return nil
}

func (wb *Workbook) hasSheet(name string) bool {
	idx, err := wb.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// splitKey separates "Sheet!B2" at the last "!" since sheet names may contain one.
func splitKey(key string) (sheet, cell string, ok bool) {
	i := strings.LastIndex(key, "!")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	sheet, cell = key[:i], key[i+1:]
	if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
		return "", "", false
	}
	return sheet, cell, true
}

func (wb *Workbook) locate(key string) (string, string, error) {
	sheet, cell, ok := splitKey(key)
	if !ok || sheet == OriginalsSheet || !wb.hasSheet(sheet) {
		return "", "", notFound(key)
	}
	return sheet, cell, nil
}

// Keys lists every non-empty, non-formula cell, sheet by sheet in row order.
func (wb *Workbook) Keys(ctx context.Context) ([]string, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	var keys []string
	for _, sheet := range wb.f.GetSheetList() {
		if sheet == OriginalsSheet {
			continue
		}
		rows, err := wb.f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		for r, row := range rows {
			for c, value := range row {
				if strings.TrimSpace(value) == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, err
				}
				if formula, _ := wb.f.GetCellFormula(sheet, cell); formula != "" {
					continue
				}
				keys = append(keys, sheet+"!"+cell)
			}
		}
	}
	return keys, nil
}

func (wb *Workbook) GetText(ctx context.Context, key string) (string, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	sheet, cell, err := wb.locate(key)
	if err != nil {
		return "", err
	}
	return wb.f.GetCellValue(sheet, cell)
}

func (wb *Workbook) SetText(ctx context.Context, key, value string) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	sheet, cell, err := wb.locate(key)
	if err != nil {
		return err
	}
	return wb.f.SetCellStr(sheet, cell, value)
}

func (wb *Workbook) GetOriginal(ctx context.Context, key string) (string, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if _, _, err := wb.locate(key); err != nil {
		return "", err
	}
	return wb.originals[key], nil
}

func (wb *Workbook) SetOriginal(ctx context.Context, key, original string) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if _, _, err := wb.locate(key); err != nil {
		return err
	}

	row, ok := wb.rows[key]
	if !ok {
		if original == "" {
			return nil
		}
		if err := wb.ensureOriginalsSheet(); err != nil {
			return err
		}
		row = wb.nextRow
		wb.nextRow++
		wb.rows[key] = row
		if err := wb.f.SetCellStr(OriginalsSheet, fmt.Sprintf("A%d", row), key); err != nil {
			return err
		}
	}

	if err := wb.f.SetCellStr(OriginalsSheet, fmt.Sprintf("B%d", row), original); err != nil {
		return err
	}
	if original == "" {
		delete(wb.originals, key)
	} else {
		wb.originals[key] = original
	}
	return nil
}

func (wb *Workbook) ensureOriginalsSheet() error {
	if wb.hasSheet(OriginalsSheet) {
		return nil
	}
	if _, err := wb.f.NewSheet(OriginalsSheet); err != nil {
		return err
	}
	return wb.f.SetSheetVisible(OriginalsSheet, false)
}

// Save writes the workbook back to its path.
func (wb *Workbook) Save() error {
	return wb.SaveAs(wb.path)
}

// SaveAs writes the workbook to path.
func (wb *Workbook) SaveAs(path string) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if path == "" {
		return fmt.Errorf("workbook has no path")
	}
	return wb.f.SaveAs(path)
}

// Close releases the underlying file.
func (wb *Workbook) Close() error {
	return wb.f.Close()
}
