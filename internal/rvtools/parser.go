package rvtools

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

var (
	ErrNotWorkbook   = errors.New("content is not an xlsx workbook")
	ErrNoKnownSheets = errors.New("workbook has none of the RVTools sheets")
)

// Parse reads every known RVTools sheet of a workbook into one source.
// Unknown sheets are ignored. Empty cells are left out of the record so the
// analysis treats them as missing rather than zero.
func Parse(ctx context.Context, sourceName string, content []byte) (inventory.SourceData, error) {
	src := inventory.SourceData{Name: sourceName, Tables: make(map[inventory.TableName]inventory.RawTable)}

	if !IsExcelFile(content) {
		return src, ErrNotWorkbook
	}
	f, err := excelize.OpenReader(bytes.NewReader(content), excelize.Options{RawCellValue: true})
	if err != nil {
		return src, fmt.Errorf("%w: %v", ErrNotWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, name := range inventory.KnownTables {
		if err := ctx.Err(); err != nil {
			return src, err
		}
		sheet, ok := findSheet(sheets, string(name))
		if !ok {
			continue
		}
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			zap.S().Named("rvtools").Warnw("could not read sheet", "source", sourceName, "sheet", sheet, "error", err)
			continue
		}
		src.Tables[name] = toRawTable(rows)
	}

	if len(src.Tables) == 0 {
		return src, ErrNoKnownSheets
	}

	zap.S().Named("rvtools").Debugw("parsed workbook", "source", sourceName, "sheets", len(src.Tables), "vms", len(src.Tables[inventory.TableVInfo].Rows))
	return src, nil
}

func toRawTable(rows [][]string) inventory.RawTable {
	header, data := splitSheet(rows)
	columns := uniqueHeaders(header)

	t := inventory.RawTable{Columns: make([]string, 0, len(columns)), Rows: make([]inventory.Record, 0, len(data))}
	for _, c := range columns {
		if c != "" {
			t.Columns = append(t.Columns, c)
		}
	}
	for _, row := range data {
		rec := make(inventory.Record, len(row))
		for i, cell := range row {
			if i >= len(columns) || columns[i] == "" || cell == "" {
				continue
			}
			rec[columns[i]] = cell
		}
		if len(rec) == 0 {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}
