package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/extrame/xls"
	"github.com/templui/sheetlens/internal/dataset"
)

type xlsParser struct{}

func (xlsParser) CanParse(filename string) bool {
	return hasExt(filename, ".xls")
}

// Parse reads the first sheet of a legacy BIFF workbook.
func (xlsParser) Parse(r io.Reader) (rows []dataset.Row, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Format: "xls", Err: err}
	}

	// The BIFF reader panics on some truncated workbooks.
	defer func() {
		if p := recover(); p != nil {
			rows = nil
			err = &ParseError{Format: "xls", Err: fmt.Errorf("corrupt workbook: %v", p)}
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &ParseError{Format: "xls", Err: err}
	}
	if wb == nil {
		return nil, &ParseError{Format: "xls", Err: errors.New("no workbook stream")}
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &ParseError{Format: "xls", Err: errors.New("workbook has no sheets")}
	}

	grid := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil || row.FirstCol() > row.LastCol() {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		grid = append(grid, cells)
	}
	return rowsFromGrid(grid, dataset.Infer), nil
}

// sheetRow returns nil for rows the sheet never stored. The reader
// dereferences the missing entry instead of reporting it.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
