package parser

import (
	"errors"
	"io"

	"github.com/templui/sheetlens/internal/dataset"
	"github.com/xuri/excelize/v2"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return hasExt(filename, ".xlsx")
}

// Parse reads the first worksheet only.
func (xlsxParser) Parse(r io.Reader) ([]dataset.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Format: "xlsx", Err: errors.New("workbook has no worksheets")}
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}
	return rowsFromGrid(grid, dataset.Infer), nil
}
