package export

import (
	"log/slog"

	"github.com/templui/sheetlens/internal/view"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Analysis"

func renderXLSX(p *view.Payload) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}

	header, records := xlsxGrid(p)

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &rec); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// xlsxGrid lays a table out as is; anything else becomes a Metric/Value dump.
func xlsxGrid(p *view.Payload) ([]any, [][]any) {
	if p != nil && p.TableData != nil {
		cols, records := grid(p)
		header := make([]any, len(cols))
		for i, c := range cols {
			header[i] = c
		}
		return header, records
	}

	header := []any{"Metric", "Value"}
	if p == nil {
		return header, [][]any{{"message", noDataMessage}}
	}
	records := make([][]any, len(p.Summary))
	for i, m := range p.Summary {
		records[i] = []any{m.Label, m.Value}
	}
	return header, records
}
