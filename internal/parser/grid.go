package parser

import (
	"strings"

	"github.com/templui/sheetlens/internal/dataset"
)

// rowsFromGrid zips a header row against the rows below it. The first
// non-blank row is the header; blank header cells drop their column and
// blank data rows are skipped. Cells past the end of a short row are null.
func rowsFromGrid(grid [][]string, cell func(string) dataset.Value) []dataset.Row {
	rows := []dataset.Row{}

	start := -1
	for i, r := range grid {
		if !blank(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return rows
	}

	headers := make([]string, len(grid[start]))
	for i, h := range grid[start] {
		headers[i] = strings.TrimSpace(h)
	}

	for _, r := range grid[start+1:] {
		if blank(r) {
			continue
		}
		rows = append(rows, zip(headers, r, cell))
	}
	return rows
}

func zip(headers, record []string, cell func(string) dataset.Value) dataset.Row {
	row := make(dataset.Row, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(record) {
			row[h] = cell(record[i])
		} else {
			row[h] = dataset.Null()
		}
	}
	return row
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
