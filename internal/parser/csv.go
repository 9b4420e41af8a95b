package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/templui/sheetlens/internal/dataset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	return hasExt(filename, ".csv")
}

// Parse reads a header-keyed CSV. Blank lines are skipped and malformed
// records are dropped so a single bad line never fails the import.
func (csvParser) Parse(r io.Reader) ([]dataset.Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Format: "csv", Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows := []dataset.Row{}

	var header []string
	for header == nil {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, &ParseError{Format: "csv", Err: err}
		}
		if !blank(rec) {
			header = rec
		}
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	skipped := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, &ParseError{Format: "csv", Err: err}
		}
		if len(rec) > len(headers) {
			skipped++
			continue
		}
		if blank(rec) {
			continue
		}
		rows = append(rows, zip(headers, rec, dataset.Text))
	}

	if skipped > 0 {
		slog.Warn("csv records skipped", "count", skipped, "parsed", len(rows))
	}
	return rows, nil
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab on the
// first line, defaulting to comma.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
