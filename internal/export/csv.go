package export

import (
	"bytes"
	"encoding/csv"

	"github.com/templui/sheetlens/internal/view"
)

func renderCSV(p *view.Payload) ([]byte, error) {
	header, records := grid(p)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, rec := range records {
		line := make([]string, len(rec))
		for i, v := range rec {
			line[i] = cellText(v)
		}
		if err := w.Write(line); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
