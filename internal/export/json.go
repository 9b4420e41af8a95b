package export

import (
	"bytes"
	"encoding/json"

	"github.com/templui/sheetlens/internal/model"
)

func renderJSON(a *model.Analysis) ([]byte, error) {
	if !a.HasData || a.Data == nil {
		return []byte("null\n"), nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(*a.Data), "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
