package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/templui/sheetlens/internal/dataset"
)

type jsonParser struct{}

func (jsonParser) CanParse(filename string) bool {
	return hasExt(filename, ".json")
}

// Parse accepts either a single object or an array of flat objects.
func (jsonParser) Parse(r io.Reader) ([]dataset.Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, &ParseError{Format: "json", Err: err}
	}

	switch v := top.(type) {
	case map[string]any:
		return []dataset.Row{objectRow(v)}, nil
	case []any:
		rows := make([]dataset.Row, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, &ParseError{Format: "json", Err: fmt.Errorf("element %d is not an object", i)}
			}
			rows = append(rows, objectRow(obj))
		}
		return rows, nil
	default:
		return nil, &ParseError{Format: "json", Err: fmt.Errorf("top-level value must be an object or array, got %T", top)}
	}
}

func objectRow(obj map[string]any) dataset.Row {
	row := make(dataset.Row, len(obj))
	for k, v := range obj {
		row[k] = jsonValue(v)
	}
	return row
}

func jsonValue(v any) dataset.Value {
	switch x := v.(type) {
	case nil:
		return dataset.Null()
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return dataset.String(x.String())
		}
		return dataset.Number(f)
	case string:
		return dataset.Text(x)
	case bool:
		if x {
			return dataset.String("true")
		}
		return dataset.String("false")
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(x); err != nil {
			return dataset.String(fmt.Sprint(x))
		}
		return dataset.String(string(bytes.TrimSpace(buf.Bytes())))
	}
}
