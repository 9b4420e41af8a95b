// Package export renders stored analyses as downloadable CSV, XLSX or JSON.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/view"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	JSON Format = "json"
)

const noDataMessage = "No data available"

var ErrUnsupportedFormat = errors.New("unsupported export format")

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case CSV, XLSX, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case JSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// File is a rendered export ready to be sent as an attachment.
type File struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Filename follows analysis-<type>-<YYYY-MM-DD>.<format>.
func Filename(t model.AnalysisType, f Format, now time.Time) string {
	return fmt.Sprintf("analysis-%s-%s.%s", t, now.Format("2006-01-02"), f)
}

// Render serialises a stored analysis. An analysis without data still
// renders, as a placeholder.
func Render(a *model.Analysis, format Format, now time.Time) (*File, error) {
	var payload *view.Payload
	if a.HasData && a.Data != nil {
		payload = &view.Payload{}
		if err := json.Unmarshal([]byte(*a.Data), payload); err != nil {
			return nil, fmt.Errorf("failed to decode analysis %s: %w", a.ID, err)
		}
	}

	var body []byte
	var err error
	switch format {
	case CSV:
		body, err = renderCSV(payload)
	case XLSX:
		body, err = renderXLSX(payload)
	case JSON:
		body, err = renderJSON(a)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s export: %w", format, err)
	}

	return &File{
		Filename:    Filename(a.Type, format, now),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

// grid flattens a payload into a header and records: the table when there
// is one, otherwise the summary as a single record.
func grid(p *view.Payload) ([]string, [][]any) {
	if p == nil {
		return []string{"message"}, [][]any{{noDataMessage}}
	}
	if p.TableData != nil {
		records := make([][]any, len(p.TableData.Rows))
		for i, row := range p.TableData.Rows {
			rec := make([]any, len(p.TableData.Columns))
			for j, col := range p.TableData.Columns {
				rec[j] = row[col]
			}
			records[i] = rec
		}
		return p.TableData.Columns, records
	}

	header := make([]string, len(p.Summary))
	rec := make([]any, len(p.Summary))
	for i, m := range p.Summary {
		header[i] = m.Key
		rec[i] = m.Value
	}
	return header, [][]any{rec}
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
