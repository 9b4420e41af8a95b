// Package stats computes column-level numeric statistics over parsed rows.
package stats

import (
	"math"
	"sort"

	"github.com/templui/sheetlens/internal/dataset"
)

type ColumnStats struct {
	Sum   float64 `json:"sum"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

type Stats struct {
	TotalRows      int                    `json:"totalRows"`
	NumericColumns []string               `json:"numericColumns"`
	Columns        map[string]ColumnStats `json:"stats"`
}

// HasNumericData reports whether there is at least one row and one numeric column.
func (s Stats) HasNumericData() bool {
	return s.TotalRows > 0 && len(s.NumericColumns) > 0
}

// Aggregate finds every column holding at least one parseable number and
// summarises its valid values. Non-numeric cells in a numeric column are
// ignored; Count is the number of valid values, not rows.
func Aggregate(rows []dataset.Row) Stats {
	acc := make(map[string]*ColumnStats)
	for _, row := range rows {
		for col, v := range row {
			f, ok := v.Float()
			if !ok {
				continue
			}
			c, seen := acc[col]
			if !seen {
				c = &ColumnStats{Min: math.Inf(1), Max: math.Inf(-1)}
				acc[col] = c
			}
			c.Sum += f
			c.Count++
			c.Min = math.Min(c.Min, f)
			c.Max = math.Max(c.Max, f)
		}
	}

	out := Stats{
		TotalRows:      len(rows),
		NumericColumns: make([]string, 0, len(acc)),
		Columns:        make(map[string]ColumnStats, len(acc)),
	}
	for col, c := range acc {
		c.Avg = c.Sum / float64(c.Count)
		out.NumericColumns = append(out.NumericColumns, col)
		out.Columns[col] = *c
	}
	sort.Strings(out.NumericColumns)
	return out
}
