// Package view shapes parsed rows into chart and table payloads, one
// builder per analysis type.
package view

import (
	"fmt"
	"math"
	"time"

	"github.com/templui/sheetlens/internal/dataset"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/stats"
)

const (
	ChartLine     = "line"
	ChartBar      = "bar"
	ChartPie      = "pie"
	ChartDoughnut = "doughnut"
)

// Dataset is one numeric series aligned positionally to its chart labels.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
}

type ChartSeries struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Chart struct {
	Key    string      `json:"key"`
	Title  string      `json:"title"`
	Kind   string      `json:"kind"`
	Series ChartSeries `json:"series"`
}

// Table rows hold only string and float64 cells so they survive a JSON round trip.
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

type Metric struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type Payload struct {
	Type      model.AnalysisType `json:"type"`
	ChartData []Chart            `json:"chartData"`
	TableData *Table             `json:"tableData,omitempty"`
	Summary   []Metric           `json:"summary"`
	Stats     stats.Stats        `json:"stats"`
}

// Result carries the payload plus whether the source had usable numeric
// data. The payload is always populated, zeroed when HasData is false.
type Result struct {
	HasData bool
	Payload *Payload
}

type Builder interface {
	Build(rows []dataset.Row, st stats.Stats) Result
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// For returns the builder for an analysis type.
func For(t model.AnalysisType, clock Clock) (Builder, error) {
	switch t {
	case model.AnalysisOverview:
		return NewOverviewBuilder(clock), nil
	case model.AnalysisSales:
		return SalesBuilder{}, nil
	case model.AnalysisProducts:
		return ProductsBuilder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidAnalysisType, t)
	}
}

// Build runs the builder for t over rows.
func Build(t model.AnalysisType, rows []dataset.Row, st stats.Stats, clock Clock) (Result, error) {
	b, err := For(t, clock)
	if err != nil {
		return Result{}, err
	}
	return b.Build(rows, st), nil
}

var palette = []string{
	"#3b82f6", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6",
	"#06b6d4", "#ec4899", "#84cc16", "#f97316", "#6366f1",
}

func colors(n int) []string {
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func metric(key, label string, value float64) Metric {
	return Metric{Key: key, Label: label, Value: round2(value)}
}
