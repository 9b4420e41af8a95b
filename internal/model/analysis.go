package model

import (
	"errors"
	"strings"
	"time"
)

type AnalysisType string

const (
	AnalysisOverview AnalysisType = "overview"
	AnalysisSales    AnalysisType = "sales"
	AnalysisProducts AnalysisType = "products"
)

var AnalysisTypes = []AnalysisType{AnalysisOverview, AnalysisSales, AnalysisProducts}

var ErrInvalidAnalysisType = errors.New("invalid analysis type")

func ParseAnalysisType(s string) (AnalysisType, error) {
	t := AnalysisType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AnalysisTypes {
		if t == known {
			return t, nil
		}
	}
	return "", ErrInvalidAnalysisType
}

// Analysis is one generated result. Records are append-only: a regenerate
// inserts a new row and readers take the most recent one.
type Analysis struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	FileID    string       `db:"file_id"`
	Type      AnalysisType `db:"type"`
	HasData   bool         `db:"has_data"`
	Data      *string      `db:"data"` // JSON payload, nil iff HasData is false
	CreatedAt time.Time    `db:"created_at"`
}

type AnalysisSummary struct {
	ID        string       `db:"id" json:"id"`
	FileID    string       `db:"file_id" json:"fileId"`
	FileName  string       `db:"file_name" json:"fileName"`
	Type      AnalysisType `db:"type" json:"type"`
	HasData   bool         `db:"has_data" json:"hasData"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}
