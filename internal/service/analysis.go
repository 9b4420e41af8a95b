package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/sheetlens/internal/export"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/parser"
	"github.com/templui/sheetlens/internal/repository"
	"github.com/templui/sheetlens/internal/stats"
	"github.com/templui/sheetlens/internal/view"
)

const (
	DefaultHistoryLimit = 20
	DefaultHistoryMax   = 100
)

var (
	ErrMissingFileID    = errors.New("file id is required")
	ErrConflictingModes = errors.New("fetchOnly and generateNew cannot both be set")
)

// FileSource is the slice of file storage the pipeline reads from.
type FileSource interface {
	ByIDForUser(userID, fileID string) (*model.File, error)
	Open(file *model.File) (io.ReadCloser, error)
}

type AnalyzeRequest struct {
	FileID      string
	Type        model.AnalysisType
	FetchOnly   bool
	GenerateNew bool
}

// AnalyzeResult reports what Analyze did. Analysis is nil only when a
// fetch-only request found nothing stored.
type AnalyzeResult struct {
	Analysis *model.Analysis
	Found    bool
	Cached   bool
	Saved    bool
}

type HistoryQuery struct {
	Type  model.AnalysisType // empty matches every type
	Page  int
	Limit int
}

type HistoryPage struct {
	Count int                      `json:"count"`
	Total int                      `json:"total"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
	Data  []*model.AnalysisSummary `json:"data"`
}

type AnalysisService struct {
	analysisRepo repository.AnalysisRepository
	files        FileSource
	clock        view.Clock
	historyMax   int
}

func NewAnalysisService(analysisRepo repository.AnalysisRepository, files FileSource, clock view.Clock, historyMax int) *AnalysisService {
	if clock == nil {
		clock = view.SystemClock{}
	}
	if historyMax <= 0 {
		historyMax = DefaultHistoryMax
	}
	return &AnalysisService{
		analysisRepo: analysisRepo,
		files:        files,
		clock:        clock,
		historyMax:   historyMax,
	}
}

// Analyze serves an analysis from the store or generates a new one.
// FetchOnly never generates; GenerateNew always does; otherwise the stored
// result is used when there is one.
func (s *AnalysisService) Analyze(ctx context.Context, userID string, req AnalyzeRequest) (*AnalyzeResult, error) {
	t, err := model.ParseAnalysisType(string(req.Type))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, req.Type)
	}
	fileID := strings.TrimSpace(req.FileID)
	if fileID == "" {
		return nil, ErrMissingFileID
	}
	if req.FetchOnly && req.GenerateNew {
		return nil, ErrConflictingModes
	}

	file, err := s.files.ByIDForUser(userID, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	if !req.GenerateNew {
		stored, err := s.FindLatest(ctx, userID, fileID, t)
		switch {
		case err == nil:
			return &AnalyzeResult{Analysis: stored, Found: true, Cached: true}, nil
		case !errors.Is(err, repository.ErrAnalysisNotFound):
			return nil, err
		case req.FetchOnly:
			return &AnalyzeResult{}, nil
		}
	}

	a, err := s.generate(ctx, userID, file, t)
	if err != nil {
		return nil, err
	}

	saved := true
	if err := s.Save(ctx, a); err != nil {
		saved = false
		slog.ErrorContext(ctx, "failed to save analysis", "error", err, "user_id", userID, "file_id", fileID, "type", t)
	}

	return &AnalyzeResult{Analysis: a, Found: true, Saved: saved}, nil
}

// generate runs the parse, aggregate and build pipeline over a stored file.
func (s *AnalysisService) generate(ctx context.Context, userID string, file *model.File, t model.AnalysisType) (*model.Analysis, error) {
	start := time.Now()

	rc, err := s.files.Open(file)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	rows, err := parser.Parse(file.Filename, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", file.ID, err)
	}

	st := stats.Aggregate(rows)
	res, err := view.Build(t, rows, st, s.clock)
	if err != nil {
		return nil, err
	}

	a, err := NewAnalysis(userID, file.ID, t, res, s.clock.Now())
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "analysis generated",
		"user_id", userID,
		"file_id", file.ID,
		"type", t,
		"rows", st.TotalRows,
		"numeric_columns", len(st.NumericColumns),
		"has_data", res.HasData,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return a, nil
}

// NewAnalysis wraps a built view in a fresh record, encoding the payload
// only when the source had data.
func NewAnalysis(userID, fileID string, t model.AnalysisType, res view.Result, now time.Time) (*model.Analysis, error) {
	// Version 7 ids sort by creation, which breaks created_at ties in Latest.
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate analysis id: %w", err)
	}
	a := &model.Analysis{
		ID:        id.String(),
		UserID:    userID,
		FileID:    fileID,
		Type:      t,
		HasData:   res.HasData,
		CreatedAt: now.UTC(),
	}
	if res.HasData {
		data, err := json.Marshal(res.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode analysis: %w", err)
		}
		encoded := string(data)
		a.Data = &encoded
	}
	return a, nil
}

func (s *AnalysisService) FindLatest(ctx context.Context, userID, fileID string, t model.AnalysisType) (*model.Analysis, error) {
	a, err := s.analysisRepo.Latest(userID, fileID, t)
	if err != nil {
		if errors.Is(err, repository.ErrAnalysisNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// Save always inserts; records are never updated in place.
func (s *AnalysisService) Save(ctx context.Context, a *model.Analysis) error {
	if err := s.analysisRepo.Create(a); err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (s *AnalysisService) History(ctx context.Context, userID string, q HistoryQuery) (*HistoryPage, error) {
	if q.Type != "" {
		t, err := model.ParseAnalysisType(string(q.Type))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, q.Type)
		}
		q.Type = t
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultHistoryLimit
	}
	if q.Limit > s.historyMax {
		q.Limit = s.historyMax
	}

	data, err := s.analysisRepo.List(userID, q.Type, q.Limit, (q.Page-1)*q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	total, err := s.analysisRepo.Count(userID, q.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}

	return &HistoryPage{
		Count: len(data),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
		Data:  data,
	}, nil
}

// Export renders the most recent stored analysis; it never generates.
func (s *AnalysisService) Export(ctx context.Context, userID, fileID string, t model.AnalysisType, format export.Format) (*export.File, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, ErrMissingFileID
	}
	t, err := model.ParseAnalysisType(string(t))
	if err != nil {
		return nil, err
	}
	format, err = export.ParseFormat(string(format))
	if err != nil {
		return nil, err
	}

	if _, err := s.files.ByIDForUser(userID, fileID); err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	a, err := s.FindLatest(ctx, userID, fileID, t)
	if err != nil {
		return nil, err
	}

	return export.Render(a, format, s.clock.Now())
}
