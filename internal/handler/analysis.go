package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/templui/sheetlens/internal/ctxkeys"
	"github.com/templui/sheetlens/internal/export"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/service"
	"github.com/templui/sheetlens/internal/validation"
)

const maxAnalyzeBody = 64 << 10

const (
	msgNoAnalysis = "No analysis found for this file"
	msgNoData     = "No numeric data found in file"
)

type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
	}
}

type analyzeRequest struct {
	FileID      string `json:"fileId"`
	Type        string `json:"type"`
	FetchOnly   bool   `json:"fetchOnly"`
	GenerateNew bool   `json:"generateNew"`
}

type analyzeResponse struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	HasData    bool            `json:"hasData"`
	AnalysisID string          `json:"analysisId,omitempty"`
	CreatedAt  *time.Time      `json:"createdAt,omitempty"`
	Cached     bool            `json:"cached"`
	Saved      bool            `json:"saved"`
	Message    string          `json:"message,omitempty"`
}

type historyResponse struct {
	Success bool `json:"success"`
	*service.HistoryPage
}

func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	id := ctxkeys.Identity(r.Context())

	var body analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnalyzeBody))
	if err := dec.Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid request body", errBadRequest), "failed to decode analysis request")
		return
	}
	if body.FileID != "" {
		if err := validation.ValidateID(body.FileID); err != nil {
			writeError(w, r, err, "invalid file id")
			return
		}
	}

	res, err := h.analysisService.Analyze(r.Context(), id.UserID, service.AnalyzeRequest{
		FileID:      body.FileID,
		Type:        model.AnalysisType(body.Type),
		FetchOnly:   body.FetchOnly,
		GenerateNew: body.GenerateNew,
	})
	if err != nil {
		writeError(w, r, err, "failed to analyze file")
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponseFor(res))
}

func analyzeResponseFor(res *service.AnalyzeResult) analyzeResponse {
	if !res.Found || res.Analysis == nil {
		return analyzeResponse{Success: true, Message: msgNoAnalysis}
	}

	a := res.Analysis
	out := analyzeResponse{
		Success:    true,
		HasData:    a.HasData,
		AnalysisID: a.ID,
		CreatedAt:  &a.CreatedAt,
		Cached:     res.Cached,
		Saved:      res.Cached || res.Saved,
	}
	if a.HasData && a.Data != nil {
		out.Data = json.RawMessage(*a.Data)
	} else {
		out.Message = msgNoData
	}
	return out
}

func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := ctxkeys.Identity(r.Context())
	q := r.URL.Query()

	fileID := q.Get("fileId")
	if fileID != "" {
		if err := validation.ValidateID(fileID); err != nil {
			writeError(w, r, err, "invalid file id")
			return
		}
	}

	f, err := h.analysisService.Export(r.Context(), id.UserID, fileID,
		model.AnalysisType(q.Get("type")), export.Format(q.Get("format")))
	if err != nil {
		writeError(w, r, err, "failed to export analysis")
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, f.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Body)
}

func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	id := ctxkeys.Identity(r.Context())
	q := r.URL.Query()

	page, err := queryInt(q.Get("page"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid page", errBadRequest), "invalid history query")
		return
	}
	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid limit", errBadRequest), "invalid history query")
		return
	}

	hp, err := h.analysisService.History(r.Context(), id.UserID, service.HistoryQuery{
		Type:  model.AnalysisType(q.Get("type")),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		writeError(w, r, err, "failed to list analysis history")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Success: true, HistoryPage: hp})
}

// queryInt treats an absent parameter as zero so the service defaults apply.
func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
