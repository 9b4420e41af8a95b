package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/sheetlens/internal/ctxkeys"
	"github.com/templui/sheetlens/internal/export"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/parser"
	"github.com/templui/sheetlens/internal/repository"
	"github.com/templui/sheetlens/internal/service"
	"github.com/templui/sheetlens/internal/storage"
	"github.com/templui/sheetlens/internal/validation"
)

// errBadRequest marks malformed request input caught in this package.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// errorStatus maps domain errors onto HTTP statuses. Anything unknown is a 500.
func errorStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrInvalidAnalysisType),
		errors.Is(err, service.ErrMissingFileID),
		errors.Is(err, service.ErrConflictingModes),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrUnsupportedFormat),
		errors.Is(err, validation.ErrInvalidFile),
		errors.Is(err, validation.ErrMissingID),
		errors.Is(err, validation.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrFileNotFound),
		errors.Is(err, repository.ErrAnalysisNotFound),
		errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, parser.ErrParseFailure):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the mapped status. Server errors are logged and
// their text is never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		attrs := []any{"error", err, "path", r.URL.Path, "request_id", ctxkeys.RequestID(r.Context())}
		if id := ctxkeys.Identity(r.Context()); id != nil {
			attrs = append(attrs, "user_id", id.UserID)
		}
		slog.ErrorContext(r.Context(), msg, attrs...)
		writeJSON(w, status, errorResponse{Error: "Internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
