package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/templui/sheetlens/internal/ctxkeys"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/service"
	"github.com/templui/sheetlens/internal/validation"
)

// multipart framing on top of the file itself
const formOverhead = 1 << 20

type FileHandler struct {
	fileService *service.FileService
	maxBytes    int64
}

func NewFileHandler(fileService *service.FileService, maxBytes int64) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		maxBytes:    maxBytes,
	}
}

type fileResponse struct {
	Success bool        `json:"success"`
	Data    *model.File `json:"data"`
}

type filesResponse struct {
	Success bool          `json:"success"`
	Data    []*model.File `json:"data"`
}

func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id := ctxkeys.Identity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	err := r.ParseMultipartForm(h.maxBytes)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err), "failed to parse upload form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: no file uploaded", errBadRequest), "failed to read upload")
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr)
		}
	}()

	err = validation.ValidateFile(header, validation.SpreadsheetConstraints(h.maxBytes))
	if err != nil {
		writeError(w, r, err, "failed to validate upload")
		return
	}

	f, err := h.fileService.Upload(id.UserID, file, header)
	if err != nil {
		writeError(w, r, err, "failed to upload file")
		return
	}

	writeJSON(w, http.StatusCreated, fileResponse{Success: true, Data: f})
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	id := ctxkeys.Identity(r.Context())

	files, err := h.fileService.Files(id.UserID)
	if err != nil {
		writeError(w, r, err, "failed to list files")
		return
	}

	writeJSON(w, http.StatusOK, filesResponse{Success: true, Data: files})
}

func (h *FileHandler) Show(w http.ResponseWriter, r *http.Request) {
	id := ctxkeys.Identity(r.Context())
	fileID := r.PathValue("id")

	if err := validation.ValidateID(fileID); err != nil {
		writeError(w, r, err, "invalid file id")
		return
	}

	f, err := h.fileService.ByIDForUser(id.UserID, fileID)
	if err != nil {
		writeError(w, r, err, "failed to get file")
		return
	}

	writeJSON(w, http.StatusOK, fileResponse{Success: true, Data: f})
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := ctxkeys.Identity(r.Context())
	fileID := r.PathValue("id")

	if err := validation.ValidateID(fileID); err != nil {
		writeError(w, r, err, "invalid file id")
		return
	}

	err := h.fileService.Delete(id.UserID, fileID)
	if err != nil {
		writeError(w, r, err, "failed to delete file")
		return
	}

	slog.Info("file deleted", "user_id", id.UserID, "file_id", fileID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
