package service

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/repository"
	"github.com/templui/sheetlens/internal/storage"
)

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
	now      func() time.Time
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
		now:      time.Now,
	}
}

// Upload stores a file and creates its descriptor.
// Note: File validation (type, size, content) should be done by the caller before calling Upload
func (s *FileService) Upload(userID string, file multipart.File, header *multipart.FileHeader) (*model.File, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	id := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := id + ext
	storagePath := path.Join("uploads", userID, filename)

	err = s.storage.Save(storagePath, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	fileModel := &model.File{
		ID:           id,
		UserID:       userID,
		Filename:     filename,
		OriginalName: filepath.Base(header.Filename),
		MimeType:     header.Header.Get("Content-Type"),
		Size:         int64(len(content)),
		StoragePath:  storagePath,
		Checksum:     Checksum(content),
		CreatedAt:    s.now().UTC(),
	}

	err = s.fileRepo.Create(fileModel)
	if err != nil {
		// If DB insert fails, try to cleanup the uploaded file
		delErr := s.storage.Delete(storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	slog.Info("file uploaded", "user_id", userID, "file_id", id, "size", fileModel.Size, "checksum", fileModel.Checksum)
	return fileModel, nil
}

// Checksum is the hex xxhash64 of content, used to spot re-uploads.
func Checksum(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

// ByIDForUser returns the descriptor only when userID owns it.
func (s *FileService) ByIDForUser(userID, fileID string) (*model.File, error) {
	return s.fileRepo.ByIDForUser(userID, fileID)
}

func (s *FileService) Files(userID string) ([]*model.File, error) {
	return s.fileRepo.AllUserFiles(userID)
}

// Open returns the stored content of a file. Callers close it.
func (s *FileService) Open(file *model.File) (io.ReadCloser, error) {
	rc, err := s.storage.Open(file.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file %s: %w", file.ID, err)
	}
	return rc, nil
}

// Delete removes a file record, its analyses and its stored content.
func (s *FileService) Delete(userID, fileID string) error {
	file, err := s.fileRepo.ByIDForUser(userID, fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	err = s.fileRepo.Delete(userID, fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	// Delete from storage (best effort)
	delErr := s.storage.Delete(file.StoragePath)
	if delErr != nil {
		slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}

	return nil
}
