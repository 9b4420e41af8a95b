package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/templui/sheetlens/internal/parser"
)

var ErrInvalidFile = errors.New("invalid file")

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

// SpreadsheetConstraints accepts every format the parser understands, up to
// maxSize bytes. Sniffed types are coarse: CSV and JSON sniff as text,
// xlsx as zip and legacy xls as an opaque binary.
func SpreadsheetConstraints(maxSize int64) FileConstraints {
	exts := make(map[string]bool, len(parser.SupportedExtensions))
	for _, ext := range parser.SupportedExtensions {
		exts[ext] = true
	}
	return FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"text/plain; charset=utf-8":    true,
			"text/plain; charset=utf-16le": true,
			"text/plain; charset=utf-16be": true,
			"text/csv; charset=utf-8":      true,
			"application/zip":              true,
			"application/octet-stream":     true,
		},
		AllowedExtensions: exts,
		MaxSize:           maxSize,
	}
}

// ValidateFile validates a file upload against one or more constraint sets
// If multiple constraints are provided, file must match at least one (OR logic)
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) error {
	if len(constraints) == 0 {
		return fmt.Errorf("no file constraints provided")
	}

	var lastErr error
	for _, constraint := range constraints {
		err := validateAgainstConstraint(header, constraint)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return lastErr
}

func validateAgainstConstraint(header *multipart.FileHeader, constraints FileConstraints) error {
	// Extension first: it picks the parser
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !constraints.AllowedExtensions[ext] {
		return fmt.Errorf("%w: unsupported file extension %q", ErrInvalidFile, ext)
	}

	if header.Size == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}
	if header.Size > constraints.MaxSize {
		maxMB := float64(constraints.MaxSize) / (1 << 20)
		return fmt.Errorf("%w: file too large, maximum size is %.1f MB", ErrInvalidFile, maxMB)
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads max 512 bytes to determine MIME type
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file: %w", err)
	}

	detectedType := http.DetectContentType(buffer[:n])
	if !constraints.AllowedMimeTypes[detectedType] {
		return fmt.Errorf("%w: content does not look like a spreadsheet (detected: %s)", ErrInvalidFile, detectedType)
	}

	return nil
}
