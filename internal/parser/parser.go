package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/templui/sheetlens/internal/dataset"
)

// Parser turns one file format into ordered row records.
type Parser interface {
	CanParse(filename string) bool
	Parse(r io.Reader) ([]dataset.Row, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
	Register(xlsParser{})
	Register(jsonParser{})
}

var (
	// ErrUnsupportedFormat is returned for file extensions no parser handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrParseFailure matches every *ParseError via errors.Is.
	ErrParseFailure = errors.New("failed to parse file")
)

// ParseError wraps the underlying cause of an unreadable or corrupt file.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParseFailure }

// SupportedExtensions lists the extensions Parse dispatches on.
var SupportedExtensions = []string{".csv", ".xlsx", ".xls", ".json"}

// Supports reports whether filename has an extension some parser handles.
func Supports(filename string) bool {
	_, ok := find(filename)
	return ok
}

// Parse selects a parser by the extension of filename and reads all rows from r.
func Parse(filename string, r io.Reader) ([]dataset.Row, error) {
	p, ok := find(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	return p.Parse(r)
}

// ParseFile opens path from disk and parses it.
func ParseFile(path string) ([]dataset.Row, error) {
	if !Supports(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Format: formatOf(path), Err: err}
	}
	defer func() { _ = f.Close() }()
	return Parse(path, f)
}

func find(filename string) (Parser, bool) {
	for _, p := range registry {
		if p.CanParse(filename) {
			return p, true
		}
	}
	return nil, false
}

func hasExt(filename, ext string) bool {
	return strings.EqualFold(filepath.Ext(filename), ext)
}

func formatOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
