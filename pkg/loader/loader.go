// Package loader reads source documents for extraction from local disk or
// object storage.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var ErrUnsupportedFormat = errors.New("unsupported document format")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// supportedFormats are the lower-case extensions accepted for extraction.
var supportedFormats = map[string]bool{
	"txt":  true,
	"md":   true,
	"docx": true,
}

// GraphFile is a document that can be turned into extraction input. The
// content is retrieved through Loader.
type GraphFile struct {
	ID       string
	FilePath string
	Loader   GraphFileLoader
}

// GraphFileLoader loads the raw content of a GraphFile. Implementations may
// read from disk, S3 or transform the bytes of another loader.
type GraphFileLoader interface {
	GetFileText(ctx context.Context, file GraphFile) ([]byte, error)
}

// Name returns the base name of the file, which is recorded as filename
// provenance on merged nodes.
func (f GraphFile) Name() string {
	return filepath.Base(f.FilePath)
}

// Format returns the lower-case extension of the file without the dot.
func (f GraphFile) Format() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.FilePath), "."))
}

// CheckFormat returns ErrUnsupportedFormat for files that cannot be loaded.
func CheckFormat(path string) error {
	f := GraphFile{FilePath: path}
	if !supportedFormats[f.Format()] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f.Name())
	}
	return nil
}

// GetText retrieves the content through the file's Loader and returns it as
// UTF-8 text without byte order mark.
//
// Example:
//
//	file := loader.GraphFile{ID: "1", FilePath: "case.docx", Loader: doc.NewDocGraphLoader(io.NewIOGraphFileLoader())}
//	text, err := file.GetText(ctx)
func (f *GraphFile) GetText(ctx context.Context) (string, error) {
	if f.Loader == nil {
		return "", fmt.Errorf("no loader configured for %q", f.FilePath)
	}
	raw, err := f.Loader.GetFileText(ctx, *f)
	if err != nil {
		return "", err
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%q is not valid UTF-8", f.Name())
	}
	return string(raw), nil
}

// CacheKey generates a unique cache key for a GraphFile based on its ID and path.
func CacheKey(file GraphFile) string {
	return file.ID + ":" + file.FilePath
}
