// Package doc extracts text from Word documents. Other formats pass through
// unchanged so the loader can wrap any source.
package doc

import (
	"context"
	"io"

	"github.com/OFFIS-RIT/lexgraph/pkg/loader"
)

const docXMLMax = 50 << 20

// DocGraphLoader extracts the text of .docx files loaded by an underlying
// loader. Files of other formats are returned as loaded.
type DocGraphLoader struct {
	loader loader.GraphFileLoader
	cache  *loader.Cache
}

// NewDocGraphLoader creates a document loader that extracts text directly from docx XML.
func NewDocGraphLoader(base loader.GraphFileLoader) *DocGraphLoader {
	return &DocGraphLoader{
		loader: base,
		cache:  loader.NewCache(),
	}
}

// GetFileText returns the text content of file.
func (l *DocGraphLoader) GetFileText(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	if file.Format() != "docx" {
		return l.loader.GetFileText(ctx, file)
	}
	return l.cache.Load(file, func() ([]byte, error) {
		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}
		return parseDocx(content)
	})
}

// GetFileTextFromIO extracts text content from a Word document provided as an io.Reader.
func GetFileTextFromIO(input io.Reader) ([]byte, error) {
	content, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	return parseDocx(content)
}
