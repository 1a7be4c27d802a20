package doc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const documentPart = "word/document.xml"

var (
	ErrNoDocumentPart = errors.New("word/document.xml not found in docx")

	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// bodyWriter collects the visible text of a WordprocessingML body. Deleted
// revisions are skipped, table cells are separated by tabs and every
// paragraph ends a line.
type bodyWriter struct {
	sb       strings.Builder
	inText   bool
	deleted  int
	tables   int
	cellSeen bool
}

func (w *bodyWriter) visible() bool { return w.deleted == 0 }

func (w *bodyWriter) endLine() {
	if w.visible() {
		w.sb.WriteByte('\n')
	}
}

func (w *bodyWriter) start(name string) {
	switch name {
	case "del":
		w.deleted++
	case "t", "delText":
		w.inText = name == "t"
	case "tab":
		if w.visible() {
			w.sb.WriteByte('\t')
		}
	case "br", "cr":
		w.endLine()
	case "noBreakHyphen":
		if w.visible() {
			w.sb.WriteByte('-')
		}
	case "tbl":
		w.tables++
		if s := w.sb.String(); s != "" && !strings.HasSuffix(s, "\n") {
			w.endLine()
		}
	case "tr":
		w.cellSeen = false
	case "tc":
		if w.tables > 0 && w.visible() {
			if w.cellSeen {
				w.sb.WriteByte('\t')
			}
			w.cellSeen = true
		}
	}
}

func (w *bodyWriter) end(name string) {
	switch name {
	case "t", "delText":
		w.inText = false
	case "p":
		// paragraphs inside a cell stay on the row line
		if w.tables == 0 {
			w.endLine()
		}
	case "tr":
		w.endLine()
	case "tbl":
		if w.tables > 0 {
			w.tables--
		}
		w.endLine()
	case "del":
		if w.deleted > 0 {
			w.deleted--
		}
	}
}

func (w *bodyWriter) text(data []byte) {
	if w.inText && w.visible() {
		w.sb.Write(data)
	}
}

func (w *bodyWriter) String() string {
	text := strings.TrimSpace(w.sb.String())
	text = blankRuns.ReplaceAllString(text, "\n\n")
	if text == "" {
		return ""
	}
	return text + "\n"
}

func openDocumentPart(content []byte) (io.ReadCloser, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		if f.UncompressedSize64 > docXMLMax {
			return nil, fmt.Errorf("%s too large: %d bytes", documentPart, f.UncompressedSize64)
		}
		return f.Open()
	}
	return nil, ErrNoDocumentPart
}

func parseDocx(content []byte) ([]byte, error) {
	rc, err := openDocumentPart(content)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, docXMLMax))
	w := &bodyWriter{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			w.start(t.Name.Local)
		case xml.EndElement:
			w.end(t.Name.Local)
		case xml.CharData:
			w.text(t)
		}
	}

	return []byte(w.String()), nil
}
