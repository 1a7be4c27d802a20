package extract

import (
	"regexp"

	"github.com/OFFIS-RIT/lexgraph/pkg/ai"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
)

// Lossy recovery of records from a stringified AnnotatedDocument such as
//
//	AnnotatedDocument(extractions=[Extraction(extraction_class='关系', extraction_text='', attributes={'主体': 'A', ...}), ...])
//
// Only class, text and attributes survive. Values containing ')' or '}'
// cut the match short; such records lose their attributes.

const annotatedDocumentMarker = "AnnotatedDocument"

var (
	fallbackExtraction = regexp.MustCompile(`Extraction\(([^)]+)\)`)
	fallbackClass      = regexp.MustCompile(`extraction_class='([^']+)'`)
	fallbackText       = regexp.MustCompile(`extraction_text='([^']+)'`)
	fallbackAttributes = regexp.MustCompile(`attributes=(\{[^}]+\})`)
)

func recoverFromText(text string) []Record {
	matches := fallbackExtraction.FindAllStringSubmatch(text, -1)
	records := make([]Record, 0, len(matches))
	for _, m := range matches {
		body := m[1]
		rec := Record{Attributes: map[string]any{}}
		if c := fallbackClass.FindStringSubmatch(body); c != nil {
			rec.ExtractionClass = c[1]
		}
		if t := fallbackText.FindStringSubmatch(body); t != nil {
			rec.ExtractionText = t[1]
		}
		if a := fallbackAttributes.FindStringSubmatch(body); a != nil {
			rec.Attributes = parseAttributeLiteral(a[1])
		}
		records = append(records, rec)
	}
	logger.Debug("[Normalize] recovered records from text fallback", "count", len(records))
	return records
}

// parseAttributeLiteral reads a dict literal with single quoted strings.
// Unparseable input yields an empty mapping.
func parseAttributeLiteral(literal string) map[string]any {
	var attrs map[string]any
	if err := ai.UnmarshalFlexible(literal, &attrs); err != nil || attrs == nil {
		logger.Warn("[Normalize] could not parse fallback attributes", "literal", literal, "err", err)
		return map[string]any{}
	}
	return attrs
}
