package extract

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
)

// Normalize converts an engine document into canonical records. Structured
// extractions are converted field for field. A document without extractions
// whose text holds a stringified AnnotatedDocument goes through the textual
// fallback instead. Malformed entries are dropped with a warning.
func Normalize(doc *Document) []Record {
	if doc == nil {
		return []Record{}
	}
	if len(doc.Extractions) == 0 && strings.Contains(doc.Text, annotatedDocumentMarker) {
		return recoverFromText(doc.Text)
	}

	records := make([]Record, 0, len(doc.Extractions))
	for i, e := range doc.Extractions {
		if e == nil {
			logger.Warn("[Normalize] skipping nil extraction", "index", i)
			continue
		}
		attrs, ok := toAttributes(e.Attributes)
		if !ok {
			logger.Warn("[Normalize] attributes are not a mapping, using empty attributes",
				"index", i, "type", fmt.Sprintf("%T", e.Attributes))
		}
		records = append(records, Record{
			ExtractionClass: e.ExtractionClass,
			ExtractionText:  e.ExtractionText,
			Attributes:      attrs,
			CharInterval:    e.CharInterval,
			TokenInterval:   e.TokenInterval,
			AlignmentStatus: e.AlignmentStatus,
			ExtractionIndex: e.ExtractionIndex,
			GroupIndex:      e.GroupIndex,
			Description:     e.Description,
		})
	}
	return records
}

// toAttributes coerces an attribute value into a mapping. nil is a valid
// empty mapping; anything else that is not a mapping reports false.
func toAttributes(v any) (map[string]any, bool) {
	switch a := v.(type) {
	case nil:
		return map[string]any{}, true
	case map[string]any:
		out := make(map[string]any, len(a))
		for k, val := range a {
			out[k] = val
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(a))
		for k, val := range a {
			out[k] = val
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(a))
		for k, val := range a {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return map[string]any{}, false
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}
