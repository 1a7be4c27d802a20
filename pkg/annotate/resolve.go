package annotate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/ai"
	"github.com/OFFIS-RIT/lexgraph/pkg/extract"
)

type schemaAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type schemaExtraction struct {
	ExtractionClass string            `json:"extraction_class"`
	ExtractionText  string            `json:"extraction_text"`
	Attributes      []schemaAttribute `json:"attributes"`
}

// schemaPayload is the fixed structure requested from models that support
// JSON schema constrained output.
type schemaPayload struct {
	Extractions []schemaExtraction `json:"extractions"`
}

func (p schemaPayload) extractions() []*extract.Extraction {
	out := make([]*extract.Extraction, 0, len(p.Extractions))
	for _, e := range p.Extractions {
		attrs := make(map[string]any, len(e.Attributes))
		for _, a := range e.Attributes {
			if a.Name == "" {
				continue
			}
			attrs[a.Name] = a.Value
		}
		out = append(out, &extract.Extraction{
			ExtractionClass: e.ExtractionClass,
			ExtractionText:  e.ExtractionText,
			Attributes:      attrs,
		})
	}
	return out
}

// resolveDynamic parses free-form model output in the dynamic key format.
// Items that already use extraction_class/extraction_text keys are accepted
// as well.
func resolveDynamic(raw string, suffix string) ([]*extract.Extraction, error) {
	raw = ai.StripCodeFence(raw)

	var items []map[string]any
	var wrapped struct {
		Extractions []map[string]any `json:"extractions"`
	}
	if err := ai.UnmarshalFlexible(raw, &wrapped); err == nil && wrapped.Extractions != nil {
		items = wrapped.Extractions
	} else if err := ai.UnmarshalFlexible(raw, &items); err != nil {
		return nil, fmt.Errorf("unparseable model output: %w", err)
	}

	out := make([]*extract.Extraction, 0, len(items))
	for _, item := range items {
		if class, ok := item["extraction_class"].(string); ok {
			text, _ := item["extraction_text"].(string)
			out = append(out, &extract.Extraction{
				ExtractionClass: class,
				ExtractionText:  text,
				Attributes:      item["attributes"],
			})
			continue
		}

		keys := make([]string, 0, len(item))
		for k := range item {
			if !strings.HasSuffix(k, suffix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		for _, class := range keys {
			out = append(out, &extract.Extraction{
				ExtractionClass: class,
				ExtractionText:  textValue(item[class]),
				Attributes:      item[class+suffix],
			})
		}
	}
	return out, nil
}

func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
