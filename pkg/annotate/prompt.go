package annotate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/extract"
)

const defaultAttributeSuffix = "_attributes"

// attributeSuffix returns the key suffix that marks an attribute object in
// the dynamic output format.
func attributeSuffix(cfg extract.Config) string {
	if s, ok := cfg.ResolverParams["attribute_suffix"].(string); ok && s != "" {
		return s
	}
	return defaultAttributeSuffix
}

// dynamicExample renders extractions as
// {"extractions":[{"<class>": "<text>", "<class>_attributes": {...}}]}.
func dynamicExample(ex extract.Example, suffix string) ([]byte, error) {
	items := make([]map[string]any, 0, len(ex.Extractions))
	for _, e := range ex.Extractions {
		attrs := e.Attributes
		if attrs == nil {
			attrs = map[string]any{}
		}
		items = append(items, map[string]any{
			e.ExtractionClass:          e.ExtractionText,
			e.ExtractionClass + suffix: attrs,
		})
	}
	return marshal(map[string]any{"extractions": items})
}

// schemaExample renders extractions in the shape of schemaPayload.
func schemaExample(ex extract.Example) ([]byte, error) {
	payload := schemaPayload{Extractions: make([]schemaExtraction, 0, len(ex.Extractions))}
	for _, e := range ex.Extractions {
		payload.Extractions = append(payload.Extractions, schemaExtraction{
			ExtractionClass: e.ExtractionClass,
			ExtractionText:  e.ExtractionText,
			Attributes:      toSchemaAttributes(e.Attributes),
		})
	}
	return marshal(payload)
}

func toSchemaAttributes(attrs map[string]any) []schemaAttribute {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]schemaAttribute, 0, len(keys))
	for _, k := range keys {
		out = append(out, schemaAttribute{Name: k, Value: fmt.Sprint(attrs[k])})
	}
	return out
}

func marshal(v any) ([]byte, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(b.String())), nil
}

// renderPrompt assembles the description, the few-shot examples, the
// optional additional context and the chunk to annotate.
func renderPrompt(req extract.Request, text string) (string, error) {
	cfg := req.Config
	suffix := attributeSuffix(cfg)

	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Prompt))
	b.WriteString("\n\n")

	if len(req.Examples) > 0 {
		b.WriteString("Examples\n")
		for _, ex := range req.Examples {
			var (
				answer []byte
				err    error
			)
			if cfg.UseSchemaConstraints {
				answer, err = schemaExample(ex)
			} else {
				answer, err = dynamicExample(ex, suffix)
			}
			if err != nil {
				return "", fmt.Errorf("render example: %w", err)
			}

			b.WriteString("Q: ")
			b.WriteString(ex.Text)
			b.WriteString("\nA: ")
			if cfg.FenceOutput {
				b.WriteString("```json\n")
				b.Write(answer)
				b.WriteString("\n```")
			} else {
				b.Write(answer)
			}
			b.WriteString("\n\n")
		}
	}

	if ctx := strings.TrimSpace(cfg.AdditionalContext); ctx != "" {
		b.WriteString(ctx)
		b.WriteString("\n\n")
	}

	b.WriteString("Q: ")
	b.WriteString(text)
	b.WriteString("\nA: ")
	return b.String(), nil
}
