package extract

import (
	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
)

// GraphExample is a few-shot example for both phases: the same text with
// its expected node and edge extractions.
type GraphExample struct {
	Text  string              `json:"text" yaml:"text"`
	Nodes []ExampleExtraction `json:"nodes" yaml:"nodes"`
	Edges []ExampleExtraction `json:"edges" yaml:"edges"`
}

// SplitExamples separates graph examples into node-only and edge-only
// example sets that share the example text.
func SplitExamples(examples []GraphExample) (nodes []Example, edges []Example) {
	nodes = make([]Example, 0, len(examples))
	edges = make([]Example, 0, len(examples))
	for _, ex := range examples {
		nodes = append(nodes, Example{Text: ex.Text, Extractions: ex.Nodes})
		edges = append(edges, Example{Text: ex.Text, Extractions: ex.Edges})
	}
	return nodes, edges
}

// prepareExamples drops extractions that have neither class nor text and
// gives every extraction a non-nil attribute map. The input is not modified.
func prepareExamples(examples []Example) []Example {
	out := make([]Example, 0, len(examples))
	for i, ex := range examples {
		extractions := make([]ExampleExtraction, 0, len(ex.Extractions))
		for j, e := range ex.Extractions {
			if e.ExtractionClass == "" && e.ExtractionText == "" {
				logger.Warn("[Extract] skipping empty example extraction", "example", i, "extraction", j)
				continue
			}
			attrs := e.Attributes
			if attrs == nil {
				attrs = map[string]any{}
			}
			extractions = append(extractions, ExampleExtraction{
				ExtractionClass: e.ExtractionClass,
				ExtractionText:  e.ExtractionText,
				Attributes:      attrs,
			})
		}
		out = append(out, Example{Text: ex.Text, Extractions: extractions})
	}
	return out
}

// RelationExample builds an edge-phase example from known relations.
func RelationExample(text string, relations []common.Relation) Example {
	ex := Example{Text: text, Extractions: make([]ExampleExtraction, 0, len(relations))}
	for _, r := range relations {
		ex.Extractions = append(ex.Extractions, ExampleExtraction{
			ExtractionClass: RelationClass,
			Attributes: map[string]any{
				SubjectKeys[0]:   r.Subject,
				PredicateKeys[0]: r.Predicate,
				ObjectKeys[0]:    r.Object,
			},
		})
	}
	return ex
}
