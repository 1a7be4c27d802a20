package common

import "strings"

// Well-known labels and predicates of the case supervision graph.
const (
	// LabelBusinessNode marks nodes produced from a business outline.
	LabelBusinessNode = "业务节点"
	// LabelFile marks nodes produced from a filename list.
	LabelFile = "文件"

	// PredicateContains links an outline node to its children.
	PredicateContains = "包含"
	// PredicateRelatedFile links a business node to an associated file.
	PredicateRelatedFile = "相关文件"
	// PredicateRelatedBusiness links a file to the business node it belongs to.
	PredicateRelatedBusiness = "相关业务"

	// PropertyLevel holds the outline depth of a business node.
	PropertyLevel = "层级"
	// PropertyFileFormat holds the lower-case extension of a file node.
	PropertyFileFormat = "文件格式"
)

// GraphLevel classifies how general the data of a merge is.
type GraphLevel string

const (
	DocumentLevel GraphLevel = "DocumentLevel"
	DomainLevel   GraphLevel = "DomainLevel"
	GlobalLevel   GraphLevel = "GlobalLevel"
)

// Valid reports whether l is one of the known graph levels.
func (l GraphLevel) Valid() bool {
	switch l {
	case DocumentLevel, DomainLevel, GlobalLevel:
		return true
	}
	return false
}

// Graph is a set of entities and the relations between them, as produced by
// the outline parser or the extraction pipeline. Relations may reference
// entities that are not part of Entities.
type Graph struct {
	Entities  []Entity   `json:"entities" yaml:"entities"`
	Relations []Relation `json:"relations" yaml:"relations"`
}

// Entity is a typed node of the graph. ID is the identity key and currently
// equals the extracted text verbatim, so two textually different mentions of
// the same thing become two entities.
type Entity struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Label      string         `json:"label" yaml:"label"`
	Properties map[string]any `json:"properties" yaml:"properties"`
}

// Relation is a directed, typed edge between two entity identities.
type Relation struct {
	Subject   string `json:"subject" yaml:"subject"`
	Predicate string `json:"predicate" yaml:"predicate"`
	Object    string `json:"object" yaml:"object"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
}

// EffectiveLabel returns Label, falling back to Predicate when it is empty.
func (r Relation) EffectiveLabel() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Predicate
}

// EntityIDs returns the identities of all entities in order.
func (g Graph) EntityIDs() []string {
	ids := make([]string, 0, len(g.Entities))
	for _, e := range g.Entities {
		ids = append(ids, e.ID)
	}
	return ids
}

// FormatNameList renders names as a bracketed list of single-quoted strings,
// e.g. ['a', 'b']. Prompts use this shape to hand closed name lists to the
// model.
func FormatNameList(names []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(n)
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}
