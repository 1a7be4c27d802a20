package extract

import (
	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

// RelationClass is the extraction class that marks relation records.
const RelationClass = "关系"

// Role keys of relation attributes. Each role accepts a primary key and a
// grammatical alias; the primary key wins when both are present.
var (
	SubjectKeys   = [2]string{"主体", "主语"}
	PredicateKeys = [2]string{"谓词", "谓语"}
	ObjectKeys    = [2]string{"客体", "宾语"}
)

func resolveRole(r Record, keys [2]string) string {
	if v := r.Attr(keys[0]); v != "" {
		return v
	}
	return r.Attr(keys[1])
}

// Nodes projects records onto entities. Relation records and records without
// class or text are ignored. The identity of an entity is its extraction
// text, the first record for an identity wins.
func Nodes(records []Record) []common.Entity {
	seen := make(map[string]struct{})
	entities := make([]common.Entity, 0)
	for _, r := range records {
		if r.ExtractionClass == RelationClass || r.ExtractionClass == "" || r.ExtractionText == "" {
			continue
		}
		id := r.ExtractionText
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		props := r.Attributes
		if props == nil {
			props = map[string]any{}
		}
		entities = append(entities, common.Entity{
			ID:         id,
			Name:       r.ExtractionText,
			Label:      r.ExtractionClass,
			Properties: props,
		})
	}
	return entities
}

// Edges projects records onto relations. A record qualifies when it has a
// class and each role resolves under its primary key or alias. The class is
// the relation label.
func Edges(records []Record) []common.Relation {
	relations := make([]common.Relation, 0)
	for _, r := range records {
		if r.ExtractionClass == "" {
			continue
		}
		subject := resolveRole(r, SubjectKeys)
		predicate := resolveRole(r, PredicateKeys)
		object := resolveRole(r, ObjectKeys)
		if subject == "" || predicate == "" || object == "" {
			continue
		}

		relations = append(relations, common.Relation{
			Subject:   subject,
			Predicate: predicate,
			Object:    object,
			Label:     r.ExtractionClass,
		})
	}
	return relations
}
