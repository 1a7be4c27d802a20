// Package outline turns leveled business outlines into a hierarchy graph of
// business nodes connected by "contains" relations.
package outline

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

// DefaultRootName is the synthetic root every outline hangs off.
const DefaultRootName = "案件监督管理类业务"

type levelMarker struct {
	level   int
	pattern *regexp.Regexp
}

// Checked in order; the first match wins.
var levelMarkers = []levelMarker{
	{level: 1, pattern: regexp.MustCompile(`^\d+\.\s*`)},
	{level: 2, pattern: regexp.MustCompile(`^[（(]\d+[）)]\s*`)},
	{level: 3, pattern: regexp.MustCompile(`^[a-zA-Z]\.\s*`)},
	{level: 4, pattern: regexp.MustCompile(`^[-－]\s*`)},
}

type options struct {
	rootName string
}

// Option customizes Parse.
type Option func(*options)

// WithRootName replaces the default root node name.
func WithRootName(name string) Option {
	return func(o *options) {
		if strings.TrimSpace(name) != "" {
			o.rootName = strings.TrimSpace(name)
		}
	}
}

// classify returns the hierarchy level of a trimmed line and its content with
// the level marker removed. Lines without a marker are level 0.
func classify(line string) (int, string) {
	for _, m := range levelMarkers {
		if loc := m.pattern.FindStringIndex(line); loc != nil {
			return m.level, line[loc[1]:]
		}
	}
	return 0, line
}

func isScaffolding(line string) bool {
	return line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-")
}

func businessNode(name string, level int) common.Entity {
	return common.Entity{
		ID:    name,
		Name:  name,
		Label: common.LabelBusinessNode,
		Properties: map[string]any{
			common.PropertyLevel: strconv.Itoa(level),
		},
	}
}

// Parse builds the hierarchy graph of an outline. The root node is always the
// first entity. Every distinct line content becomes exactly one entity, and
// each content line produces a "contains" relation from its current parent.
// Identical relations are emitted once.
//
// Lines that are blank, start with '#' or start with an ASCII '-' are
// scaffolding (titles, comments, file lists) and are ignored. Level 4 lines
// therefore have to use the full-width dash.
func Parse(text string, opts ...Option) common.Graph {
	o := options{rootName: DefaultRootName}
	for _, opt := range opts {
		opt(&o)
	}

	root := businessNode(o.rootName, 0)
	g := common.Graph{
		Entities:  []common.Entity{root},
		Relations: []common.Relation{},
	}
	seen := map[string]struct{}{root.ID: {}}
	seenRel := map[common.Relation]struct{}{}
	stack := []string{root.ID}

	for raw := range strings.Lines(text) {
		line := strings.TrimSpace(raw)
		if isScaffolding(line) {
			continue
		}

		level, content := classify(line)
		if content == "" {
			continue
		}

		if len(stack) > level {
			stack = stack[:level]
		}

		if _, ok := seen[content]; !ok {
			seen[content] = struct{}{}
			g.Entities = append(g.Entities, businessNode(content, level))
		}

		if len(stack) > 0 {
			rel := common.Relation{
				Subject:   stack[len(stack)-1],
				Predicate: common.PredicateContains,
				Object:    content,
				Label:     common.PredicateContains,
			}
			if _, dup := seenRel[rel]; !dup {
				seenRel[rel] = struct{}{}
				g.Relations = append(g.Relations, rel)
			}
		}

		stack = append(stack, content)
	}

	return g
}

// ParseFile reads an UTF-8 outline file and parses it.
func ParseFile(path string, opts ...Option) (common.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.Graph{}, fmt.Errorf("failed to read outline file: %w", err)
	}
	return Parse(string(data), opts...), nil
}

// LeafNodes returns all entities that are never the subject of a "contains"
// relation, in entity order.
func LeafNodes(g common.Graph) []common.Entity {
	parents := make(map[string]struct{})
	for _, r := range g.Relations {
		if r.Predicate == common.PredicateContains {
			parents[r.Subject] = struct{}{}
		}
	}

	leaves := make([]common.Entity, 0)
	for _, e := range g.Entities {
		if _, ok := parents[e.Name]; !ok {
			leaves = append(leaves, e)
		}
	}
	return leaves
}

// LeafNames returns the names of LeafNodes.
func LeafNames(g common.Graph) []string {
	leaves := LeafNodes(g)
	names := make([]string, len(leaves))
	for i, e := range leaves {
		names[i] = e.Name
	}
	return names
}
