// Package merge writes entity/relation graphs into a tag-scoped store.
//
// Every Merge call runs in one transaction. Nodes are keyed by (tag, id) and
// edges by (tag, subject, type, object); repeated merges rewrite descriptive
// fields and accumulate graph_level and filename without duplicates.
package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"
)

var (
	ErrInvalidTag   = errors.New("invalid graph tag")
	ErrInvalidLevel = errors.New("invalid graph level")
)

// SanitizeIdentifier replaces every rune that is neither a letter nor a digit
// with an underscore. Letters outside ASCII are kept, so "相关-文件" becomes
// "相关_文件". Different inputs may sanitize to the same identifier.
func SanitizeIdentifier(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)
}

// ValidateTag reports whether tag can be used as a graph tag: non-empty and
// unchanged by SanitizeIdentifier, apart from underscores.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTag)
	}
	for _, r := range tag {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidTag, tag, r)
		}
	}
	return nil
}

// MergeParams is the input of one merge. GraphLevel defaults to
// DocumentLevel; an empty Filename records no filename provenance.
type MergeParams struct {
	GraphTag   string
	Graph      common.Graph
	Filename   string
	GraphLevel common.GraphLevel
}

// Result summarizes a merge.
type Result struct {
	Nodes        int `json:"nodes"`
	Edges        int `json:"edges"`
	SkippedNodes int `json:"skipped_nodes"`
	SkippedEdges int `json:"skipped_edges"`
}

// Model owns the merge algorithm on top of a store.
type Model struct {
	store store.Store
}

func New(s store.Store) *Model {
	return &Model{store: s}
}

// Merge upserts all entities and then all relations of p.Graph. A relation
// whose endpoint does not exist is skipped with a warning. Any other store
// error rolls the whole merge back.
func (m *Model) Merge(ctx context.Context, p MergeParams) (*Result, error) {
	if err := ValidateTag(p.GraphTag); err != nil {
		logger.Error("[Merge] rejected merge", "err", err)
		return nil, err
	}
	level := p.GraphLevel
	if level == "" {
		level = common.DocumentLevel
	}
	if !level.Valid() {
		err := fmt.Errorf("%w: %q", ErrInvalidLevel, level)
		logger.Error("[Merge] rejected merge", "err", err)
		return nil, err
	}

	log := logger.With("graph_tag", p.GraphTag, "filename", p.Filename, "graph_level", level)

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	res := &Result{}
	for _, e := range p.Graph.Entities {
		if e.ID == "" {
			log.Warn("[Merge] skipping entity without id", "name", e.Name)
			res.SkippedNodes++
			continue
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		err := tx.UpsertNode(ctx, store.NodeUpsert{
			GraphTag:   p.GraphTag,
			ID:         e.ID,
			Name:       name,
			Label:      e.Label,
			Properties: e.Properties,
			GraphLevel: string(level),
			Filename:   p.Filename,
		})
		if err != nil {
			log.Error("[Merge] node upsert failed, rolling back", "id", e.ID, "err", err)
			return nil, err
		}
		res.Nodes++
	}

	for _, r := range p.Graph.Relations {
		typ := SanitizeIdentifier(r.Predicate)
		if typ == "" || r.Subject == "" || r.Object == "" {
			log.Warn("[Merge] skipping incomplete relation",
				"subject", r.Subject, "predicate", r.Predicate, "object", r.Object)
			res.SkippedEdges++
			continue
		}

		err := tx.UpsertEdge(ctx, store.EdgeUpsert{
			GraphTag:   p.GraphTag,
			Subject:    r.Subject,
			Type:       typ,
			Object:     r.Object,
			Label:      r.EffectiveLabel(),
			GraphLevel: string(level),
			Filename:   p.Filename,
		})
		if errors.Is(err, store.ErrMissingEndpoint) {
			log.Warn("[Merge] skipping relation with missing endpoint",
				"subject", r.Subject, "type", typ, "object", r.Object)
			res.SkippedEdges++
			continue
		}
		if err != nil {
			log.Error("[Merge] edge upsert failed, rolling back",
				"subject", r.Subject, "type", typ, "object", r.Object, "err", err)
			return nil, err
		}
		res.Edges++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit merge: %w", err)
	}

	log.Info("[Merge] graph merged",
		"nodes", res.Nodes, "edges", res.Edges,
		"skipped_nodes", res.SkippedNodes, "skipped_edges", res.SkippedEdges)
	return res, nil
}

// DeleteTag removes every node and edge of tag.
func (m *Model) DeleteTag(ctx context.Context, tag string) error {
	if err := ValidateTag(tag); err != nil {
		return err
	}
	if err := m.store.DeleteTag(ctx, tag); err != nil {
		logger.Error("[Merge] delete failed", "graph_tag", tag, "err", err)
		return err
	}
	logger.Info("[Merge] graph deleted", "graph_tag", tag)
	return nil
}

// Clear removes all graphs.
func (m *Model) Clear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		logger.Error("[Merge] clear failed", "err", err)
		return err
	}
	logger.Warn("[Merge] all graphs cleared")
	return nil
}
