// Package memory is an in-process store.Store. A transaction works on a
// private copy of the graph and holds the store lock until it finishes, so
// transactions are serialized.
package memory

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/OFFIS-RIT/lexgraph/pkg/store"
)

var errTxDone = errors.New("transaction already finished")

type nodeKey struct{ tag, id string }

type edgeKey struct{ tag, subject, typ, object string }

type graph struct {
	nodes map[nodeKey]store.Node
	edges map[edgeKey]store.Edge
}

func (g graph) clone() graph {
	return graph{nodes: maps.Clone(g.nodes), edges: maps.Clone(g.edges)}
}

// Store keeps all graphs in memory.
type Store struct {
	mu    sync.Mutex
	state graph
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{state: graph{
		nodes: map[nodeKey]store.Node{},
		edges: map[edgeKey]store.Edge{},
	}}
}

type tx struct {
	s       *Store
	working graph
	done    bool
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &tx{s: s, working: s.state.clone()}, nil
}

func (t *tx) UpsertNode(ctx context.Context, n store.NodeUpsert) error {
	if t.done {
		return errTxDone
	}
	key := nodeKey{n.GraphTag, n.ID}
	cur, ok := t.working.nodes[key]
	if !ok {
		cur = store.Node{ID: n.ID, Properties: map[string]any{}}
	}

	cur.Name = n.Name
	cur.Label = n.Label
	cur.GraphTag = n.GraphTag
	cur.Properties = store.MergeProperties(cur.Properties, n.Properties)
	cur.GraphLevel = store.Accumulate(cur.GraphLevel, n.GraphLevel)
	cur.Filename = store.Accumulate(cur.Filename, n.Filename)

	t.working.nodes[key] = cur
	return nil
}

func (t *tx) UpsertEdge(ctx context.Context, e store.EdgeUpsert) error {
	if t.done {
		return errTxDone
	}
	if _, ok := t.working.nodes[nodeKey{e.GraphTag, e.Subject}]; !ok {
		return store.ErrMissingEndpoint
	}
	if _, ok := t.working.nodes[nodeKey{e.GraphTag, e.Object}]; !ok {
		return store.ErrMissingEndpoint
	}

	key := edgeKey{e.GraphTag, e.Subject, e.Type, e.Object}
	cur, ok := t.working.edges[key]
	if !ok {
		cur = store.Edge{Subject: e.Subject, Type: e.Type, Object: e.Object}
	}
	cur.Label = e.Label
	cur.GraphTag = e.GraphTag
	cur.GraphLevel = store.Accumulate(cur.GraphLevel, e.GraphLevel)
	cur.Filename = store.Accumulate(cur.Filename, e.Filename)

	t.working.edges[key] = cur
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.s.state = t.working
	t.s.mu.Unlock()
	return nil
}

// Rollback discards the transaction. Calling it after Commit is a no-op.
func (t *tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.s.mu.Unlock()
	return nil
}

func (s *Store) DeleteTag(ctx context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.DeleteFunc(s.state.nodes, func(k nodeKey, _ store.Node) bool { return k.tag == tag })
	maps.DeleteFunc(s.state.edges, func(k edgeKey, _ store.Edge) bool { return k.tag == tag })
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.state.nodes)
	clear(s.state.edges)
	return nil
}

func (s *Store) GetNode(ctx context.Context, tag, id string) (*store.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.state.nodes[nodeKey{tag, id}]
	if !ok {
		return nil, store.ErrNotFound
	}
	n.Properties = maps.Clone(n.Properties)
	n.GraphLevel = slices.Clone(n.GraphLevel)
	n.Filename = slices.Clone(n.Filename)
	return &n, nil
}

func (s *Store) GetEdges(ctx context.Context, tag, subject string) ([]store.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []store.Edge{}
	for k, e := range s.state.edges {
		if k.tag != tag || k.subject != subject {
			continue
		}
		e.GraphLevel = slices.Clone(e.GraphLevel)
		e.Filename = slices.Clone(e.Filename)
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b store.Edge) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Object, b.Object))
	})
	return out, nil
}

// Counts reports the number of nodes and edges stored under tag.
func (s *Store) Counts(tag string) (nodes, edges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.state.nodes {
		if k.tag == tag {
			nodes++
		}
	}
	for k := range s.state.edges {
		if k.tag == tag {
			edges++
		}
	}
	return nodes, edges
}

func (s *Store) Close(ctx context.Context) error { return nil }
