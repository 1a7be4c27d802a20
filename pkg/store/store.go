// Package store defines the persistence boundary of the knowledge graph.
//
// Every node and edge is scoped to a graph tag. Re-merging an item rewrites
// its descriptive fields while its graph_level and filename lists only ever
// grow (see Accumulate).
package store

import (
	"context"
	"errors"
)

var (
	// ErrMissingEndpoint is returned by Tx.UpsertEdge when the subject or the
	// object node does not exist under the graph tag.
	ErrMissingEndpoint = errors.New("edge endpoint does not exist")
	ErrNotFound        = errors.New("not found")
)

// Node is a persisted graph node.
type Node struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Label      string         `json:"label"`
	GraphTag   string         `json:"graph_tag"`
	Properties map[string]any `json:"properties"`
	GraphLevel []string       `json:"graph_level"`
	Filename   []string       `json:"filename"`
}

// Edge is a persisted directed relation. Type is the sanitized predicate.
type Edge struct {
	Subject    string   `json:"subject"`
	Type       string   `json:"type"`
	Object     string   `json:"object"`
	Label      string   `json:"label"`
	GraphTag   string   `json:"graph_tag"`
	GraphLevel []string `json:"graph_level"`
	Filename   []string `json:"filename"`
}

// NodeUpsert describes one node write. An empty Filename leaves the stored
// filename list untouched.
type NodeUpsert struct {
	GraphTag   string
	ID         string
	Name       string
	Label      string
	Properties map[string]any
	GraphLevel string
	Filename   string
}

// EdgeUpsert describes one edge write. An empty Filename leaves the stored
// filename list untouched.
type EdgeUpsert struct {
	GraphTag   string
	Subject    string
	Type       string
	Object     string
	Label      string
	GraphLevel string
	Filename   string
}

// Tx is a write transaction. Callers must finish it with Commit or Rollback.
type Tx interface {
	UpsertNode(ctx context.Context, n NodeUpsert) error
	UpsertEdge(ctx context.Context, e EdgeUpsert) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is an explicitly constructed handle to a graph backend.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	// DeleteTag removes every node and edge of the graph tag.
	DeleteTag(ctx context.Context, tag string) error
	// Clear removes every node and edge of every tag.
	Clear(ctx context.Context) error

	GetNode(ctx context.Context, tag, id string) (*Node, error)
	// GetEdges returns the outgoing edges of subject ordered by type and object.
	GetEdges(ctx context.Context, tag, subject string) ([]Edge, error)

	Close(ctx context.Context) error
}
