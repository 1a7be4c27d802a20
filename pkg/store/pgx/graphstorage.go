// Package pgx implements store.Store on PostgreSQL.
//
// Nodes and edges live in graph_nodes and graph_edges keyed by graph tag.
// Accumulating provenance lists is done inside the upsert statements, so
// concurrent writers serialize on the conflicting row.
package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements store.Store on a pgx connection or pool.
type GraphDBStorage struct {
	conn pgxIConn
	pool *pgxpool.Pool
}

var _ store.Store = (*GraphDBStorage)(nil)

// NewGraphDBStorageWithConnection wraps an existing connection. Close does
// not close conn.
func NewGraphDBStorageWithConnection(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}

// Open connects a pool to url. The returned storage owns the pool.
func Open(ctx context.Context, url string) (*GraphDBStorage, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &GraphDBStorage{conn: pool, pool: pool}, nil
}

// Pool returns the owned pool, or nil for a wrapped connection.
func (s *GraphDBStorage) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *GraphDBStorage) Close(ctx context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

type graphTx struct {
	tx pgxv5.Tx
}

func (s *GraphDBStorage) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &graphTx{tx: tx}, nil
}

func (t *graphTx) UpsertNode(ctx context.Context, n store.NodeUpsert) error {
	props := n.Properties
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(util.SanitizePostgresValue(props))
	if err != nil {
		return fmt.Errorf("failed to encode properties of %q: %w", n.ID, err)
	}

	if _, err := t.tx.Exec(ctx, upsertNodeSQL,
		n.GraphTag,
		util.SanitizePostgresText(n.ID),
		util.SanitizePostgresText(n.Name),
		util.SanitizePostgresText(n.Label),
		raw,
		n.GraphLevel,
		util.SanitizePostgresText(n.Filename),
	); err != nil {
		return fmt.Errorf("failed to upsert node %q: %w", n.ID, err)
	}
	return nil
}

func (t *graphTx) UpsertEdge(ctx context.Context, e store.EdgeUpsert) error {
	tag, err := t.tx.Exec(ctx, upsertEdgeSQL,
		e.GraphTag,
		util.SanitizePostgresText(e.Subject),
		util.SanitizePostgresText(e.Type),
		util.SanitizePostgresText(e.Object),
		util.SanitizePostgresText(e.Label),
		e.GraphLevel,
		util.SanitizePostgresText(e.Filename),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert edge %q-%s->%q: %w", e.Subject, e.Type, e.Object, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrMissingEndpoint
	}
	return nil
}

func (t *graphTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is safe to call after Commit.
func (t *graphTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgxv5.ErrTxClosed) {
		return nil
	}
	return err
}

func (s *GraphDBStorage) DeleteTag(ctx context.Context, tag string) error {
	if _, err := s.conn.Exec(ctx, deleteTagSQL, tag); err != nil {
		return fmt.Errorf("failed to delete graph %q: %w", tag, err)
	}
	return nil
}

func (s *GraphDBStorage) Clear(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, clearSQL); err != nil {
		return fmt.Errorf("failed to clear graphs: %w", err)
	}
	return nil
}

func (s *GraphDBStorage) GetNode(ctx context.Context, tag, id string) (*store.Node, error) {
	var (
		n   store.Node
		raw []byte
	)
	err := s.conn.QueryRow(ctx, getNodeSQL, tag, id).Scan(
		&n.GraphTag, &n.ID, &n.Name, &n.Label, &raw, &n.GraphLevel, &n.Filename,
	)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &n.Properties); err != nil {
		return nil, fmt.Errorf("failed to decode properties of %q: %w", id, err)
	}
	return &n, nil
}

func (s *GraphDBStorage) GetEdges(ctx context.Context, tag, subject string) ([]store.Edge, error) {
	rows, err := s.conn.Query(ctx, getEdgesSQL, tag, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := []store.Edge{}
	for rows.Next() {
		var e store.Edge
		if err := rows.Scan(&e.GraphTag, &e.Subject, &e.Type, &e.Object, &e.Label, &e.GraphLevel, &e.Filename); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
