// Package neo4j implements store.Store on a Neo4j database.
//
// The graph tag is used as the node label, so tags must be identifier safe.
// Edge types are the sanitized predicates produced by the merge model.
package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/lexgraph/pkg/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// reserved node keys are stored as top level properties next to the
// extracted attributes.
var reserved = map[string]bool{
	"id": true, "name": true, "label": true, "graph_tag": true, "graph_level": true, "filename": true,
}

// Config holds the connection parameters.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// GraphStore implements store.Store on Neo4j.
type GraphStore struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ store.Store = (*GraphStore)(nil)

// Open creates a driver and verifies connectivity.
func Open(ctx context.Context, cfg Config) (*GraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}
	return &GraphStore{driver: driver, database: cfg.Database}, nil
}

func (s *GraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *GraphStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func quote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

// accumulateClause renders the Cypher CASE that appends $param to list
// property prop of variable v unless it is already present.
func accumulateClause(v, prop, param string) string {
	return fmt.Sprintf(
		"%[1]s.%[2]s = CASE WHEN %[1]s.%[2]s IS NULL THEN [$%[3]s] WHEN $%[3]s IN %[1]s.%[2]s THEN %[1]s.%[2]s ELSE %[1]s.%[2]s + $%[3]s END",
		v, prop, param,
	)
}

// propertyValue converts a value into something Neo4j can store as a
// property. Nested structures are stored as JSON text.
func propertyValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int, int64, float64:
		return t
	case []string:
		return t
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

type graphTx struct {
	session neo4j.SessionWithContext
	tx      neo4j.ExplicitTransaction
	done    bool
}

func (s *GraphStore) Begin(ctx context.Context) (store.Tx, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		_ = session.Close(ctx)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &graphTx{session: session, tx: tx}, nil
}

func (t *graphTx) UpsertNode(ctx context.Context, n store.NodeUpsert) error {
	props := make(map[string]any, len(n.Properties))
	for k, v := range n.Properties {
		if reserved[k] {
			continue
		}
		props[k] = propertyValue(v)
	}

	sets := []string{
		"n += $props",
		"n.name = $name",
		"n.label = $label",
		"n.graph_tag = $graph_tag",
		accumulateClause("n", "graph_level", "graph_level"),
	}
	params := map[string]any{
		"id":          n.ID,
		"name":        n.Name,
		"label":       n.Label,
		"graph_tag":   n.GraphTag,
		"graph_level": n.GraphLevel,
		"props":       props,
	}
	if n.Filename != "" {
		sets = append(sets, accumulateClause("n", "filename", "filename"))
		params["filename"] = n.Filename
	}

	query := fmt.Sprintf("MERGE (n:%s {id: $id}) SET %s", quote(n.GraphTag), strings.Join(sets, ", "))
	res, err := t.tx.Run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("failed to upsert node %q: %w", n.ID, err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("failed to upsert node %q: %w", n.ID, err)
	}
	return nil
}

func (t *graphTx) UpsertEdge(ctx context.Context, e store.EdgeUpsert) error {
	sets := []string{
		"r.graph_tag = $graph_tag",
		"r.label = $label",
		accumulateClause("r", "graph_level", "graph_level"),
	}
	params := map[string]any{
		"subject":     e.Subject,
		"object":      e.Object,
		"graph_tag":   e.GraphTag,
		"label":       e.Label,
		"graph_level": e.GraphLevel,
	}
	if e.Filename != "" {
		sets = append(sets, accumulateClause("r", "filename", "filename"))
		params["filename"] = e.Filename
	}

	label := quote(e.GraphTag)
	query := fmt.Sprintf(
		"MATCH (a:%[1]s {id: $subject}), (b:%[1]s {id: $object}) MERGE (a)-[r:%[2]s]->(b) SET %[3]s RETURN count(r) AS n",
		label, quote(e.Type), strings.Join(sets, ", "),
	)

	res, err := t.tx.Run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("failed to upsert edge %q-%s->%q: %w", e.Subject, e.Type, e.Object, err)
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert edge %q-%s->%q: %w", e.Subject, e.Type, e.Object, err)
	}
	if count, _ := rec.Get("n"); count == int64(0) {
		return store.ErrMissingEndpoint
	}
	return nil
}

func (t *graphTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.session.Close(ctx)
	return t.tx.Commit(ctx)
}

func (t *graphTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.session.Close(ctx)
	return t.tx.Rollback(ctx)
}

func (s *GraphStore) write(ctx context.Context, query string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, s.driver, query, params,
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
	return err
}

func (s *GraphStore) DeleteTag(ctx context.Context, tag string) error {
	if err := s.write(ctx, fmt.Sprintf("MATCH (n:%s) DETACH DELETE n", quote(tag)), nil); err != nil {
		return fmt.Errorf("failed to delete graph %q: %w", tag, err)
	}
	return nil
}

func (s *GraphStore) Clear(ctx context.Context) error {
	if err := s.write(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		return fmt.Errorf("failed to clear graphs: %w", err)
	}
	return nil
}

func (s *GraphStore) GetNode(ctx context.Context, tag, id string) (*store.Node, error) {
	res, err := neo4j.ExecuteQuery(ctx, s.driver,
		fmt.Sprintf("MATCH (n:%s {id: $id}) RETURN n", quote(tag)),
		map[string]any{"id": id},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database), neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, store.ErrNotFound
	}

	node, _, err := neo4j.GetRecordValue[neo4j.Node](res.Records[0], "n")
	if err != nil {
		return nil, err
	}
	return nodeFromProps(node.Props), nil
}

func nodeFromProps(props map[string]any) *store.Node {
	n := &store.Node{
		ID:         stringProp(props, "id"),
		Name:       stringProp(props, "name"),
		Label:      stringProp(props, "label"),
		GraphTag:   stringProp(props, "graph_tag"),
		GraphLevel: stringsProp(props, "graph_level"),
		Filename:   stringsProp(props, "filename"),
		Properties: map[string]any{},
	}
	for k, v := range props {
		if !reserved[k] {
			n.Properties[k] = v
		}
	}
	return n
}

func (s *GraphStore) GetEdges(ctx context.Context, tag, subject string) ([]store.Edge, error) {
	res, err := neo4j.ExecuteQuery(ctx, s.driver,
		fmt.Sprintf(
			"MATCH (a:%[1]s {id: $subject})-[r]->(b:%[1]s) "+
				"RETURN type(r) AS type, b.id AS object, r.label AS label, r.graph_tag AS graph_tag, "+
				"r.graph_level AS graph_level, r.filename AS filename ORDER BY type, object",
			quote(tag),
		),
		map[string]any{"subject": subject},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database), neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, err
	}

	edges := make([]store.Edge, 0, len(res.Records))
	for _, rec := range res.Records {
		props := rec.AsMap()
		edges = append(edges, store.Edge{
			Subject:    subject,
			Type:       stringProp(props, "type"),
			Object:     stringProp(props, "object"),
			Label:      stringProp(props, "label"),
			GraphTag:   stringProp(props, "graph_tag"),
			GraphLevel: stringsProp(props, "graph_level"),
			Filename:   stringsProp(props, "filename"),
		})
	}
	return edges, nil
}

func stringProp(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func stringsProp(props map[string]any, key string) []string {
	out := []string{}
	list, ok := props[key].([]any)
	if !ok {
		return out
	}
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
