package pgx

// $6 is the graph level and $7 the filename; an empty filename leaves the
// stored list as it is.
const upsertNodeSQL = `
INSERT INTO graph_nodes (graph_tag, id, name, label, properties, graph_level, filename)
VALUES (
    $1::text, $2::text, $3::text, $4::text, $5::jsonb,
    ARRAY[$6::text],
    CASE WHEN $7::text = '' THEN '{}'::text[] ELSE ARRAY[$7::text] END
)
ON CONFLICT (graph_tag, id) DO UPDATE
SET name        = EXCLUDED.name,
    label       = EXCLUDED.label,
    properties  = graph_nodes.properties || EXCLUDED.properties,
    graph_level = CASE WHEN $6::text = ANY(graph_nodes.graph_level)
                       THEN graph_nodes.graph_level
                       ELSE array_append(graph_nodes.graph_level, $6::text) END,
    filename    = CASE WHEN $7::text = '' OR $7::text = ANY(graph_nodes.filename)
                       THEN graph_nodes.filename
                       ELSE array_append(graph_nodes.filename, $7::text) END,
    updated_at  = now();
`

// The SELECT yields no row when an endpoint is missing, which leaves the
// transaction usable and reports zero affected rows.
const upsertEdgeSQL = `
INSERT INTO graph_edges (graph_tag, subject, type, object, label, graph_level, filename)
SELECT s.graph_tag, s.id, $3::text, o.id, $5::text,
       ARRAY[$6::text],
       CASE WHEN $7::text = '' THEN '{}'::text[] ELSE ARRAY[$7::text] END
FROM graph_nodes s
JOIN graph_nodes o ON o.graph_tag = s.graph_tag AND o.id = $4::text
WHERE s.graph_tag = $1::text AND s.id = $2::text
ON CONFLICT (graph_tag, subject, type, object) DO UPDATE
SET label       = EXCLUDED.label,
    graph_level = CASE WHEN $6::text = ANY(graph_edges.graph_level)
                       THEN graph_edges.graph_level
                       ELSE array_append(graph_edges.graph_level, $6::text) END,
    filename    = CASE WHEN $7::text = '' OR $7::text = ANY(graph_edges.filename)
                       THEN graph_edges.filename
                       ELSE array_append(graph_edges.filename, $7::text) END,
    updated_at  = now();
`

const deleteTagSQL = `
DELETE FROM graph_nodes WHERE graph_tag = $1;
`

const clearSQL = `
TRUNCATE graph_edges, graph_nodes;
`

const getNodeSQL = `
SELECT graph_tag, id, name, label, properties, graph_level, filename
FROM graph_nodes
WHERE graph_tag = $1 AND id = $2;
`

const getEdgesSQL = `
SELECT graph_tag, subject, type, object, label, graph_level, filename
FROM graph_edges
WHERE graph_tag = $1 AND subject = $2
ORDER BY type, object;
`
