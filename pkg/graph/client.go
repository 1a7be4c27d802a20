// Package graph runs the document to knowledge graph pipeline: it loads
// files, extracts their graphs and merges the results into a tagged graph
// store while holding the tag's lease.
package graph

import (
	"errors"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/extract"
	"github.com/OFFIS-RIT/lexgraph/pkg/leaselock"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"
)

// GraphClient is the main client for building graphs from documents.
// It owns the extraction engine, the merge model and the lock that
// serializes merges per graph tag.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	engine        extract.Engine
	retry         extract.ExtractorParams
	model         *merge.Model
	locker        leaselock.Locker
	parallelFiles int
	leaseTTL      time.Duration
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// Engine may be nil when only pre-built graphs are merged. Retry sets the
// retry policy of every extraction; its Config is replaced by the task's.
// Locker defaults to an in-process lock, which is enough for a single
// process; workers sharing a database should pass a leaselock.Client.
// ParallelFiles controls how many files are extracted concurrently.
type NewGraphClientParams struct {
	Engine        extract.Engine
	Retry         extract.ExtractorParams
	Model         *merge.Model
	Locker        leaselock.Locker
	ParallelFiles int
	LeaseTTL      time.Duration
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		Engine:        annotate.New(annotate.EngineParams{Client: aiClient}),
//		Model:         merge.New(store),
//		Locker:        leaselock.New(pool),
//		ParallelFiles: 2,
//	})
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if params.Model == nil {
		return nil, errors.New("graph client needs a merge model")
	}
	g := &GraphClient{
		engine:        params.Engine,
		retry:         params.Retry,
		model:         params.Model,
		locker:        params.Locker,
		parallelFiles: params.ParallelFiles,
		leaseTTL:      params.LeaseTTL,
	}
	if g.locker == nil {
		g.locker = leaselock.NewLocal()
	}
	if g.parallelFiles <= 0 {
		g.parallelFiles = 1
	}
	if g.leaseTTL <= 0 {
		g.leaseTTL = 10 * time.Minute
	}
	return g, nil
}

var ErrNoEngine = errors.New("graph client has no extraction engine")

// extractor returns an orchestrator running with cfg, or with
// extract.GraphConfig when cfg is nil.
func (g *GraphClient) extractor(cfg *extract.Config) (*extract.Extractor, error) {
	if g.engine == nil {
		return nil, ErrNoEngine
	}
	params := g.retry
	params.Config = cfg
	return extract.NewExtractor(g.engine, params), nil
}
