package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/extract"
	"github.com/OFFIS-RIT/lexgraph/pkg/leaselock"
	"github.com/OFFIS-RIT/lexgraph/pkg/loader"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"
	"github.com/OFFIS-RIT/lexgraph/pkg/task"

	"golang.org/x/sync/errgroup"
)

// Summary adds up the merge results of several files. Failed lists the
// files that could not be extracted or merged.
type Summary struct {
	Files int `json:"files"`
	merge.Result
	Failed []string `json:"failed,omitempty"`
}

func (s *Summary) add(r *merge.Result) {
	s.Files++
	s.Nodes += r.Nodes
	s.Edges += r.Edges
	s.SkippedNodes += r.SkippedNodes
	s.SkippedEdges += r.SkippedEdges
}

// MergeGraph merges p while holding the lease of p.GraphTag.
func (g *GraphClient) MergeGraph(ctx context.Context, p merge.MergeParams) (*merge.Result, error) {
	if err := merge.ValidateTag(p.GraphTag); err != nil {
		return nil, err
	}

	var res *merge.Result
	err := g.locker.WithLease(ctx, p.GraphTag, leaselock.GraphOptions("merge", g.leaseTTL), func(ctx context.Context) error {
		var err error
		res, err = g.model.Merge(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ProcessFiles extracts a graph from every file with the prompt, schema and
// examples of t and merges each one as a DocumentLevel graph with the file
// name as provenance. Files are committed one by one and fail independently:
// a failing file is listed in Summary.Failed, the others are still merged,
// and the per-file errors are returned joined.
func (g *GraphClient) ProcessFiles(
	ctx context.Context,
	tag string,
	t *task.Task,
	files []loader.GraphFile,
) (*Summary, error) {
	extractor, err := g.extractor(&t.Config)
	if err != nil {
		return nil, err
	}
	if err := merge.ValidateTag(tag); err != nil {
		return nil, err
	}

	logger.Info("[Graph] Processing", "total_files", len(files), "graph_tag", tag, "task", t.Name)

	var eg errgroup.Group
	eg.SetLimit(g.parallelFiles)
	mu := sync.Mutex{}
	summary := &Summary{}
	var errs []error

	for _, file := range files {
		eg.Go(func() error {
			res, err := g.processFile(ctx, extractor, tag, t, file)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("[Graph] File failed", "graph_tag", tag, "file", file.Name(), "err", err)
				summary.Failed = append(summary.Failed, file.Name())
				errs = append(errs, fmt.Errorf("failed to process %s: %w", file.Name(), err))
				return nil
			}
			summary.add(res)
			return nil
		})
	}
	_ = eg.Wait()

	if len(errs) > 0 {
		slices.Sort(summary.Failed)
		err := errors.Join(errs...)
		logger.Error("[Graph] Processing failed", "graph_tag", tag, "merged_files", summary.Files,
			"failed_files", len(summary.Failed), "err", err)
		return summary, err
	}

	logger.Info("[Graph] Files processed", "graph_tag", tag, "files", summary.Files,
		"nodes", summary.Nodes, "edges", summary.Edges)
	return summary, nil
}

func (g *GraphClient) processFile(
	ctx context.Context,
	extractor *extract.Extractor,
	tag string,
	t *task.Task,
	file loader.GraphFile,
) (*merge.Result, error) {
	if err := loader.CheckFormat(file.FilePath); err != nil {
		return nil, err
	}
	text, err := file.GetText(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load file: %w", err)
	}

	extracted, err := extractor.ExtractGraph(ctx, t.Prompt, t.Schema, t.Examples, text)
	if err != nil {
		return nil, err
	}

	return g.MergeGraph(ctx, merge.MergeParams{
		GraphTag:   tag,
		Graph:      *extracted,
		Filename:   file.Name(),
		GraphLevel: common.DocumentLevel,
	})
}

// DeleteGraph removes every node and edge of tag once running merges into
// it have finished.
func (g *GraphClient) DeleteGraph(ctx context.Context, tag string) error {
	if err := merge.ValidateTag(tag); err != nil {
		return err
	}
	logger.Info("[Graph] Deleting graph", "graph_tag", tag)
	return g.locker.WithLease(ctx, tag, leaselock.GraphOptions("delete", g.leaseTTL), func(ctx context.Context) error {
		return g.model.DeleteTag(ctx, tag)
	})
}

// ClearAll removes every graph of the store.
func (g *GraphClient) ClearAll(ctx context.Context) error {
	return g.model.Clear(ctx)
}
