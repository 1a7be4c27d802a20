package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/graph"
	"github.com/OFFIS-RIT/lexgraph/pkg/loader"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"
	"github.com/OFFIS-RIT/lexgraph/pkg/task"
)

// TaskSource resolves task names of extract jobs.
type TaskSource interface {
	Get(name string) (*task.Task, error)
}

// FolderRemover deletes uploaded objects below a prefix.
type FolderRemover interface {
	DeleteFolder(ctx context.Context, prefix string) error
}

// Handler processes job messages.
type Handler struct {
	Graph *graph.GraphClient
	Tasks TaskSource
	// Files loads uploaded documents by object key.
	Files loader.GraphFileLoader
	// Uploads may be nil; delete jobs then leave uploads in place.
	Uploads FolderRemover
}

// Permanent reports whether retrying a failed job cannot help. A joined
// error is permanent only when every joined error is.
func Permanent(err error) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		for _, e := range errs {
			if !Permanent(e) {
				return false
			}
		}
		return len(errs) > 0
	}
	return errors.Is(err, ErrInvalidMessage) ||
		errors.Is(err, task.ErrInvalidTask) ||
		errors.Is(err, task.ErrTaskNotFound) ||
		errors.Is(err, merge.ErrInvalidTag) ||
		errors.Is(err, loader.ErrUnsupportedFormat)
}

// Handle dispatches body to the job of queueName.
func (h *Handler) Handle(ctx context.Context, queueName string, body []byte) error {
	switch queueName {
	case ExtractQueue:
		return h.ProcessExtractMessage(ctx, body)
	case DeleteQueue:
		return h.ProcessDeleteMessage(ctx, body)
	}
	return fmt.Errorf("%w: unknown queue %q", ErrInvalidMessage, queueName)
}

func (h *Handler) ProcessExtractMessage(ctx context.Context, body []byte) error {
	msg, err := decodeExtract(body)
	if err != nil {
		return err
	}
	log := logger.With("correlation_id", msg.CorrelationID, "graph_tag", msg.GraphTag, "task", msg.Task)

	t, err := h.Tasks.Get(msg.Task)
	if err != nil {
		return err
	}

	files := make([]loader.GraphFile, 0, len(msg.Files))
	for _, f := range msg.Files {
		files = append(files, loader.GraphFile{ID: f.ID, FilePath: f.Key, Loader: h.Files})
	}

	start := time.Now()
	summary, err := h.Graph.ProcessFiles(ctx, msg.GraphTag, t, files)
	if err != nil {
		if summary != nil && summary.Files > 0 {
			log.Warn("[Queue] Extraction partially completed",
				"files", summary.Files, "failed", summary.Failed)
		}
		return err
	}

	log.Info("[Queue] Extraction completed",
		"files", summary.Files, "nodes", summary.Nodes, "edges", summary.Edges,
		"skipped_edges", summary.SkippedEdges, "duration_sec", time.Since(start).Seconds())
	return nil
}

func (h *Handler) ProcessDeleteMessage(ctx context.Context, body []byte) error {
	msg, err := decodeDelete(body)
	if err != nil {
		return err
	}
	log := logger.With("correlation_id", msg.CorrelationID, "graph_tag", msg.GraphTag)

	if err := h.Graph.DeleteGraph(ctx, msg.GraphTag); err != nil {
		return err
	}

	if h.Uploads != nil && msg.Prefix != "" {
		if err := h.Uploads.DeleteFolder(ctx, msg.Prefix); err != nil {
			log.Warn("[Queue] Failed to delete uploads", "prefix", msg.Prefix, "err", err)
		}
	}

	log.Info("[Queue] Graph deleted")
	return nil
}
