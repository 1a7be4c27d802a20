// Package extract drives the two-phase, schema constrained extraction of a
// knowledge graph from text. Nodes are extracted first; their names become
// the closed endpoint list of the edge phase.
package extract

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OFFIS-RIT/lexgraph/internal/util"
	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
)

const (
	DefaultMaxRetries     = 3
	DefaultBaseDelay      = 30 * time.Second
	DefaultRateLimitDelay = 5 * time.Second
)

// Extractor runs extraction phases against an Engine. It holds no state
// between calls and may be shared.
type Extractor struct {
	engine         Engine
	config         Config
	maxRetries     int
	baseDelay      time.Duration
	rateLimitDelay time.Duration
	sleep          util.Sleeper
}

// ExtractorParams configures NewExtractor. Zero values select the defaults:
// GraphConfig, three attempts, a 30s base delay doubling per attempt and an
// extra 5s per attempt when the engine is rate limited. Sleep replaces the
// timer based wait, which tests use to observe the backoff.
type ExtractorParams struct {
	Config         *Config
	MaxRetries     int
	BaseDelay      time.Duration
	RateLimitDelay time.Duration
	Sleep          util.Sleeper
}

func NewExtractor(engine Engine, params ExtractorParams) *Extractor {
	cfg := GraphConfig()
	if params.Config != nil {
		cfg = *params.Config
	}
	e := &Extractor{
		engine:         engine,
		config:         cfg.withDefaults(),
		maxRetries:     params.MaxRetries,
		baseDelay:      params.BaseDelay,
		rateLimitDelay: params.RateLimitDelay,
		sleep:          params.Sleep,
	}
	if e.maxRetries <= 0 {
		e.maxRetries = DefaultMaxRetries
	}
	if e.baseDelay <= 0 {
		e.baseDelay = DefaultBaseDelay
	}
	if e.rateLimitDelay <= 0 {
		e.rateLimitDelay = DefaultRateLimitDelay
	}
	if e.sleep == nil {
		e.sleep = util.SleepContext
	}
	return e
}

// Config returns the engine configuration used for every call.
func (e *Extractor) Config() Config {
	return e.config
}

// IsRateLimited reports whether err looks like a rate limit response.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "rate limit")
}

// Run performs one engine call with retries and returns the normalized
// records. Whitespace-only text returns no records without calling the
// engine. When every attempt fails the result is a *RetryError wrapping the
// last engine error.
func (e *Extractor) Run(
	ctx context.Context,
	prompt string,
	resultFormat string,
	examples []Example,
	text string,
) ([]Record, error) {
	if strings.TrimSpace(text) == "" {
		logger.Warn("[Extract] input text is empty, skipping engine call")
		return []Record{}, nil
	}

	req := Request{
		Prompt:       WithFormat(prompt, resultFormat),
		ResultFormat: resultFormat,
		Examples:     prepareExamples(examples),
		Text:         text,
		Config:       e.config,
	}

	backoff := util.Backoff{
		MaxTries:  e.maxRetries,
		BaseDelay: e.baseDelay,
		Sleep:     e.sleep,
		Extra: func(err error, attempt int) time.Duration {
			if IsRateLimited(err) {
				return e.rateLimitDelay * time.Duration(attempt+1)
			}
			return 0
		},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warn("[Extract] attempt failed, backing off",
				"attempt", attempt+1, "max", e.maxRetries, "delay", delay,
				"rate_limited", IsRateLimited(err), "err", err)
		},
	}

	doc, attempts, err := util.RetryWithBackoff(ctx, backoff, func(ctx context.Context, attempt int) (*Document, error) {
		logger.Debug("[Extract] calling engine", "attempt", attempt+1, "max", e.maxRetries)
		return e.engine.Extract(ctx, req)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.Error("[Extract] all attempts failed", "attempts", attempts, "err", err)
		return nil, &RetryError{Attempts: attempts, Err: err}
	}

	logger.Debug("[Extract] engine call succeeded", "attempt", attempts)
	return Normalize(doc), nil
}

// ExtractNodes runs the node phase and projects the result onto entities.
func (e *Extractor) ExtractNodes(
	ctx context.Context,
	prompt string,
	schema Schema,
	examples []Example,
	text string,
) ([]common.Entity, error) {
	if err := validatePhase(prompt, len(schema.Nodes), "node"); err != nil {
		logger.Error("[Extract] invalid node phase input", "err", err)
		return nil, err
	}
	records, err := e.Run(ctx, NodePrompt(prompt, schema), NodeFormat, examples, text)
	if err != nil {
		return nil, err
	}
	return Nodes(records), nil
}

// ExtractEdges runs the edge phase with the given node names as the closed
// list of endpoints and projects the result onto relations.
func (e *Extractor) ExtractEdges(
	ctx context.Context,
	prompt string,
	nodeNames []string,
	schema Schema,
	examples []Example,
	text string,
) ([]common.Relation, error) {
	if err := validatePhase(prompt, len(schema.Edges), "edge"); err != nil {
		logger.Error("[Extract] invalid edge phase input", "err", err)
		return nil, err
	}
	records, err := e.Run(ctx, EdgePrompt(prompt, nodeNames, schema), EdgeFormat, examples, text)
	if err != nil {
		return nil, err
	}
	return Edges(records), nil
}

// ExtractRelations runs a single edge-only call with a complete prompt, for
// tasks whose prompt already states the relation schema.
func (e *Extractor) ExtractRelations(
	ctx context.Context,
	prompt string,
	examples []Example,
	text string,
) ([]common.Relation, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, invalidInput("prompt is empty")
	}
	records, err := e.Run(ctx, prompt, EdgeFormat, examples, text)
	if err != nil {
		return nil, err
	}
	return Edges(records), nil
}

// ExtractGraph extracts entities, then the relations between them. Empty
// text yields an empty graph without calling the engine.
func (e *Extractor) ExtractGraph(
	ctx context.Context,
	prompt string,
	schema Schema,
	examples []GraphExample,
	text string,
) (*common.Graph, error) {
	if err := validateGraphInput(prompt, schema); err != nil {
		logger.Error("[Extract] invalid graph input", "err", err)
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		logger.Warn("[Extract] input text is empty")
		return &common.Graph{Entities: []common.Entity{}, Relations: []common.Relation{}}, nil
	}

	nodeExamples, edgeExamples := SplitExamples(examples)

	entities, err := e.ExtractNodes(ctx, prompt, schema, nodeExamples, text)
	if err != nil {
		return nil, err
	}
	logger.Info("[Extract] node phase done", "entities", len(entities))

	names := make([]string, 0, len(entities))
	for _, ent := range entities {
		names = append(names, ent.Name)
	}

	relations, err := e.ExtractEdges(ctx, prompt, names, schema, edgeExamples, text)
	if err != nil {
		return nil, err
	}
	logger.Info("[Extract] edge phase done", "relations", len(relations))

	return &common.Graph{Entities: entities, Relations: relations}, nil
}

func validatePhase(prompt string, types int, phase string) error {
	if strings.TrimSpace(prompt) == "" {
		return invalidInput("prompt is empty")
	}
	if types == 0 {
		return invalidInput("schema declares no %s types", phase)
	}
	return nil
}

func validateGraphInput(prompt string, schema Schema) error {
	if err := validatePhase(prompt, len(schema.Nodes), "node"); err != nil {
		return err
	}
	if err := validatePhase(prompt, len(schema.Edges), "edge"); err != nil {
		return err
	}
	for i, n := range schema.Nodes {
		if strings.TrimSpace(n.Entity) == "" {
			return invalidInput("node type %d has no entity name", i)
		}
	}
	for i, ed := range schema.Edges {
		if strings.TrimSpace(ed.Relation) == "" && strings.TrimSpace(ed.Predicate) == "" {
			return invalidInput("edge type %d has neither relation nor predicate", i)
		}
	}
	return nil
}
