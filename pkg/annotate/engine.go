// Package annotate implements extract.Engine on top of an ai.GraphAIClient.
//
// Text is split into sentence aligned chunks, every chunk is annotated by one
// completion request and the returned extractions are aligned back onto the
// source text.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/ai"
	"github.com/OFFIS-RIT/lexgraph/pkg/extract"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultEncoding is the tiktoken encoding used for token intervals.
const DefaultEncoding = "o200k_base"

// Engine annotates documents with a completion model.
type Engine struct {
	client    ai.GraphAIClient
	newClient ClientFactory
	limiter   *rate.Limiter
	enc       *tiktoken.Tiktoken

	mu      sync.Mutex
	clients map[endpoint]ai.GraphAIClient
}

// ClientFactory creates a client for a request whose config names its own
// endpoint or key.
type ClientFactory func(apiURL, apiKey string) (ai.GraphAIClient, error)

type endpoint struct{ url, key string }

// EngineParams configures an Engine. RequestsPerMinute of 0 disables request
// pacing. An empty Encoding disables token intervals. Without NewClient the
// APIURL and APIKey of a request config are ignored.
type EngineParams struct {
	Client            ai.GraphAIClient
	NewClient         ClientFactory
	RequestsPerMinute int
	Encoding          string
}

// New creates an Engine. A tokenizer that fails to load only disables token
// intervals.
func New(params EngineParams) *Engine {
	e := &Engine{
		client:    params.Client,
		newClient: params.NewClient,
		clients:   map[endpoint]ai.GraphAIClient{},
	}

	if params.RequestsPerMinute > 0 {
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(params.RequestsPerMinute)), 1)
	}

	if params.Encoding != "" {
		enc, err := tiktoken.GetEncoding(params.Encoding)
		if err != nil {
			logger.Warn("[Annotate] tokenizer unavailable, token intervals disabled",
				"encoding", params.Encoding, "err", err)
		} else {
			e.enc = enc
		}
	}
	return e
}

var _ extract.Engine = (*Engine)(nil)

// clientFor returns the client serving cfg. Clients created for a config
// endpoint are reused.
func (e *Engine) clientFor(cfg extract.Config) (ai.GraphAIClient, error) {
	if e.newClient == nil || (cfg.APIURL == "" && cfg.APIKey == "") {
		if e.client == nil {
			return nil, errors.New("no completion client configured")
		}
		return e.client, nil
	}

	key := endpoint{url: cfg.APIURL, key: cfg.APIKey}
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.clients[key]; ok {
		return c, nil
	}
	c, err := e.newClient(cfg.APIURL, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}
	e.clients[key] = c
	return c, nil
}

// Extract annotates req.Text and returns one aggregate document.
func (e *Engine) Extract(ctx context.Context, req extract.Request) (*extract.Document, error) {
	cfg := req.Config
	batchLength := max(cfg.BatchLength, 1)
	maxWorkers := max(cfg.MaxWorkers, 1)
	passes := max(cfg.ExtractionPasses, 1)

	chunks := chunkText(req.Text, cfg.MaxCharBuffer)
	if e.enc != nil {
		for _, c := range chunks {
			logger.Debug("[Annotate] chunk", "index", c.index,
				"runes", len([]rune(c.text)), "tokens", len(e.enc.Encode(c.text, nil, nil)))
		}
	}

	al := newAligner(req.Text, e.enc)
	results := make([][]*extract.Extraction, len(chunks))

	for pass := range passes {
		for from := 0; from < len(chunks); from += batchLength {
			batch := chunks[from:min(from+batchLength, len(chunks))]

			found := make([][]*extract.Extraction, len(batch))
			g, gCtx := errgroup.WithContext(ctx)
			g.SetLimit(maxWorkers)
			for i, c := range batch {
				g.Go(func() error {
					out, err := e.annotateChunk(gCtx, req, c)
					if err != nil {
						return fmt.Errorf("chunk %d: %w", c.index, err)
					}
					for _, x := range out {
						al.align(c, x)
					}
					found[i] = out
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}

			for i, c := range batch {
				if pass == 0 {
					results[c.index] = found[i]
				} else {
					results[c.index] = mergePass(results[c.index], found[i])
				}
			}
		}
	}

	doc := &extract.Document{Text: req.Text}
	for ci, xs := range results {
		for i, x := range xs {
			group := ci
			ordinal := i + 1
			x.GroupIndex = &group
			x.ExtractionIndex = &ordinal
			doc.Extractions = append(doc.Extractions, x)
		}
	}

	logger.Debug("[Annotate] document annotated",
		"chunks", len(chunks), "passes", passes, "extractions", len(doc.Extractions))
	return doc, nil
}

func (e *Engine) annotateChunk(ctx context.Context, req extract.Request, c chunk) ([]*extract.Extraction, error) {
	client, err := e.clientFor(req.Config)
	if err != nil {
		return nil, err
	}
	prompt, err := renderPrompt(req, c.text)
	if err != nil {
		return nil, err
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	cfg := req.Config
	opts := []ai.GenerateOption{ai.WithTemperature(cfg.Temperature)}
	if cfg.ModelID != "" {
		opts = append(opts, ai.WithModel(cfg.ModelID))
	}

	if cfg.UseSchemaConstraints {
		var payload schemaPayload
		if err := client.GenerateCompletionWithFormat(
			ctx,
			"extractions",
			"Extractions found in the input text",
			prompt,
			&payload,
			opts...,
		); err != nil {
			return nil, err
		}
		if cfg.Debug {
			logger.Debug("[Annotate] structured output", "chunk", c.index, "extractions", len(payload.Extractions))
		}
		return payload.extractions(), nil
	}

	raw, err := client.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		logger.Debug("[Annotate] raw output", "chunk", c.index, "output", raw)
	}
	return resolveDynamic(raw, attributeSuffix(cfg))
}
