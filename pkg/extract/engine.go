package extract

import (
	"context"
)

// AlignmentStatus describes how well an extraction was located in the source
// text.
type AlignmentStatus string

const (
	MatchExact   AlignmentStatus = "match_exact"
	MatchGreater AlignmentStatus = "match_greater"
	MatchLesser  AlignmentStatus = "match_lesser"
	MatchFuzzy   AlignmentStatus = "match_fuzzy"
)

// CharInterval is a half-open rune range in the source text.
type CharInterval struct {
	StartPos *int `json:"start_pos"`
	EndPos   *int `json:"end_pos"`
}

// TokenInterval is a half-open token range in the source text.
type TokenInterval struct {
	StartIndex *int `json:"start_index"`
	EndIndex   *int `json:"end_index"`
}

// Extraction is one annotated span as an engine reports it. Engines are free
// to leave every field empty; Attributes is usually a map[string]any but may
// be anything the engine decoded.
type Extraction struct {
	ExtractionClass string
	ExtractionText  string
	Attributes      any
	CharInterval    *CharInterval
	TokenInterval   *TokenInterval
	AlignmentStatus *AlignmentStatus
	ExtractionIndex *int
	GroupIndex      *int
	Description     *string
}

// Document is the aggregate result of one engine call. When an engine fails
// to structure its output, Extractions is empty and Text carries a
// stringified AnnotatedDocument that Normalize recovers records from.
type Document struct {
	Text        string
	Extractions []*Extraction
}

// ExampleExtraction is one expected extraction of a few-shot example.
type ExampleExtraction struct {
	ExtractionClass string         `json:"extraction_class" yaml:"extraction_class"`
	ExtractionText  string         `json:"extraction_text" yaml:"extraction_text"`
	Attributes      map[string]any `json:"attributes" yaml:"attributes"`
}

// Example is a few-shot example handed to the engine.
type Example struct {
	Text        string              `json:"text" yaml:"text"`
	Extractions []ExampleExtraction `json:"extractions" yaml:"extractions"`
}

// Request bundles everything one engine call needs. Prompt already carries
// the output format instructions; ResultFormat is the bare format template.
type Request struct {
	Prompt       string
	ResultFormat string
	Examples     []Example
	Text         string
	Config       Config
}

// Engine is the completion-backed annotator the orchestrator drives. An
// implementation may fan the text out into parallel sub requests but must
// return one aggregate Document per call.
type Engine interface {
	Extract(ctx context.Context, req Request) (*Document, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, req Request) (*Document, error)

func (f EngineFunc) Extract(ctx context.Context, req Request) (*Document, error) {
	return f(ctx, req)
}
