package graph

import (
	"context"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
	"github.com/OFFIS-RIT/lexgraph/pkg/extract"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"
	"github.com/OFFIS-RIT/lexgraph/pkg/merge"
	"github.com/OFFIS-RIT/lexgraph/pkg/outline"
)

// OutlineParams describe a business outline merge. Filenames is an optional
// filename list; when set, every file is associated with a leaf business
// node by the model before merging.
type OutlineParams struct {
	GraphTag  string
	Outline   string
	Filenames string
	// Source is recorded as filename provenance.
	Source  string
	Options []outline.Option
}

// MergeOutline parses an outline and merges it as a DomainLevel graph.
func (g *GraphClient) MergeOutline(ctx context.Context, p OutlineParams) (*merge.Result, error) {
	parsed := outline.Parse(p.Outline, p.Options...)

	if p.Filenames != "" {
		linked, err := g.LinkFiles(ctx, p.Outline, parsed, outline.ParseFilenames(p.Filenames))
		if err != nil {
			return nil, err
		}
		parsed = linked
	}

	return g.MergeGraph(ctx, merge.MergeParams{
		GraphTag:   p.GraphTag,
		Graph:      parsed,
		Filename:   p.Source,
		GraphLevel: common.DomainLevel,
	})
}

// LinkFiles asks the model which leaf business node each file belongs to
// and returns the outline combined with the file entities and the reversed
// 相关文件 relations.
func (g *GraphClient) LinkFiles(ctx context.Context, outlineText string, parsed, files common.Graph) (common.Graph, error) {
	extractor, err := g.extractor(nil)
	if err != nil {
		return common.Graph{}, err
	}

	leaves := outline.LeafNames(parsed)
	names := files.EntityIDs()
	examples := []extract.Example{
		extract.RelationExample(outline.AssociationExampleText, outline.AssociationExampleLinks),
	}

	links, err := extractor.ExtractRelations(ctx, outline.AssociationPrompt, examples,
		outline.AssociationInput(outlineText, leaves, names))
	if err != nil {
		return common.Graph{}, err
	}

	logger.Info("[Graph] Files linked to outline", "files", len(names), "leaves", len(leaves), "links", len(links))
	return outline.LinkFiles(parsed, files, links), nil
}
