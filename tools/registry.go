package tools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// Resources holds the external handles tools are constructed around. It is
// built once per session by the entry point; a nil handle means the
// corresponding tool is left out of the registry.
type Resources struct {
	Corpus        CorpusIndex
	RetrievalTopK int
	DB            *sql.DB
	ImageModel    ImageModelClient
	ImageOptions  ImageOptions
	Annotations   AnnotationStore
}

// NewRegistry creates a new tool registry for the given resources. Tool
// descriptions are enriched at construction time with what each resource
// actually contains (corpus sources, database tables) so an orchestrator can
// plan calls without probing first.
func NewRegistry(ctx context.Context, res Resources) (*Registry, error) {
	tools := map[string]Tool{}

	if res.Corpus != nil {
		sources, err := res.Corpus.Sources(ctx)
		if err != nil {
			return nil, fmt.Errorf("list corpus sources: %w", err)
		}
		tools["corpus_search"] = NewCorpusSearch(res.Corpus, res.RetrievalTopK, sources)
	}

	if res.DB != nil {
		tables, err := DescribeTables(ctx, res.DB)
		if err != nil {
			return nil, fmt.Errorf("describe database tables: %w", err)
		}
		tools["sql_query"] = NewSQLQuery(res.DB, tables)
	}

	if res.ImageModel != nil {
		tools["image_generate"] = NewImageGenerate(res.ImageModel, res.ImageOptions)
	}

	if res.Annotations != nil {
		tools["annotation_put"] = NewAnnotationPut(res.Annotations)
	}

	if len(tools) == 0 {
		return nil, errors.New("no resources configured, registry would be empty")
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry as a slice
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
