package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"agenttools/vecstore"
)

const (
	// DefaultTopK bounds how many passages a single search returns.
	DefaultTopK = 3

	// NoResultsMessage is returned verbatim when a search matches nothing, so
	// an orchestrator can relax its query instead of treating the outcome as
	// a failure.
	NoResultsMessage = "No documents found. Try a broader query or remove the source filter."
)

// CorpusIndex is the slice of the vector store corpus_search depends on.
type CorpusIndex interface {
	Search(ctx context.Context, query string, topK int, sources []string) ([]vecstore.Match, error)
	Sources(ctx context.Context) ([]string, error)
}

type CorpusSearch struct {
	index   CorpusIndex
	topK    int
	sources []string
}

func NewCorpusSearch(index CorpusIndex, topK int, sources []string) *CorpusSearch {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &CorpusSearch{index: index, topK: topK, sources: sources}
}

func (t *CorpusSearch) Name() string  { return "corpus_search" }
func (t *CorpusSearch) Title() string { return "Search Corpus" }
func (t *CorpusSearch) Description() string {
	desc := "Runs a semantic similarity search over the document corpus and returns the most relevant passages as separated document blocks. Affirmative phrasing works better than a question."
	if len(t.sources) > 0 {
		desc += " Available sources: " + strings.Join(t.sources, ", ") + "."
	}
	return desc
}

func (t *CorpusSearch) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "The topic to search the corpus for.",
			},
			"sources": {
				Types:       []string{"string", "array"},
				Items:       &jsonschema.Schema{Type: "string"},
				Description: "Restrict the search to one or more named sources. A bare string is treated as a one-element list.",
			},
		},
		Required:             []string{"query"},
		AdditionalProperties: noExtraFields(),
	}
}

func (t *CorpusSearch) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"result": {Type: "string"},
		},
		Required: []string{"result"},
	}
}

func (t *CorpusSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	query, ok := input["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must be a non-empty string")
	}

	sources, err := stringList(input["sources"])
	if err != nil {
		return nil, fmt.Errorf("sources filter: %w", err)
	}

	matches, err := t.index.Search(ctx, query, t.topK, sources)
	if err != nil {
		return nil, fmt.Errorf("search corpus: %w", err)
	}

	if len(matches) == 0 {
		return map[string]any{"result": NoResultsMessage}, nil
	}

	var sb strings.Builder
	sb.WriteString("Retrieved documents:")
	for i, m := range matches {
		fmt.Fprintf(&sb, "\n\n===== Document %d =====\n%s", i, m.Text)
	}

	return map[string]any{"result": sb.String()}, nil
}
