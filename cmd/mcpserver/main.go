package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joeshaw/envdecode"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"agenttools"
	"agenttools/annotate"
	"agenttools/tools"
	"agenttools/vecstore"

	_ "modernc.org/sqlite"
)

func main() {
	ctx := context.Background()

	registry, closeResources, err := setup(ctx)
	if err != nil {
		log.Fatalf("Failed to set up: %s", err)
	}
	defer closeResources()

	server := mcp.NewServer(&mcp.Implementation{Name: "agenttools", Version: "0.1.0"}, nil)
	for _, tool := range registry.GetTools() {
		addTool(server, tool)
	}
	slog.Info("SETUP: MCP server ready", "tools", len(registry.GetTools()))

	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		slog.Error("RESULT: MCP server stopped", "error", err)
	}
}

// addTool exposes one registry tool over MCP. Tool failures come back as MCP
// tool errors so the client's orchestrator can react to them; only transport
// problems fail the protocol call itself.
func addTool(server *mcp.Server, tool tools.Tool) {
	server.AddTool(&mcp.Tool{
		Name:         tool.Name(),
		Title:        tool.Title(),
		Description:  tool.Description(),
		InputSchema:  tool.InputSchema(),
		OutputSchema: tool.OutputSchema(),
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[map[string]any]) (*mcp.CallToolResultFor[any], error) {
		input, _ := tools.NormalizeInput(params.Arguments).(map[string]any)

		if err := tools.ValidateInput(tool, input); err != nil {
			return toolError(err), nil
		}

		output, err := tool.Run(ctx, input)
		if err != nil {
			return toolError(err), nil
		}

		return &mcp.CallToolResultFor[any]{
			Content:           []mcp.Content{&mcp.TextContent{Text: outputText(output)}},
			StructuredContent: output,
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// outputText prefers the conventional "result" string; tools with structured
// output (the image tool) fall back to the JSON rendering.
func outputText(output map[string]any) string {
	if text, ok := output["result"].(string); ok {
		return text
	}
	b, err := json.Marshal(output)
	if err != nil {
		return ""
	}
	return string(b)
}

func setup(ctx context.Context) (*tools.Registry, func(), error) {
	var indexCfg agenttools.IndexConfig
	if err := envdecode.Decode(&indexCfg); err != nil {
		return nil, nil, err
	}

	var embedderCfg agenttools.EmbedderConfig
	if err := envdecode.Decode(&embedderCfg); err != nil {
		return nil, nil, err
	}

	var imageCfg agenttools.ImageModelConfig
	if err := envdecode.Decode(&imageCfg); err != nil {
		return nil, nil, err
	}

	var sqlCfg agenttools.SQLConfig
	if err := envdecode.Decode(&sqlCfg); err != nil {
		return nil, nil, err
	}

	var annotationCfg agenttools.AnnotationConfig
	if err := envdecode.Decode(&annotationCfg); err != nil {
		return nil, nil, err
	}

	embedder, err := newEmbedder(embedderCfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := vecstore.Open(indexCfg.VectorIndexPath, embedder)
	if err != nil {
		return nil, nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	resources := tools.Resources{
		Corpus:        store,
		RetrievalTopK: indexCfg.RetrievalTopK,
		ImageModel:    bedrockruntime.NewFromConfig(awsCfg),
		ImageOptions: tools.ImageOptions{
			ModelID:  imageCfg.ModelID,
			Width:    imageCfg.Width,
			Height:   imageCfg.Height,
			CFGScale: imageCfg.CFGScale,
		},
	}
	closers := []func(){func() { store.Close() }}

	// The SQL tool joins the registry only when the database file exists;
	// the stdio server should come up with whatever resources are local.
	if _, statErr := os.Stat(sqlCfg.DatabasePath); statErr == nil {
		db, err := sql.Open("sqlite", sqlCfg.DatabasePath)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		resources.DB = db
		closers = append(closers, func() { db.Close() })
	}

	if annotationCfg.Endpoint != "" {
		resources.Annotations = annotate.NewClient(annotationCfg.Endpoint, annotationCfg.Dataset, annotationCfg.APIKey, http.DefaultClient)
	}

	registry, err := tools.NewRegistry(ctx, resources)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, nil, err
	}

	closeResources := func() {
		for _, c := range closers {
			c()
		}
	}
	return registry, closeResources, nil
}

func newEmbedder(cfg agenttools.EmbedderConfig) (vecstore.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return vecstore.NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dimensions), nil
	case "ollama":
		return vecstore.NewOllamaEmbedder(cfg.OllamaEndpoint, cfg.Model, cfg.Dimensions, http.DefaultClient), nil
	case "static":
		return vecstore.NewStaticEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Provider)
	}
}
