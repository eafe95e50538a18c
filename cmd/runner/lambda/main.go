package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"agenttools"
	"agenttools/annotate"
	"agenttools/runner"
	"agenttools/tools"
	"agenttools/tools/storage"
	"agenttools/vecstore"

	_ "modernc.org/sqlite"
)

type Params struct {
	Plan agenttools.CallPlan `json:"plan"`
}

type Results struct {
	Results []tools.Result `json:"results"`
}

func main() {
	ctx := context.Background()

	// Cold start: the corpus is pulled from S3 once and indexed into an
	// in-memory store shared by every invocation of this execution
	// environment.
	registry, runnerCfg, err := setup(ctx)
	if err != nil {
		log.Fatalf("Failed to set up: %s", err)
	}

	r := runner.NewRunner(registry, runnerCfg.MaxToolCalls, agenttools.NewStdoutInvocationLogger())

	fn := func(ctx context.Context, params Params) (Results, error) {
		if !params.Plan.IsValid() {
			return Results{}, fmt.Errorf("invalid call plan: at least one named call with input is required")
		}

		results, err := r.Run(ctx, params.Plan)
		if err != nil {
			slog.Error("RESULT: Error executing call plan", "error", err)
			return Results{}, err
		}
		return Results{Results: results}, nil
	}

	lambda.Start(fn)
}

func setup(ctx context.Context) (*tools.Registry, agenttools.RunnerConfig, error) {
	var runnerCfg agenttools.RunnerConfig
	if err := envdecode.Decode(&runnerCfg); err != nil {
		return nil, runnerCfg, fmt.Errorf("failed to decode runner config: %w", err)
	}

	var indexCfg agenttools.IndexConfig
	if err := envdecode.Decode(&indexCfg); err != nil {
		return nil, runnerCfg, fmt.Errorf("failed to decode index config: %w", err)
	}

	var embedderCfg agenttools.EmbedderConfig
	if err := envdecode.Decode(&embedderCfg); err != nil {
		return nil, runnerCfg, fmt.Errorf("failed to decode embedder config: %w", err)
	}

	var imageCfg agenttools.ImageModelConfig
	if err := envdecode.Decode(&imageCfg); err != nil {
		return nil, runnerCfg, fmt.Errorf("failed to decode image model config: %w", err)
	}

	var annotationCfg agenttools.AnnotationConfig
	if err := envdecode.Decode(&annotationCfg); err != nil {
		return nil, runnerCfg, fmt.Errorf("failed to decode annotation config: %w", err)
	}

	s3Bucket := os.Getenv("ARTIFACTS_S3_BUCKET")
	corpusKey := os.Getenv("ARTIFACTS_CORPUS_S3_KEY")
	if s3Bucket == "" || corpusKey == "" {
		return nil, runnerCfg, fmt.Errorf("missing S3 config: ARTIFACTS_S3_BUCKET and ARTIFACTS_CORPUS_S3_KEY must be set")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, runnerCfg, fmt.Errorf("failed to load AWS config: %w", err)
	}

	embedder, err := newEmbedder(embedderCfg)
	if err != nil {
		return nil, runnerCfg, err
	}

	store, err := vecstore.Open(":memory:", embedder)
	if err != nil {
		return nil, runnerCfg, fmt.Errorf("failed to open in-memory index: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	cs := storage.NewS3CorpusState(s3Client, s3Bucket, corpusKey)
	count, err := vecstore.LoadCorpus(ctx, store, cs)
	if err != nil {
		return nil, runnerCfg, fmt.Errorf("failed to load corpus from S3: %w", err)
	}
	slog.Info("SETUP: Corpus indexed from S3", "bucket", s3Bucket, "key", corpusKey, "documents", count)

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

	// A bundled SQLite database is optional in Lambda; wire the SQL tool
	// only when the file ships with the deployment package.
	var sqlCfg agenttools.SQLConfig
	if err := envdecode.Decode(&sqlCfg); err == nil {
		if _, statErr := os.Stat(sqlCfg.DatabasePath); statErr == nil {
			db, err := sql.Open("sqlite", sqlCfg.DatabasePath)
			if err != nil {
				return nil, runnerCfg, fmt.Errorf("failed to open service database: %w", err)
			}
			resources.DB = db
			slog.Info("SETUP: Service database opened", "path", sqlCfg.DatabasePath)
		}
	}

	if annotationCfg.Endpoint != "" {
		resources.Annotations = annotate.NewClient(annotationCfg.Endpoint, annotationCfg.Dataset, annotationCfg.APIKey, http.DefaultClient)
	}

	registry, err := tools.NewRegistry(ctx, resources)
	if err != nil {
		return nil, runnerCfg, fmt.Errorf("failed to create tool registry: %w", err)
	}
	slog.Info("SETUP: Tool registry created", "tools", len(registry.GetTools()))

	return registry, runnerCfg, nil
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
