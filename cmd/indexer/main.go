package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"agenttools"
	"agenttools/tools/storage"
	"agenttools/vecstore"
)

func main() {
	ctx := context.Background()

	var indexCfg agenttools.IndexConfig
	if err := envdecode.Decode(&indexCfg); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var embedderCfg agenttools.EmbedderConfig
	if err := envdecode.Decode(&embedderCfg); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	src, err := newCorpusSource(ctx, indexCfg)
	if err != nil {
		slog.Error("SETUP: Failed to create corpus source", "error", err)
		return
	}

	embedder, err := newEmbedder(embedderCfg)
	if err != nil {
		slog.Error("SETUP: Failed to create embedder", "error", err)
		return
	}
	slog.Info("SETUP: Embedder ready", "provider", embedderCfg.Provider, "model", embedderCfg.Model, "dimensions", embedderCfg.Dimensions)

	store, err := vecstore.Open(indexCfg.VectorIndexPath, embedder)
	if err != nil {
		slog.Error("SETUP: Failed to open vector index", "error", err)
		return
	}
	defer store.Close()

	count, err := vecstore.LoadCorpus(ctx, store, src)
	if err != nil {
		slog.Error("RESULT: Failed to index corpus", "error", err)
		return
	}

	total, err := store.Count(ctx)
	if err != nil {
		slog.Error("RESULT: Failed to count indexed documents", "error", err)
		return
	}

	slog.Info("RESULT: Corpus indexed", "added", count, "total", total, "index", indexCfg.VectorIndexPath)
}

// newCorpusSource prefers S3 when the bucket/key pair is configured and falls
// back to the local corpus file otherwise.
func newCorpusSource(ctx context.Context, cfg agenttools.IndexConfig) (vecstore.CorpusSource, error) {
	s3Bucket := os.Getenv("ARTIFACTS_S3_BUCKET")
	corpusKey := os.Getenv("ARTIFACTS_CORPUS_S3_KEY")

	if s3Bucket != "" && corpusKey != "" {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		slog.Info("SETUP: Reading corpus from S3", "bucket", s3Bucket, "key", corpusKey)
		return storage.NewS3CorpusState(s3.NewFromConfig(awsCfg), s3Bucket, corpusKey), nil
	}

	slog.Info("SETUP: Reading corpus from file", "path", cfg.CorpusPath)
	return storage.NewFileCorpusState(cfg.CorpusPath), nil
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
