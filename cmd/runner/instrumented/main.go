package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"agenttools"
	"agenttools/annotate"
	"agenttools/runner"
	"agenttools/tools"
	"agenttools/vecstore"

	_ "modernc.org/sqlite"
)

const defaultPlan = `{
	"task": "demo tool batch",
	"calls": [
		{"name": "corpus_search", "input": {"query": "how attention works in transformers"}},
		{"name": "sql_query", "input": {"query": "SELECT customer_name, price FROM receipts ORDER BY price DESC LIMIT 1"}}
	]
}`

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

	var imageCfg agenttools.ImageModelConfig
	if err := envdecode.Decode(&imageCfg); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var sqlCfg agenttools.SQLConfig
	if err := envdecode.Decode(&sqlCfg); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var annotationCfg agenttools.AnnotationConfig
	if err := envdecode.Decode(&annotationCfg); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var runnerCfg agenttools.RunnerConfig
	if err := envdecode.Decode(&runnerCfg); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var plan agenttools.CallPlan
	if err := json.Unmarshal([]byte(argOr(1, defaultPlan)), &plan); err != nil {
		slog.Error("SETUP: Failed to parse call plan", "error", err)
		return
	}
	if !plan.IsValid() {
		slog.Error("SETUP: Call plan failed validation", "task", plan.Task, "calls", len(plan.Calls))
		return
	}

	embedder, err := newEmbedder(embedderCfg)
	if err != nil {
		slog.Error("SETUP: Failed to create embedder", "error", err)
		return
	}

	store, err := vecstore.Open(indexCfg.VectorIndexPath, embedder)
	if err != nil {
		slog.Error("SETUP: Failed to open vector index", "error", err)
		return
	}
	defer store.Close()

	count, err := store.Count(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to count indexed documents", "error", err)
		return
	}
	slog.Info("SETUP: Vector index opened", "path", indexCfg.VectorIndexPath, "documents", count)

	db, err := sql.Open("sqlite", sqlCfg.DatabasePath)
	if err != nil {
		slog.Error("SETUP: Failed to open service database", "error", err)
		return
	}
	defer db.Close()
	slog.Info("SETUP: Service database opened", "path", sqlCfg.DatabasePath)

	brc, err := newBedrockRuntimeClient(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to create Bedrock client", "error", err)
		return
	}

	// Without a configured annotation endpoint, feedback records land on a
	// local echo server so demo runs still exercise the tool end to end.
	endpoint := annotationCfg.Endpoint
	if endpoint == "" {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := new(bytes.Buffer)
			body.ReadFrom(r.Body) // nolint: errcheck
			slog.Info("ANNOTATION: Received request",
				"method", r.Method,
				"path", r.URL.Path,
				"body", body.String(),
			)
			w.WriteHeader(http.StatusCreated)
		}))
		defer testServer.Close()
		endpoint = testServer.URL
	}
	annotationClient := annotate.NewClient(endpoint, annotationCfg.Dataset, annotationCfg.APIKey, http.DefaultClient)

	registry, err := tools.NewRegistry(ctx, tools.Resources{
		Corpus:        store,
		RetrievalTopK: indexCfg.RetrievalTopK,
		DB:            db,
		ImageModel:    brc,
		ImageOptions: tools.ImageOptions{
			ModelID:  imageCfg.ModelID,
			Width:    imageCfg.Width,
			Height:   imageCfg.Height,
			CFGScale: imageCfg.CFGScale,
		},
		Annotations: annotationClient,
	})
	if err != nil {
		slog.Error("SETUP: Failed to create tool registry", "error", err)
		return
	}
	slog.Info("SETUP: Tool registry created", "tools", len(registry.GetTools()))

	logger, cleanup, err := newInvocationLogger(plan.Task)
	if err != nil {
		slog.Error("SETUP: Failed to create invocation logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush invocation log", "error", err)
		}
	}()

	tracerProvider, meterProvider, otelShutdown, err := agenttools.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	tracer := tracerProvider.Tracer(agenttools.TracerNameRunner)
	meter := meterProvider.Meter(agenttools.TracerNameRunner)
	ctx, span := tracer.Start(ctx, agenttools.TracerNameRunner, trace.WithAttributes(
		attribute.String("plan.task", plan.Task),
		attribute.Int("plan.calls", len(plan.Calls)),
	))
	defer span.End()

	results, err := runner.NewInstrumentedRunner(registry, runnerCfg.MaxToolCalls, logger, tracer, meter).Run(ctx, plan)
	if err != nil {
		slog.Error("RESULT: Error executing call plan", "error", err)
		return
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		slog.Error("RESULT: Failed to marshal results", "error", err)
		return
	}
	fmt.Println(string(out))

	if os.Getenv("DEBUG") != "" {
		agenttools.Dump(results)
	}
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

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func newInvocationLogger(task string) (agenttools.InvocationLogger, func() error, error) {
	logFilePath := agenttools.NewInvocationLogFilePath(task)
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := agenttools.NewFileInvocationLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
