package vecstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OllamaEmbedder calls a local Ollama instance's embed API.
type OllamaEmbedder struct {
	endpoint   string
	model      string
	dims       int
	httpClient doer
}

func NewOllamaEmbedder(baseEndpoint, model string, dims int, httpClient doer) *OllamaEmbedder {
	return &OllamaEmbedder{
		endpoint:   baseEndpoint + "/api/embed",
		model:      model,
		dims:       dims,
		httpClient: httpClient,
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	// other metadata omitted but available
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("embed batch: no texts")
	}

	reqBytes, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed: %s: %s", resp.Status, string(body))
	}

	var wire ollamaEmbedResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}

	if len(wire.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed: response count mismatch: got %d want %d", len(wire.Embeddings), len(texts))
	}
	for i, vec := range wire.Embeddings {
		if e.dims > 0 && len(vec) != e.dims {
			return nil, fmt.Errorf("embed: dimension mismatch at index %d: got %d want %d", i, len(vec), e.dims)
		}
	}

	return wire.Embeddings, nil
}

func (e *OllamaEmbedder) Dimensions() int { return e.dims }
