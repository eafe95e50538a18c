package vecstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient implements the doer interface for testing
type mockHTTPClient struct {
	response *http.Response
	err      error
	captured *http.Request
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.captured = req
	return m.response, m.err
}

// createMockResponse creates a mock HTTP response
func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestOllamaEmbedder_EmbedBatch(t *testing.T) {
	t.Run("successful batch", func(t *testing.T) {
		client := &mockHTTPClient{
			response: createMockResponse(http.StatusOK, `{"embeddings":[[1,0,0],[0,1,0]]}`),
		}
		e := NewOllamaEmbedder("http://localhost:11434", "nomic-embed-text", 3, client)

		vectors, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{1, 0, 0}, vectors[0])
		assert.Equal(t, []float32{0, 1, 0}, vectors[1])

		require.NotNil(t, client.captured)
		assert.Equal(t, "http://localhost:11434/api/embed", client.captured.URL.String())
		assert.Equal(t, "application/json", client.captured.Header.Get("Content-Type"))

		body, _ := io.ReadAll(client.captured.Body)
		var req ollamaEmbedRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, []string{"first", "second"}, req.Input)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		e := NewOllamaEmbedder("http://localhost:11434", "nomic-embed-text", 3, &mockHTTPClient{})
		_, err := e.EmbedBatch(context.Background(), nil)
		assert.Error(t, err)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		client := &mockHTTPClient{
			response: createMockResponse(http.StatusInternalServerError, `{"error":"model not found"}`),
		}
		e := NewOllamaEmbedder("http://localhost:11434", "nomic-embed-text", 3, client)

		_, err := e.EmbedBatch(context.Background(), []string{"text"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model not found")
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		client := &mockHTTPClient{
			response: createMockResponse(http.StatusOK, `{"embeddings":[[1,0,0]]}`),
		}
		e := NewOllamaEmbedder("http://localhost:11434", "nomic-embed-text", 3, client)

		_, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
		assert.Error(t, err)
	})

	t.Run("dimension mismatch is an error", func(t *testing.T) {
		client := &mockHTTPClient{
			response: createMockResponse(http.StatusOK, `{"embeddings":[[1,0]]}`),
		}
		e := NewOllamaEmbedder("http://localhost:11434", "nomic-embed-text", 3, client)

		_, err := e.EmbedBatch(context.Background(), []string{"text"})
		assert.Error(t, err)
	})
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	client := &mockHTTPClient{
		response: createMockResponse(http.StatusOK, `{"embeddings":[[0.5,0.5,0]]}`),
	}
	e := NewOllamaEmbedder("http://localhost:11434", "nomic-embed-text", 3, client)

	vec, err := e.Embed(context.Background(), "single text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0}, vec)
	assert.Equal(t, 3, e.Dimensions())
}
