package vecstore

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
)

// Embedder turns text into fixed-dimension vectors. Production implementations
// wrap a hosted embedding endpoint.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// StaticEmbedder is a deterministic in-memory Embedder for testing. Registered
// texts return their fixed vectors; any other text gets a stable hash-derived
// unit vector.
type StaticEmbedder struct {
	dims    int
	vectors map[string][]float32
	err     error
}

func NewStaticEmbedder(dims int) *StaticEmbedder {
	return &StaticEmbedder{dims: dims, vectors: make(map[string][]float32)}
}

func NewStaticEmbedderWithError() *StaticEmbedder {
	return &StaticEmbedder{dims: 4, err: errors.New("embedder unavailable")}
}

// Register pins the vector returned for an exact text.
func (e *StaticEmbedder) Register(text string, vec []float32) {
	e.vectors[text] = vec
}

func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if vec, ok := e.vectors[text]; ok {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out, nil
	}

	// Derive a stable pseudo-random unit vector from the text
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()

	vec := make([]float32, e.dims)
	var norm float64
	for i := range vec {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		v := float32(int64(state%2001)-1000) / 1000
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		norm = 1
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}

	return vec, nil
}

func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (e *StaticEmbedder) Dimensions() int { return e.dims }
