package vecstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// CorpusSource supplies raw corpus JSON, typically backed by a file or an S3
// object.
type CorpusSource interface {
	Load(ctx context.Context) ([]byte, error)
}

// LoadCorpus reads a JSON array of documents from src and indexes all of them.
// It returns the number of documents added.
func LoadCorpus(ctx context.Context, store *Store, src CorpusSource) (int, error) {
	b, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("read corpus: %w", err)
	}

	var docs []Document
	if err := json.Unmarshal(b, &docs); err != nil {
		return 0, fmt.Errorf("parse corpus: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	if err := store.AddBatch(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}
