package storage

import (
	"context"
	"errors"
)

type CorpusState interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestCorpusState is a simple in-memory implementation for testing
type TestCorpusState struct {
	data []byte
	err  error
}

func NewTestCorpusState(data []byte) *TestCorpusState {
	return &TestCorpusState{data: data}
}

func NewTestCorpusStateWithError() *TestCorpusState {
	return &TestCorpusState{err: errors.New("not found")}
}

func (t *TestCorpusState) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}
