package storage

import (
	"context"
	"os"
)

type FileCorpusState struct {
	FilePath string
}

func NewFileCorpusState(filePath string) *FileCorpusState {
	return &FileCorpusState{FilePath: filePath}
}

func (c *FileCorpusState) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(c.FilePath)
}
