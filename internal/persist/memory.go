package persist

import (
	"context"
	"sync"

	"github.com/dyluth/tome/pkg/world"
)

// Memory is a Backend holding deep copies in process memory. It backs tests and
// throwaway sessions.
type Memory struct {
	mu    sync.Mutex
	docs  []*world.Document
	saves int
}

// NewMemory returns a Memory backend pre-loaded with copies of docs.
func NewMemory(docs ...*world.Document) *Memory {
	return &Memory{docs: cloneAll(docs)}
}

// LoadAll returns copies of the stored campaigns.
func (m *Memory) LoadAll(ctx context.Context) ([]*world.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.docs), nil
}

// SaveAll replaces the stored campaigns with copies of docs.
func (m *Memory) SaveAll(ctx context.Context, docs []*world.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = cloneAll(docs)
	m.saves++
	return nil
}

// Saves reports how many times SaveAll succeeded.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneAll(docs []*world.Document) []*world.Document {
	out := make([]*world.Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}
