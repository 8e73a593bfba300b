package session

import (
	"context"
	"sync"
)

// Cell is the key-value primitive the store mirrors its token into.
// Get returns (nil, nil) when key is absent.
type Cell interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryCell is a process-local Cell.
type MemoryCell struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryCell() *MemoryCell {
	return &MemoryCell{values: make(map[string][]byte)}
}

func (c *MemoryCell) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (c *MemoryCell) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = append([]byte{}, value...)
	return nil
}

func (c *MemoryCell) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}
