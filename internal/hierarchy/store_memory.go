package hierarchy

import (
	"context"
	"sync"
)

// InMemoryDirectory keeps the organization map in process. Used by tests and
// by the memory storage backend.
type InMemoryDirectory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{entries: make(map[string]Entry)}
}

// Put registers or replaces a user's placement.
func (d *InMemoryDirectory) Put(entry Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[entry.UserID] = entry
}

func (d *InMemoryDirectory) Resolve(_ context.Context, userID string) (*Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if e, ok := d.entries[userID]; ok {
		out := e
		return &out, nil
	}
	return nil, nil
}
