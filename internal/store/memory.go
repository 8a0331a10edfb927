package store

import (
	"context"
	"sync"

	"github.com/web3-frozen/itchio-monitor/internal/metric"
)

// MemoryStore keeps state in process memory. State does not survive a
// restart; it is used when no database or Redis is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]metric.DeltaState
}

func NewMemory() *MemoryStore {
	return &MemoryStore{states: make(map[string]metric.DeltaState)}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) LoadState(_ context.Context, uniqueID string) (*metric.DeltaState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[uniqueID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (m *MemoryStore) SaveState(_ context.Context, uniqueID string, st metric.DeltaState) error {
	m.mu.Lock()
	m.states[uniqueID] = st
	m.mu.Unlock()
	return nil
}
