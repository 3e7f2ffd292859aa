// Package store provides sequence.Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/meibl/brokerage-engine/sequence"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.Mutex
	counters map[sequence.Key]*sequence.Counter
}

func NewMemory() *Memory {
	return &Memory{counters: make(map[sequence.Key]*sequence.Counter)}
}

// Next atomically increments the counter for key, creating it at 1.
func (m *Memory) Next(_ context.Context, key sequence.Key) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if !ok {
		c = &sequence.Counter{Key: key}
		m.counters[key] = c
	}
	c.LastSeq++
	c.UpdatedAt = time.Now().UTC()
	return c.LastSeq, nil
}

// Current returns the last issued value, 0 when the counter is absent.
func (m *Memory) Current(_ context.Context, key sequence.Key) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if !ok {
		return 0, nil
	}
	return c.LastSeq, nil
}

// Release decrements only while seq is still the latest issued value.
func (m *Memory) Release(_ context.Context, key sequence.Key, seq int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if !ok || c.LastSeq != seq {
		return sequence.ErrReleaseSuperseded
	}
	c.LastSeq--
	c.UpdatedAt = time.Now().UTC()
	return nil
}

var _ sequence.Store = (*Memory)(nil)
