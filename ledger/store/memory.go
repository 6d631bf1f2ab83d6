// Package store provides Persister implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/pos-ledger/ledger"
)

// =============================================================================
// MEMORY PERSISTER - In-memory implementation (for testing/dev)
// =============================================================================

type snapshot struct {
	version int
	payload []byte
}

type Memory struct {
	mu        sync.RWMutex
	snapshots map[string]snapshot
	saves     int

	// Fail, when set, is returned by every Save without storing anything.
	Fail error
}

func NewMemory() *Memory {
	return &Memory{snapshots: make(map[string]snapshot)}
}

// Save overwrites the named snapshot. The payload is copied.
func (m *Memory) Save(_ context.Context, name string, version int, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		return m.Fail
	}
	m.snapshots[name] = snapshot{version: version, payload: append([]byte(nil), payload...)}
	m.saves++
	return nil
}

func (m *Memory) Load(_ context.Context, name string) (int, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snapshots[name]
	if !ok {
		return 0, nil, ledger.ErrSnapshotNotFound
	}
	return s.version, append([]byte(nil), s.payload...), nil
}

// Names lists stored snapshots, sorted.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.snapshots))
	for name := range m.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Saves counts successful writes.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// SetFail injects (or clears, with nil) a Save failure.
func (m *Memory) SetFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fail = err
}

var _ ledger.Persister = (*Memory)(nil)
