// Package store holds the published snapshot and persists it between restarts.
package store

import (
	"sync"

	"renewables-pnl/internal/model"
)

// State is the read/publish surface of the live snapshot.
type State interface {
	Snapshot() *model.Snapshot
	Publish(*model.Snapshot)
}

// MemoryState keeps the current snapshot in memory. The lock covers the pointer swap only:
// readers get a snapshot that is never mutated afterwards.
type MemoryState struct {
	mu   sync.RWMutex
	snap *model.Snapshot
}

func NewMemoryState(initial *model.Snapshot) *MemoryState {
	if initial == nil {
		initial = model.NewSnapshot()
	}
	return &MemoryState{snap: initial}
}

func (s *MemoryState) Snapshot() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *MemoryState) Publish(snap *model.Snapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
