package domain

import "sync"

// Mapping is the target-side identity an imported artifact ended up with.
type Mapping struct {
	TargetID          string
	TargetWorkspaceID string
}

// MappingTable maps source artifact ids to their target counterparts. It is
// built incrementally during import and consumed by the reference translator.
// Scoped to a single run, never persisted. Safe for concurrent writers.
type MappingTable struct {
	mu      sync.RWMutex
	entries map[string]Mapping
}

func NewMappingTable() *MappingTable {
	return &MappingTable{entries: make(map[string]Mapping)}
}

func (t *MappingTable) Put(sourceID string, m Mapping) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[sourceID] = m
}

func (t *MappingTable) Resolve(sourceID string) (Mapping, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.entries[sourceID]
	return m, ok
}

func (t *MappingTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
