// Package cache keeps a local copy of the board so reads survive an outage
// of the primary store.
package cache

import (
	"context"
	"sort"
	"sync"

	"github.com/wolfman30/herbal-board/internal/patients"
)

// CurrentVersion is the layout version of cached snapshots. Snapshots under
// older versions are removed by CleanupStale.
const CurrentVersion = 12

// Cache is a snapshot of one board's records.
type Cache interface {
	LoadAll(ctx context.Context) ([]*patients.Patient, error)
	Put(ctx context.Context, p *patients.Patient) error
	Delete(ctx context.Context, id string) error
	// Replace swaps the whole snapshot for list.
	Replace(ctx context.Context, list []*patients.Patient) error
	// CleanupStale removes snapshots of older layout versions and reports how
	// many were removed.
	CleanupStale(ctx context.Context) (int, error)
}

// Memory is a process-local Cache.
type Memory struct {
	mu    sync.RWMutex
	items map[string]*patients.Patient
}

// NewMemory creates an empty cache.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]*patients.Patient)}
}

// LoadAll implements Cache.
func (m *Memory) LoadAll(ctx context.Context) ([]*patients.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*patients.Patient, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p.Clone())
	}
	sortNewestCreated(out)
	return out, nil
}

// Put implements Cache.
func (m *Memory) Put(ctx context.Context, p *patients.Patient) error {
	m.mu.Lock()
	m.items[p.ID] = p.Clone()
	m.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}

// Replace implements Cache.
func (m *Memory) Replace(ctx context.Context, list []*patients.Patient) error {
	items := make(map[string]*patients.Patient, len(list))
	for _, p := range list {
		items[p.ID] = p.Clone()
	}
	m.mu.Lock()
	m.items = items
	m.mu.Unlock()
	return nil
}

// CleanupStale implements Cache. A memory cache has no older versions.
func (m *Memory) CleanupStale(ctx context.Context) (int, error) {
	return 0, nil
}

func sortNewestCreated(list []*patients.Patient) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
