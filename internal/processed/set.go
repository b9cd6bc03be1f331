// Package processed records which scene windows have been analyzed
// successfully, so smart runs can skip them.
package processed

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Entry is one recorded key.
type Entry struct {
	Key        string    `json:"key" yaml:"key"`
	RecordedAt time.Time `json:"recorded_at" yaml:"recorded_at"`
}

// Set is an append-only set of processed keys. Add is idempotent.
type Set interface {
	Contains(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]Entry, error)
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// View is a read-only snapshot of a Set. It satisfies the membership
// interface the selection package consults.
type View map[string]struct{}

// Contains reports whether key was in the set when the view was taken.
func (v View) Contains(key string) bool {
	_, ok := v[key]
	return ok
}

// Snapshot loads every key of set into a View.
func Snapshot(ctx context.Context, set Set) (View, error) {
	entries, err := set.Keys(ctx)
	if err != nil {
		return nil, err
	}
	v := make(View, len(entries))
	for _, e := range entries {
		v[e.Key] = struct{}{}
	}
	return v, nil
}

// MemorySet is an in-process Set.
type MemorySet struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemorySet creates an empty set, optionally seeded with keys.
func NewMemorySet(keys ...string) *MemorySet {
	m := &MemorySet{entries: make(map[string]time.Time), now: time.Now}
	for _, k := range keys {
		m.entries[k] = m.now().UTC()
	}
	return m
}

func (m *MemorySet) Contains(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok, nil
}

func (m *MemorySet) Add(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		m.entries[key] = m.now().UTC()
	}
	return nil
}

func (m *MemorySet) Keys(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.entries))
	for k, at := range m.entries {
		out = append(out, Entry{Key: k, RecordedAt: at})
	}
	sortEntries(out)
	return out, nil
}

func (m *MemorySet) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *MemorySet) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]time.Time)
	return nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].RecordedAt.Equal(entries[j].RecordedAt) {
			return entries[i].RecordedAt.Before(entries[j].RecordedAt)
		}
		return entries[i].Key < entries[j].Key
	})
}
