package lifecycle

import (
	"sort"
	"sync"
	"time"
)

// Store is the entry store: a flat map of entries keyed by string id, the
// only shared mutable state of a registry. The structural lock is never
// held while user hooks or factories run.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	seq     int
	total   int
}

// NewStore creates an empty entry store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*Entry),
	}
}

// Put admits an entry under its key. Replacement wins silently: any prior
// entry is returned so callers can observe the hazard, but it is not
// disposed here.
func (s *Store) Put(entry *Entry) (prev *Entry, replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, replaced = s.entries[entry.Key]
	s.seq++
	s.total++
	entry.reset(s.seq, time.Now())
	s.entries[entry.Key] = entry
	return prev, replaced
}

// Get returns the entry for key.
func (s *Store) Get(key string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Remove deletes the entry for key, returning it if present.
func (s *Store) Remove(key string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	return entry, ok
}

// Len returns the current number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Total returns the number of entries ever admitted.
func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Keys returns all current keys in registration order.
func (s *Store) Keys() []string {
	entries := s.Snapshot()
	keys := make([]string, len(entries))
	for i, entry := range entries {
		keys[i] = entry.Key
	}
	return keys
}

// Snapshot returns the current entries in registration order.
func (s *Store) Snapshot() []*Entry {
	s.mu.RLock()
	entries := make([]*Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})
	return entries
}

// ByTag returns entries carrying the given tag.
func (s *Store) ByTag(tag string) []*Entry {
	var out []*Entry
	for _, entry := range s.Snapshot() {
		if entry.HasTag(tag) {
			out = append(out, entry)
		}
	}
	return out
}

// ByGroup returns entries belonging to the given group.
func (s *Store) ByGroup(group string) []*Entry {
	var out []*Entry
	for _, entry := range s.Snapshot() {
		if entry.Group == group {
			out = append(out, entry)
		}
	}
	return out
}

// Expired returns entries whose TTL elapsed as of now.
func (s *Store) Expired(now time.Time) []*Entry {
	var out []*Entry
	for _, entry := range s.Snapshot() {
		if entry.Expired(now) {
			out = append(out, entry)
		}
	}
	return out
}

// CountByState returns the number of entries per lifecycle state.
func (s *Store) CountByState() map[State]int {
	counts := make(map[State]int)
	for _, entry := range s.Snapshot() {
		counts[entry.State()]++
	}
	return counts
}
