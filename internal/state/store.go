package state

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mutation is an optimistic local edit waiting for the server to confirm it.
type Mutation struct {
	ID        uuid.UUID
	ItemID    string
	Kind      string
	Field     string
	Value     any
	CreatedAt time.Time
}

// Snapshot represents the latest merged view available to the UI.
type Snapshot struct {
	Items               []Item
	Loaded              bool
	Loading             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
	Pending             int
}

// IsOffline returns true when the API has been unreachable for multiple
// fetch cycles.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Find returns the merged item with the given id.
func (s Snapshot) Find(id string) (Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Store holds the last accepted items with pending mutations layered on top.
// The zero value is ready to use.
type Store struct {
	mu          sync.RWMutex
	items       []Item
	pending     map[string]Mutation
	loaded      bool
	loading     bool
	lastUpdated time.Time
	lastError   error
	failures    int

	// TTL expires pending mutations; zero keeps them for the session.
	TTL time.Duration
	// Now is the clock used for mutation timestamps; nil uses time.Now.
	Now func() time.Time
}

// ReplaceAll sets the authoritative items. Pending mutations the server
// already agrees with are dropped; the rest keep overriding the fresh values.
// It returns the number of mutations confirmed.
func (s *Store) ReplaceAll(items []Item) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = cloneItems(items)
	s.loaded = true
	s.loading = false
	s.lastError = nil
	s.lastUpdated = s.now()
	s.failures = 0

	confirmed := 0
	now := s.now()
	for key, m := range s.pending {
		if s.expired(m, now) {
			delete(s.pending, key)
			continue
		}
		for _, it := range s.items {
			if it.Positional || it.ID != m.ItemID {
				continue
			}
			if server, ok := it.Fields[m.Field]; ok && sameValue(server, m.Value) {
				delete(s.pending, key)
				confirmed++
			}
			break
		}
	}
	return confirmed
}

// ApplyMutation records a local edit that is visible immediately. A newer
// edit of the same item field replaces the older one.
func (s *Store) ApplyMutation(itemID, kind, field string, value any) Mutation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		s.pending = make(map[string]Mutation)
	}
	m := Mutation{
		ID:        uuid.New(),
		ItemID:    itemID,
		Kind:      kind,
		Field:     field,
		Value:     value,
		CreatedAt: s.now(),
	}
	s.pending[mutationKey(itemID, field)] = m
	return m
}

// Acknowledge folds a mutation the server accepted into the stored items and
// clears it. It returns false when the mutation was already reconciled or
// superseded.
func (s *Store) Acknowledge(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, m, ok := s.findLocked(id)
	if !ok {
		return false
	}
	delete(s.pending, key)
	for i := range s.items {
		if !s.items[i].Positional && s.items[i].ID == m.ItemID {
			if s.items[i].Fields == nil {
				s.items[i].Fields = make(map[string]any)
			}
			s.items[i].Fields[m.Field] = m.Value
			break
		}
	}
	return true
}

// Reject drops a mutation the server refused so the server value shows again.
func (s *Store) Reject(id uuid.UUID) bool {
	return s.drop(id)
}

// Fail records a terminal fetch error while keeping the last accepted items.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	s.lastError = err
	s.lastUpdated = s.now()
	s.failures++
}

// SetLoading marks whether a fetch is in flight.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// Clear empties the items without touching pending mutations. It is used when
// criteria short-circuit to an empty state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.loaded = false
	s.loading = false
	s.lastError = nil
}

// Positional reports whether itemID names a row the server sent without an
// id. Such rows cannot be edited because their id shifts between responses.
func (s *Store) Positional(itemID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items {
		if it.ID == itemID {
			return it.Positional
		}
	}
	return false
}

// Display returns the value shown for an item field: the pending mutation if
// any, otherwise the server value.
func (s *Store) Display(itemID, field string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.pending[mutationKey(itemID, field)]; ok && !s.expired(m, s.now()) {
		return m.Value, true
	}
	for _, it := range s.items {
		if it.ID == itemID {
			v, ok := it.Fields[field]
			return v, ok
		}
	}
	return nil, false
}

// Pending returns the live mutations ordered by creation time.
func (s *Store) Pending() []Mutation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]Mutation, 0, len(s.pending))
	for _, m := range s.pending {
		if !s.expired(m, now) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Snapshot returns a merged copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	snap := Snapshot{
		Items:               make([]Item, 0, len(s.items)),
		Loaded:              s.loaded,
		Loading:             s.loading,
		LastUpdated:         s.lastUpdated,
		ConsecutiveFailures: s.failures,
	}
	for _, it := range s.items {
		merged := it.clone()
		if it.Positional {
			snap.Items = append(snap.Items, merged)
			continue
		}
		for _, m := range s.pending {
			if m.ItemID == it.ID && !s.expired(m, now) {
				merged.Fields[m.Field] = m.Value
			}
		}
		snap.Items = append(snap.Items, merged)
	}
	for _, m := range s.pending {
		if !s.expired(m, now) {
			snap.Pending++
		}
	}
	snap.LastError = s.lastError
	return snap
}

func (s *Store) drop(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, _, ok := s.findLocked(id)
	if ok {
		delete(s.pending, key)
	}
	return ok
}

func (s *Store) findLocked(id uuid.UUID) (string, Mutation, bool) {
	for key, m := range s.pending {
		if m.ID == id {
			return key, m, true
		}
	}
	return "", Mutation{}, false
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) expired(m Mutation, now time.Time) bool {
	return s.TTL > 0 && now.Sub(m.CreatedAt) >= s.TTL
}

func mutationKey(itemID, field string) string {
	return itemID + "\x00" + field
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func cloneItems(items []Item) []Item {
	if len(items) == 0 {
		return nil
	}
	dup := make([]Item, len(items))
	for i, it := range items {
		dup[i] = it.clone()
	}
	return dup
}
