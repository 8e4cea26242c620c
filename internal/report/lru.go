package report

import (
	"container/list"
	"sync"
)

// LRUStore is an in-memory LRU cache in front of a backing Store.
type LRUStore struct {
	mu    sync.Mutex
	cap   int
	back  Store
	order *list.List // of *Record, most recent at front
	items map[string]*list.Element
}

// NewLRUStore creates an LRU cache holding up to cap records that
// delegates to back on cache misses. Capacity must be >= 1.
func NewLRUStore(cap int, back Store) *LRUStore {
	if cap < 1 {
		cap = 1
	}
	return &LRUStore{
		cap:   cap,
		back:  back,
		order: list.New(),
		items: make(map[string]*list.Element, cap),
	}
}

// Save caches the record and writes it through to the backing store.
func (s *LRUStore) Save(record *Record) error {
	s.put(record)
	return s.back.Save(record)
}

// Load returns a cached record, or loads it from the backing store and
// caches it.
func (s *LRUStore) Load(runID string) (*Record, error) {
	s.mu.Lock()
	if e, ok := s.items[runID]; ok {
		s.order.MoveToFront(e)
		r := e.Value.(*Record)
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()

	record, err := s.back.Load(runID)
	if err != nil {
		return nil, err
	}
	s.put(record)
	return record, nil
}

// Len returns the number of cached records.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *LRUStore) put(record *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[record.ID]; ok {
		e.Value = record
		s.order.MoveToFront(e)
		return
	}
	s.items[record.ID] = s.order.PushFront(record)
	for s.order.Len() > s.cap {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.items, oldest.Value.(*Record).ID)
	}
}
