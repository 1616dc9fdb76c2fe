package helper

import (
	"context"
	"sync"

	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

// MemoryStore is an in-memory record store for tests. It counts every fetch
// per (collection, id), so tests can assert how often the engine actually hit
// the store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]rehydrator.Document
	fetches map[string]int
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]rehydrator.Document),
		fetches: make(map[string]int),
	}
}

// Fetch implements the rehydrator.Store interface.
func (s *MemoryStore) Fetch(_ context.Context, collection string, id string) (rehydrator.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey(collection, id)
	s.fetches[key]++

	doc, ok := s.records[key]
	if !ok {
		return nil, rehydrator.ErrRecordNotFound
	}

	return doc, nil
}

// Save stores a record under (collection, id), replacing any previous one.
func (s *MemoryStore) Save(_ context.Context, collection string, id string, doc rehydrator.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[storeKey(collection, id)] = doc

	return nil
}

// FetchCount returns how often one record was fetched.
func (s *MemoryStore) FetchCount(collection string, id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fetches[storeKey(collection, id)]
}

// TotalFetchCount returns how often the store was fetched from in total.
func (s *MemoryStore) TotalFetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, count := range s.fetches {
		total += count
	}

	return total
}

func storeKey(collection string, id string) string {
	return collection + "/" + id
}

var _ rehydrator.Store = (*MemoryStore)(nil)

// FailingStore is a record store whose fetches always fail with the
// configured error, for testing error propagation.
type FailingStore struct {
	Err error
}

// Fetch implements the rehydrator.Store interface.
func (s *FailingStore) Fetch(_ context.Context, _ string, _ string) (rehydrator.Document, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	return nil, rehydrator.ErrFetchingRecordFailed
}

var _ rehydrator.Store = (*FailingStore)(nil)
