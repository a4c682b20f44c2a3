// Package memory provides an in-memory implementation of storage.UsageStore
// for tests and single-process tools. Records are lost when the process
// restarts. Optional LRU eviction bounds memory usage.
package memory

import (
	"container/list"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rhuss/chatwire/pkg/storage"
)

// entry holds a stored record and its LRU position.
type entry struct {
	rec     storage.UsageRecord
	lruElem *list.Element
}

// Store is an in-memory UsageStore with optional LRU eviction.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	lruList *list.List // front = most recently used
	maxSize int        // 0 = unlimited
}

var _ storage.UsageStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. Otherwise the least recently used record is evicted when
// the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// SaveUsage stores rec, attributing it to the context account unless the
// record already names one.
func (s *Store) SaveUsage(ctx context.Context, rec storage.UsageRecord) error {
	if rec.ID == "" {
		return storage.ErrInvalidRecord
	}
	if rec.Account == "" {
		rec.Account = storage.GetAccount(ctx)
	}
	rec.FinishReasons = slices.Clone(rec.FinishReasons)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[rec.ID]; exists {
		return fmt.Errorf("%w: %s", storage.ErrConflict, rec.ID)
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	elem := s.lruList.PushFront(rec.ID)
	s.entries[rec.ID] = &entry{rec: rec, lruElem: elem}
	return nil
}

// GetUsage returns the record with the given ID. Records of other accounts
// are reported as not found.
func (s *Store) GetUsage(ctx context.Context, id string) (storage.UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || !visible(ctx, &e.rec) {
		return storage.UsageRecord{}, storage.ErrNotFound
	}
	s.lruList.MoveToFront(e.lruElem)
	return clone(e.rec), nil
}

// ListUsage returns a page of matching records ordered by creation time.
func (s *Store) ListUsage(ctx context.Context, opts storage.ListOptions) (*storage.UsageList, error) {
	return storage.NewList(s.matching(ctx, opts), opts), nil
}

// Totals sums the matching records.
func (s *Store) Totals(ctx context.Context, opts storage.ListOptions) (storage.Totals, error) {
	var t storage.Totals
	for _, rec := range s.matching(ctx, opts) {
		t.Add(&rec)
	}
	return t, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) matching(ctx context.Context, opts storage.ListOptions) []storage.UsageRecord {
	s.mu.Lock()
	var matches []storage.UsageRecord
	for _, e := range s.entries {
		if visible(ctx, &e.rec) && opts.Matches(&e.rec) {
			matches = append(matches, clone(e.rec))
		}
	}
	s.mu.Unlock()

	asc := opts.Order == "asc"
	slices.SortFunc(matches, func(a, b storage.UsageRecord) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if asc {
			return c
		}
		return -c
	})
	return matches
}

// evictOldest removes the least recently used entry.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	id := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.entries, id)
}

func visible(ctx context.Context, rec *storage.UsageRecord) bool {
	account := storage.GetAccount(ctx)
	return account == "" || rec.Account == account
}

func clone(rec storage.UsageRecord) storage.UsageRecord {
	rec.FinishReasons = slices.Clone(rec.FinishReasons)
	return rec
}
