package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sig-0/remitrates/storage/types"
)

// Storage is an in-memory quote log. It is not durable, and is meant
// for development and tests
type Storage struct {
	data   []types.Quote
	nextID uint64

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		data:   make([]types.Quote, 0, 128),
		nextID: 1,
	}
}

func (s *Storage) SaveQuote(_ context.Context, q *types.Quote) (uint64, error) {
	elem, err := types.PrepareQuote(q)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	elem.ID = s.nextID
	s.nextID++

	s.data = append(s.data, *elem)

	return elem.ID, nil
}

func (s *Storage) Quotes(_ context.Context, query *types.QuoteQuery) ([]*types.Quote, error) {
	if query == nil {
		query = &types.QuoteQuery{}
	}

	s.mu.RLock()

	out := make([]*types.Quote, 0, len(s.data))

	for i := range s.data {
		if !query.Matches(&s.data[i]) {
			continue
		}

		cp := s.data[i]
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	return types.SortNewestFirst(out, query.Limit), nil
}

func (s *Storage) ListProviders(_ context.Context) ([]string, error) {
	return s.distinct(func(q *types.Quote) string {
		return q.Provider
	}), nil
}

func (s *Storage) ListDestinations(_ context.Context) ([]string, error) {
	return s.distinct(func(q *types.Quote) string {
		return q.Destination
	}), nil
}

// distinct returns the sorted set of values extracted from the log
func (s *Storage) distinct(extract func(*types.Quote) string) []string {
	s.mu.RLock()

	seen := make(map[string]struct{})

	for i := range s.data {
		seen[extract(&s.data[i])] = struct{}{}
	}

	s.mu.RUnlock()

	out := make([]string, 0, len(seen))

	for v := range seen {
		out = append(out, v)
	}

	sort.Strings(out)

	return out
}
