package strategy

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu         sync.RWMutex
	strategies map[string]*Strategy
}

// NewInMemoryRepository creates a new in-memory strategy repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		strategies: make(map[string]*Strategy),
	}
}

// Get retrieves a strategy by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[id]
	if !ok || s.Deleted {
		return nil, ErrStrategyNotFound
	}

	cpy := clone(s)
	return cpy, nil
}

// List retrieves every non-deleted strategy.
func (r *InMemoryRepository) List(_ context.Context) ([]*Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Strategy
	for _, s := range r.strategies {
		if s.Deleted {
			continue
		}
		out = append(out, clone(s))
	}
	sortNewestFirst(out)
	return out, nil
}

// PagedList retrieves a filtered page of non-deleted strategies.
func (r *InMemoryRepository) PagedList(_ context.Context, filter ListFilter, page PageRequest) (*Page, error) {
	if page.Page <= 0 {
		page.Page = 1
	}
	if page.Size <= 0 {
		page.Size = 20
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*Strategy
	for _, s := range r.strategies {
		if s.Deleted || !matchesFilter(s, filter) {
			continue
		}
		matches = append(matches, clone(s))
	}
	sortNewestFirst(matches)

	total := int64(len(matches))
	offset := (page.Page - 1) * page.Size
	if offset >= len(matches) {
		matches = nil
	} else {
		end := offset + page.Size
		if end > len(matches) {
			end = len(matches)
		}
		matches = matches[offset:end]
	}

	return &Page{Items: matches, Total: total, Page: page.Page, Size: page.Size}, nil
}

// Create stores a new strategy.
func (r *InMemoryRepository) Create(_ context.Context, s *Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.strategies[s.ID] = clone(s)
	return nil
}

// CreateBatch stores a batch of strategies.
func (r *InMemoryRepository) CreateBatch(_ context.Context, strategies []*Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range strategies {
		r.strategies[s.ID] = clone(s)
	}
	return nil
}

// Update overwrites an existing strategy.
func (r *InMemoryRepository) Update(_ context.Context, s *Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.strategies[s.ID]; !ok {
		return ErrStrategyNotFound
	}

	r.strategies[s.ID] = clone(s)
	return nil
}

// CountByName counts non-deleted strategies with this exact name.
func (r *InMemoryRepository) CountByName(_ context.Context, name string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, s := range r.strategies {
		if !s.Deleted && s.Name == name {
			count++
		}
	}
	return count, nil
}

func matchesFilter(s *Strategy, filter ListFilter) bool {
	if filter.Name != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(filter.Name)) {
		return false
	}
	if filter.CityName != "" && !strings.Contains(strings.ToLower(s.CityName), strings.ToLower(filter.CityName)) {
		return false
	}
	if filter.Status != nil && s.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && s.Priority != *filter.Priority {
		return false
	}
	return true
}

func sortNewestFirst(strategies []*Strategy) {
	sort.Slice(strategies, func(i, j int) bool {
		if !strategies[i].CreatedAt.Equal(strategies[j].CreatedAt) {
			return strategies[i].CreatedAt.After(strategies[j].CreatedAt)
		}
		return strategies[i].ID < strategies[j].ID
	})
}

func clone(s *Strategy) *Strategy {
	cpy := *s
	if s.Latitude != nil {
		lat := *s.Latitude
		cpy.Latitude = &lat
	}
	if s.Longitude != nil {
		lon := *s.Longitude
		cpy.Longitude = &lon
	}
	cpy.Indicators = append([]string(nil), s.Indicators...)
	return &cpy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
