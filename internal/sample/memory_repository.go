package sample

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	samples map[string]*Sample
}

// NewInMemoryRepository creates a new in-memory sample repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		samples: make(map[string]*Sample),
	}
}

// Create stores a single sample.
func (r *InMemoryRepository) Create(_ context.Context, s *Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *s
	r.samples[s.ID] = &cpy
	return nil
}

// CreateBatch stores a batch of samples.
func (r *InMemoryRepository) CreateBatch(_ context.Context, samples []*Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		cpy := *s
		r.samples[s.ID] = &cpy
	}
	return nil
}

// QueryByStrategy retrieves every sample of a strategy, newest first.
func (r *InMemoryRepository) QueryByStrategy(ctx context.Context, strategyID string) ([]*Sample, error) {
	return r.QueryByStrategyIndicatorRange(ctx, strategyID, nil, time.Time{}, time.Time{})
}

// QueryByStrategyIndicatorRange retrieves a strategy's samples filtered by
// indicator names and collect time window.
func (r *InMemoryRepository) QueryByStrategyIndicatorRange(_ context.Context, strategyID string, indicators []string, from, to time.Time) ([]*Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]bool, len(indicators))
	for _, name := range indicators {
		wanted[name] = true
	}

	var out []*Sample
	for _, s := range r.samples {
		if s.StrategyID != strategyID {
			continue
		}
		if len(wanted) > 0 && !wanted[s.IndicatorName] {
			continue
		}
		if !from.IsZero() && s.CollectTime.Before(from) {
			continue
		}
		if !to.IsZero() && s.CollectTime.After(to) {
			continue
		}
		cpy := *s
		out = append(out, &cpy)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CollectTime.Equal(out[j].CollectTime) {
			return out[i].CollectTime.After(out[j].CollectTime)
		}
		return out[i].IndicatorName < out[j].IndicatorName
	})
	return out, nil
}

// DeleteByStrategyTimeRangeAndIndicators removes a strategy's samples for
// the given indicators inside [from, to].
func (r *InMemoryRepository) DeleteByStrategyTimeRangeAndIndicators(_ context.Context, strategyID string, from, to time.Time, indicators []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[string]bool, len(indicators))
	for _, name := range indicators {
		wanted[name] = true
	}

	var removed int64
	for id, s := range r.samples {
		if s.StrategyID != strategyID {
			continue
		}
		if len(wanted) > 0 && !wanted[s.IndicatorName] {
			continue
		}
		if s.CollectTime.Before(from) || s.CollectTime.After(to) {
			continue
		}
		delete(r.samples, id)
		removed++
	}
	return removed, nil
}

// DeleteByStrategy removes every sample of a strategy.
func (r *InMemoryRepository) DeleteByStrategy(_ context.Context, strategyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.samples {
		if s.StrategyID == strategyID {
			delete(r.samples, id)
		}
	}
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
