package sample

import (
	"context"
	"time"
)

// Repository defines the interface for sample persistence.
type Repository interface {
	// Create stores a single sample.
	Create(ctx context.Context, s *Sample) error

	// CreateBatch stores a batch of samples.
	CreateBatch(ctx context.Context, samples []*Sample) error

	// QueryByStrategy retrieves every sample of a strategy, newest
	// collect time first.
	QueryByStrategy(ctx context.Context, strategyID string) ([]*Sample, error)

	// QueryByStrategyIndicatorRange retrieves a strategy's samples
	// filtered by indicator names and collect time window. Empty
	// indicators means all indicators; zero from/to leave that side of
	// the window open.
	QueryByStrategyIndicatorRange(ctx context.Context, strategyID string, indicators []string, from, to time.Time) ([]*Sample, error)

	// DeleteByStrategyTimeRangeAndIndicators removes a strategy's
	// samples for the given indicators inside [from, to]. It returns the
	// number of rows removed. Used to keep re-collections of the same
	// window from stacking duplicates.
	DeleteByStrategyTimeRangeAndIndicators(ctx context.Context, strategyID string, from, to time.Time, indicators []string) (int64, error)

	// DeleteByStrategy removes every sample of a strategy.
	DeleteByStrategy(ctx context.Context, strategyID string) error
}
