package strategy

import "context"

// ListFilter narrows paged strategy queries. Zero values match
// everything.
type ListFilter struct {
	Name     string
	CityName string
	Status   *Status
	Priority *Priority
}

// PageRequest selects a page of results. Page is 1-based.
type PageRequest struct {
	Page int
	Size int
}

// Page is one page of strategies plus the unpaged total.
type Page struct {
	Items []*Strategy
	Total int64
	Page  int
	Size  int
}

// Repository defines the interface for strategy persistence. All reads
// exclude soft-deleted strategies.
type Repository interface {
	// Get retrieves a strategy by ID.
	Get(ctx context.Context, id string) (*Strategy, error)

	// List retrieves every non-deleted strategy.
	List(ctx context.Context) ([]*Strategy, error)

	// PagedList retrieves a filtered page of non-deleted strategies,
	// newest first.
	PagedList(ctx context.Context, filter ListFilter, page PageRequest) (*Page, error)

	// Create stores a new strategy.
	Create(ctx context.Context, s *Strategy) error

	// CreateBatch stores a batch of strategies.
	CreateBatch(ctx context.Context, strategies []*Strategy) error

	// Update overwrites an existing strategy.
	Update(ctx context.Context, s *Strategy) error

	// CountByName counts non-deleted strategies with this exact name.
	CountByName(ctx context.Context, name string) (int64, error)
}
