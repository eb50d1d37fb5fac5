package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL strategy repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const strategyColumns = `
	id, name, latitude, longitude, city_name, indicators,
	collect_start, collect_end, status, priority, remark,
	deleted, created_at, updated_at
`

// Get retrieves a strategy by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Strategy, error) {
	query := `SELECT` + strategyColumns + `FROM strategies WHERE id = $1 AND NOT deleted`

	var s Strategy
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.Latitude,
		&s.Longitude,
		&s.CityName,
		&s.Indicators,
		&s.CollectStart,
		&s.CollectEnd,
		&s.Status,
		&s.Priority,
		&s.Remark,
		&s.Deleted,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStrategyNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List retrieves every non-deleted strategy.
func (r *PostgresRepository) List(ctx context.Context) ([]*Strategy, error) {
	query := `SELECT` + strategyColumns + `FROM strategies WHERE NOT deleted ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStrategies(rows)
}

// PagedList retrieves a filtered page of non-deleted strategies.
func (r *PostgresRepository) PagedList(ctx context.Context, filter ListFilter, page PageRequest) (*Page, error) {
	if page.Page <= 0 {
		page.Page = 1
	}
	if page.Size <= 0 {
		page.Size = 20
	}

	where := `
		WHERE NOT deleted
		  AND ($1 = '' OR name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR city_name ILIKE '%' || $2 || '%')
		  AND ($3::int IS NULL OR status = $3)
		  AND ($4::int IS NULL OR priority = $4)
	`
	args := []any{filter.Name, filter.CityName, filter.Status, filter.Priority}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM strategies `+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT %s FROM strategies %s ORDER BY created_at DESC LIMIT $5 OFFSET $6`,
		strategyColumns, where,
	)
	args = append(args, page.Size, (page.Page-1)*page.Size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanStrategies(rows)
	if err != nil {
		return nil, err
	}

	return &Page{Items: items, Total: total, Page: page.Page, Size: page.Size}, nil
}

// Create stores a new strategy.
func (r *PostgresRepository) Create(ctx context.Context, s *Strategy) error {
	_, err := r.pool.Exec(ctx, insertStrategyQuery, insertStrategyArgs(s)...)
	return err
}

// CreateBatch stores a batch of strategies in a single round trip.
func (r *PostgresRepository) CreateBatch(ctx context.Context, strategies []*Strategy) error {
	if len(strategies) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range strategies {
		batch.Queue(insertStrategyQuery, insertStrategyArgs(s)...)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range strategies {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Update overwrites an existing strategy.
func (r *PostgresRepository) Update(ctx context.Context, s *Strategy) error {
	query := `
		UPDATE strategies SET
			name = $2,
			latitude = $3,
			longitude = $4,
			city_name = $5,
			indicators = $6,
			collect_start = $7,
			collect_end = $8,
			status = $9,
			priority = $10,
			remark = $11,
			deleted = $12,
			updated_at = $13
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Name,
		s.Latitude,
		s.Longitude,
		s.CityName,
		s.Indicators,
		s.CollectStart,
		s.CollectEnd,
		s.Status,
		s.Priority,
		s.Remark,
		s.Deleted,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrStrategyNotFound
	}
	return nil
}

// CountByName counts non-deleted strategies with this exact name.
func (r *PostgresRepository) CountByName(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM strategies WHERE name = $1 AND NOT deleted`, name,
	).Scan(&count)
	return count, err
}

const insertStrategyQuery = `
	INSERT INTO strategies (
		id, name, latitude, longitude, city_name, indicators,
		collect_start, collect_end, status, priority, remark,
		deleted, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

func insertStrategyArgs(s *Strategy) []any {
	return []any{
		s.ID,
		s.Name,
		s.Latitude,
		s.Longitude,
		s.CityName,
		s.Indicators,
		s.CollectStart,
		s.CollectEnd,
		s.Status,
		s.Priority,
		s.Remark,
		s.Deleted,
		s.CreatedAt,
		s.UpdatedAt,
	}
}

func scanStrategies(rows pgx.Rows) ([]*Strategy, error) {
	var strategies []*Strategy
	for rows.Next() {
		var s Strategy
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Latitude,
			&s.Longitude,
			&s.CityName,
			&s.Indicators,
			&s.CollectStart,
			&s.CollectEnd,
			&s.Status,
			&s.Priority,
			&s.Remark,
			&s.Deleted,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return strategies, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
