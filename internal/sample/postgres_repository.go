package sample

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL sample repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const insertQuery = `
	INSERT INTO samples (
		id, strategy_id, city_name, latitude, longitude,
		collect_time, indicator_name, indicator_value, indicator_unit,
		created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// Create stores a single sample.
func (r *PostgresRepository) Create(ctx context.Context, s *Sample) error {
	_, err := r.pool.Exec(ctx, insertQuery,
		s.ID,
		s.StrategyID,
		s.CityName,
		s.Latitude,
		s.Longitude,
		s.CollectTime,
		s.IndicatorName,
		s.IndicatorValue,
		s.IndicatorUnit,
		s.CreatedAt,
	)
	return err
}

// CreateBatch stores a batch of samples in a single round trip.
func (r *PostgresRepository) CreateBatch(ctx context.Context, samples []*Sample) error {
	if len(samples) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range samples {
		batch.Queue(insertQuery,
			s.ID,
			s.StrategyID,
			s.CityName,
			s.Latitude,
			s.Longitude,
			s.CollectTime,
			s.IndicatorName,
			s.IndicatorValue,
			s.IndicatorUnit,
			s.CreatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range samples {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// QueryByStrategy retrieves every sample of a strategy, newest first.
func (r *PostgresRepository) QueryByStrategy(ctx context.Context, strategyID string) ([]*Sample, error) {
	query := `
		SELECT
			id, strategy_id, city_name, latitude, longitude,
			collect_time, indicator_name, indicator_value, indicator_unit,
			created_at
		FROM samples
		WHERE strategy_id = $1
		ORDER BY collect_time DESC, indicator_name
	`

	rows, err := r.pool.Query(ctx, query, strategyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

// QueryByStrategyIndicatorRange retrieves a strategy's samples filtered by
// indicator names and collect time window.
func (r *PostgresRepository) QueryByStrategyIndicatorRange(ctx context.Context, strategyID string, indicators []string, from, to time.Time) ([]*Sample, error) {
	query := `
		SELECT
			id, strategy_id, city_name, latitude, longitude,
			collect_time, indicator_name, indicator_value, indicator_unit,
			created_at
		FROM samples
		WHERE strategy_id = $1
		  AND ($2::text[] IS NULL OR cardinality($2::text[]) = 0 OR indicator_name = ANY($2))
		  AND ($3::timestamptz IS NULL OR collect_time >= $3)
		  AND ($4::timestamptz IS NULL OR collect_time <= $4)
		ORDER BY collect_time DESC, indicator_name
	`

	rows, err := r.pool.Query(ctx, query, strategyID, indicators, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

// DeleteByStrategyTimeRangeAndIndicators removes a strategy's samples for
// the given indicators inside [from, to].
func (r *PostgresRepository) DeleteByStrategyTimeRangeAndIndicators(ctx context.Context, strategyID string, from, to time.Time, indicators []string) (int64, error) {
	query := `
		DELETE FROM samples
		WHERE strategy_id = $1
		  AND collect_time >= $2
		  AND collect_time <= $3
		  AND ($4::text[] IS NULL OR cardinality($4::text[]) = 0 OR indicator_name = ANY($4))
	`

	tag, err := r.pool.Exec(ctx, query, strategyID, from, to, indicators)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByStrategy removes every sample of a strategy.
func (r *PostgresRepository) DeleteByStrategy(ctx context.Context, strategyID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM samples WHERE strategy_id = $1`, strategyID)
	return err
}

func scanSamples(rows pgx.Rows) ([]*Sample, error) {
	var samples []*Sample
	for rows.Next() {
		var s Sample
		err := rows.Scan(
			&s.ID,
			&s.StrategyID,
			&s.CityName,
			&s.Latitude,
			&s.Longitude,
			&s.CollectTime,
			&s.IndicatorName,
			&s.IndicatorValue,
			&s.IndicatorUnit,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		samples = append(samples, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
