package marketdata

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// SplitRepository persists forward-split events.
type SplitRepository struct {
	pool *pgxpool.Pool
}

// NewSplitRepository creates a new split repository
func NewSplitRepository(pool *pgxpool.Pool) *SplitRepository {
	return &SplitRepository{pool: pool}
}

// GetBySymbol retrieves all split events for a symbol, ascending by date.
func (r *SplitRepository) GetBySymbol(ctx context.Context, symbol string) ([]contracts.SplitEvent, error) {
	query := `
		SELECT split_date, ratio
		FROM data.split_events
		WHERE symbol = $1
		ORDER BY split_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var splits []contracts.SplitEvent
	for rows.Next() {
		var s contracts.SplitEvent
		if err := rows.Scan(&s.Date, &s.Ratio); err != nil {
			return nil, err
		}
		splits = append(splits, s)
	}
	return splits, rows.Err()
}

// Save upserts a single split event.
func (r *SplitRepository) Save(ctx context.Context, symbol string, s contracts.SplitEvent) error {
	query := `
		INSERT INTO data.split_events (symbol, split_date, ratio)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, split_date) DO UPDATE SET
			ratio = EXCLUDED.ratio
	`

	_, err := r.pool.Exec(ctx, query, symbol, s.Date, s.Ratio)
	return err
}

// SaveBatch upserts multiple split events.
func (r *SplitRepository) SaveBatch(ctx context.Context, symbol string, splits []contracts.SplitEvent) error {
	for _, s := range splits {
		if err := r.Save(ctx, symbol, s); err != nil {
			return err
		}
	}
	return nil
}
