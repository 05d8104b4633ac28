package marketdata

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// PriceRepository persists adjusted daily closes.
// ⭐ SSOT: price persistence lives here only
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetBySymbolAndRange retrieves the price series for a symbol within a range.
func (r *PriceRepository) GetBySymbolAndRange(ctx context.Context, symbol string, from, to time.Time) (contracts.PriceSeries, error) {
	query := `
		SELECT trade_date, adj_close
		FROM data.daily_prices
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series contracts.PriceSeries
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Date, &p.AdjClose); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	return series, rows.Err()
}

// GetLatestDate retrieves the most recent stored session for a symbol.
func (r *PriceRepository) GetLatestDate(ctx context.Context, symbol string) (time.Time, error) {
	query := `
		SELECT trade_date
		FROM data.daily_prices
		WHERE symbol = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var date time.Time
	err := r.pool.QueryRow(ctx, query, symbol).Scan(&date)
	if err != nil {
		return time.Time{}, err
	}
	return date, nil
}

// Save upserts a single price point.
func (r *PriceRepository) Save(ctx context.Context, symbol string, p contracts.PricePoint) error {
	query := `
		INSERT INTO data.daily_prices (symbol, trade_date, adj_close)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			adj_close = EXCLUDED.adj_close
	`

	_, err := r.pool.Exec(ctx, query, symbol, p.Date, p.AdjClose)
	return err
}

// SaveBatch upserts a whole series.
func (r *PriceRepository) SaveBatch(ctx context.Context, symbol string, series contracts.PriceSeries) error {
	for _, p := range series {
		if err := r.Save(ctx, symbol, p); err != nil {
			return err
		}
	}
	return nil
}
