package marketdata

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgewatch/eventstudy/internal/contracts"
)

// EarningsRepository persists announcement records, one per symbol and date.
// ⭐ SSOT: earnings persistence lives here only
type EarningsRepository struct {
	pool *pgxpool.Pool
}

// NewEarningsRepository creates a new earnings repository
func NewEarningsRepository(pool *pgxpool.Pool) *EarningsRepository {
	return &EarningsRepository{pool: pool}
}

// GetBySymbolAndRange retrieves records for a symbol within a range,
// ascending by announcement date.
func (r *EarningsRepository) GetBySymbolAndRange(ctx context.Context, symbol string, from, to time.Time) ([]contracts.EarningsRecord, error) {
	query := `
		SELECT announce_date, timing, eps, revenue, provenance
		FROM data.earnings_records
		WHERE symbol = $1 AND announce_date BETWEEN $2 AND $3
		ORDER BY announce_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []contracts.EarningsRecord
	for rows.Next() {
		var rec contracts.EarningsRecord
		if err := rows.Scan(&rec.Date, &rec.Timing, &rec.EPS, &rec.Revenue, &rec.Provenance); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Save upserts a single record. Later writes win field-by-field so a
// reconciled record can overwrite a bare vendor one.
func (r *EarningsRepository) Save(ctx context.Context, symbol string, rec contracts.EarningsRecord) error {
	query := `
		INSERT INTO data.earnings_records (symbol, announce_date, timing, eps, revenue, provenance)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol, announce_date) DO UPDATE SET
			timing     = EXCLUDED.timing,
			eps        = EXCLUDED.eps,
			revenue    = EXCLUDED.revenue,
			provenance = EXCLUDED.provenance
	`

	_, err := r.pool.Exec(ctx, query, symbol, rec.Date, rec.Timing, rec.EPS, rec.Revenue, rec.Provenance)
	return err
}

// SaveBatch upserts multiple records.
func (r *EarningsRepository) SaveBatch(ctx context.Context, symbol string, records []contracts.EarningsRecord) error {
	for _, rec := range records {
		if err := r.Save(ctx, symbol, rec); err != nil {
			return err
		}
	}
	return nil
}
