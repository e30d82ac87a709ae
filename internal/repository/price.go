package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/pi-tracker/internal/models"
	"github.com/pkg/errors"
)

// PostgresStore keeps the history in the price_history table, one row per
// sample, ordered by id.
type PostgresStore struct {
	pool *pgxpool.Pool

	mu    sync.Mutex
	count int
	known bool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (r *PostgresStore) Load(ctx context.Context) ([]models.PriceSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.pool.Query(ctx, `SELECT time, price FROM price_history ORDER BY id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "query price history")
	}
	defer rows.Close()

	samples, err := collectSamples(rows)
	if err != nil {
		return nil, err
	}
	r.count, r.known = len(samples), true
	return samples, nil
}

// Save inserts the samples past the persisted row count in one transaction.
func (r *PostgresStore) Save(ctx context.Context, samples []models.PriceSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.known {
		var n int
		if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM price_history`).Scan(&n); err != nil {
			return errors.Wrap(err, "count price history")
		}
		r.count, r.known = n, true
	}
	if len(samples) < r.count {
		return errors.Errorf("history shrank from %d to %d samples", r.count, len(samples))
	}
	tail := samples[r.count:]
	if len(tail) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range tail {
		batch.Queue(`INSERT INTO price_history (time, price) VALUES ($1, $2)`, s.Time, s.Price)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "insert price samples")
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit")
	}
	r.count += len(tail)
	return nil
}

// Latest returns the newest sample, or nil when the table is empty.
func (r *PostgresStore) Latest(ctx context.Context) (*models.PriceSample, error) {
	row := r.pool.QueryRow(ctx, `SELECT time, price FROM price_history ORDER BY id DESC LIMIT 1`)
	var ts time.Time
	var price float64
	if err := row.Scan(&ts, &price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s := models.NewPriceSample(ts.Local(), price)
	return &s, nil
}

// Close is a no-op; the pool is owned by the caller.
func (r *PostgresStore) Close() error { return nil }

// --- scan helpers ---

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectSamples(rows rowsIter) ([]models.PriceSample, error) {
	out := []models.PriceSample{}
	for rows.Next() {
		var ts time.Time
		var price float64
		if err := rows.Scan(&ts, &price); err != nil {
			return nil, err
		}
		out = append(out, models.NewPriceSample(ts.Local(), price))
	}
	return out, rows.Err()
}
