package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS price_history (
	id         BIGSERIAL PRIMARY KEY,
	time       TIMESTAMPTZ NOT NULL,
	price      DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func Connect(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse dsn")
	}

	cfg.MaxConns = 4
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.MaxConnLifetime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, errors.Wrap(err, "ping")
	}

	return p, nil
}

func TestConnection(p *pgxpool.Pool, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var now time.Time
	err := p.QueryRow(ctx, "SELECT NOW()").Scan(&now)
	if err != nil {
		return errors.Wrap(err, "test query")
	}
	logger.Info("database connection successful", zap.Time("server_time", now))
	return nil
}

// EnsureSchema creates the price_history table if it does not exist.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	if _, err := p.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "create price_history")
	}
	return nil
}
