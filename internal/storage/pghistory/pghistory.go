// Package pghistory persists price history in Postgres for deployments
// where the monitor runs on ephemeral filesystems.
package pghistory

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tofunori/farewatch/internal/storage"
)

type Storage struct {
	db *pgxpool.Pool
}

func New(connString string) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}

	db, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect pg")
	}

	s := &Storage{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS fare_checks (
  id BIGSERIAL PRIMARY KEY,
  checked_at TIMESTAMPTZ NOT NULL,
  price NUMERIC(12,2) NOT NULL,
  UNIQUE (checked_at)
)`,
		`CREATE INDEX IF NOT EXISTS idx_fare_checks_checked_at ON fare_checks(checked_at)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

func (s *Storage) Load(ctx context.Context) ([]storage.Entry, error) {
	rows, err := s.db.Query(ctx, `
SELECT checked_at, price
FROM fare_checks
ORDER BY checked_at ASC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select fare checks")
	}
	defer rows.Close()

	var out []storage.Entry
	for rows.Next() {
		var e storage.Entry
		var price string
		if err := rows.Scan(&e.CheckedAt, &price); err != nil {
			return nil, errors.Wrap(err, "scan fare check")
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return nil, errors.Wrap(err, "parse fare check price")
		}
		e.Price = d
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Storage) Append(ctx context.Context, e storage.Entry) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO fare_checks (checked_at, price)
VALUES ($1, $2)
ON CONFLICT (checked_at) DO UPDATE SET price = EXCLUDED.price
`, e.CheckedAt.UTC(), e.Price.StringFixed(2))
	if err != nil {
		return errors.Wrap(err, "insert fare check")
	}
	return nil
}

func (s *Storage) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
