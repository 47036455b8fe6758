// Package store mirrors kept transaction rows into Postgres when a
// DATABASE_URL is configured. The CSV file remains the source of truth; the
// mirror exists for ad-hoc querying across runs.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coordscan/pkg/core/pipeline"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS ownership_transactions (
	id                  BIGSERIAL PRIMARY KEY,
	run_id              TEXT NOT NULL,
	buyer               TEXT NOT NULL,
	issuer              TEXT NOT NULL,
	ticker              TEXT,
	trade_date          TEXT,
	filing_date         TEXT,
	price               TEXT,
	price_min_from_note TEXT,
	price_max_from_note TEXT,
	shares              TEXT,
	transaction_code    TEXT,
	accession_url       TEXT,
	xml_url             TEXT,
	inserted_at         TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store is one run's connection to the mirror table.
type Store struct {
	pool  *pgxpool.Pool
	runID string
}

// New connects, ensures the mirror table exists and tags every inserted row
// with the run identifier.
func New(ctx context.Context, databaseURL, runID string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure mirror table: %w", err)
	}
	return &Store{pool: pool, runID: runID}, nil
}

// WriteRows copies one day batch into the mirror table. Implements
// pipeline.RowSink.
func (s *Store) WriteRows(ctx context.Context, rows []pipeline.Row) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"ownership_transactions"},
		[]string{
			"run_id", "buyer", "issuer", "ticker", "trade_date", "filing_date",
			"price", "price_min_from_note", "price_max_from_note",
			"shares", "transaction_code", "accession_url", "xml_url",
		},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				s.runID, r.Buyer, r.Issuer, r.Ticker, r.TradeDate, r.FilingDate,
				r.Price, r.PriceMinNote, r.PriceMaxNote,
				r.Shares, r.Code, r.AccessionURL, r.XMLURL,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to mirror rows: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
