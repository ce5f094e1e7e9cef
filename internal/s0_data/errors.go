package s0_data

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/winners/internal/contracts"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// mapNoRows converts pgx.ErrNoRows into the given sentinel
func mapNoRows(err error, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

// queryWatermark scans a single "SELECT MAX(date), COUNT(*)" row
func queryWatermark(ctx context.Context, pool *pgxpool.Pool, query string) (contracts.DataWatermark, error) {
	var (
		w      contracts.DataWatermark
		latest *time.Time
	)
	if err := pool.QueryRow(ctx, query).Scan(&latest, &w.Rows); err != nil {
		return contracts.DataWatermark{}, err
	}
	if latest != nil {
		w.Latest = *latest
	}
	return w, nil
}
