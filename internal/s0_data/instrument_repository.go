package s0_data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/winners/internal/contracts"
)

// InstrumentRepository implements contracts.InstrumentRepository.
// stocks 는 종목 정보, symbols 는 상장 상태 (없으면 active 로 간주)
type InstrumentRepository struct {
	pool *pgxpool.Pool
}

// NewInstrumentRepository creates a new instrument repository
func NewInstrumentRepository(pool *pgxpool.Pool) *InstrumentRepository {
	return &InstrumentRepository{pool: pool}
}

const instrumentColumns = `
	s.ticker,
	COALESCE(s.company_name, ''),
	COALESCE(s.sector, ''),
	COALESCE(s.industry, ''),
	COALESCE(s.exchange, ''),
	COALESCE(sy.is_active, TRUE),
	sy.start_date,
	sy.end_date
`

func scanInstrument(row rowScanner) (contracts.Instrument, error) {
	var i contracts.Instrument
	err := row.Scan(
		&i.Ticker, &i.Name, &i.Sector, &i.Industry, &i.Exchange,
		&i.Active, &i.StartDate, &i.EndDate,
	)
	return i, err
}

// ListInstruments returns every instrument ordered by ticker
func (r *InstrumentRepository) ListInstruments(ctx context.Context) ([]contracts.Instrument, error) {
	query := `
		SELECT ` + instrumentColumns + `
		FROM stocks s
		LEFT JOIN symbols sy ON sy.ticker = s.ticker
		ORDER BY s.ticker
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	defer rows.Close()

	var instruments []contracts.Instrument
	for rows.Next() {
		i, err := scanInstrument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		instruments = append(instruments, i)
	}
	return instruments, rows.Err()
}

// GetInstrument returns one instrument or contracts.ErrNotFound
func (r *InstrumentRepository) GetInstrument(ctx context.Context, ticker string) (*contracts.Instrument, error) {
	query := `
		SELECT ` + instrumentColumns + `
		FROM stocks s
		LEFT JOIN symbols sy ON sy.ticker = s.ticker
		WHERE s.ticker = $1
	`

	i, err := scanInstrument(r.pool.QueryRow(ctx, query, ticker))
	if err != nil {
		return nil, mapNoRows(err, contracts.ErrNotFound)
	}
	return &i, nil
}
