package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/winners/internal/contracts"
)

// FundamentalRepository implements contracts.FundamentalRepository
// ⭐ SSOT: 재무 데이터 조회는 여기서만
type FundamentalRepository struct {
	pool *pgxpool.Pool
}

// NewFundamentalRepository creates a new fundamentals repository
func NewFundamentalRepository(pool *pgxpool.Pool) *FundamentalRepository {
	return &FundamentalRepository{pool: pool}
}

// fundamentalsSource normalizes provider period codes (FY, Q1..Q4) into report kinds
const fundamentalsSource = `(
	SELECT fr.*,
	       CASE WHEN upper(fr.report_type) IN ('FY', 'ANNUAL', 'A') THEN 'annual' ELSE 'quarterly' END AS kind
	FROM fundamentals fr
) f`

const fundamentalColumns = `
	f.ticker, f.period_end_date, f.filing_date, f.kind,
	f.revenue::float8, f.ebit::float8, f.net_income::float8,
	f.total_assets::float8, f.total_liabilities::float8, f.equity::float8, f.retained_earnings::float8,
	f.current_assets::float8, f.current_liabilities::float8, f.total_debt::float8, f.cash_and_equiv::float8,
	f.cfo::float8, f.cfi::float8, f.cff::float8, ABS(f.capex)::float8, f.shares_outstanding::float8
`

func scanReport(row rowScanner) (contracts.FundamentalReport, error) {
	var (
		f    contracts.FundamentalReport
		kind string
	)
	err := row.Scan(
		&f.Ticker, &f.PeriodEndDate, &f.FilingDate, &kind,
		&f.Revenue, &f.EBIT, &f.NetIncome,
		&f.TotalAssets, &f.TotalLiabilities, &f.Equity, &f.RetainedEarnings,
		&f.CurrentAssets, &f.CurrentLiabilities, &f.TotalDebt, &f.CashAndEquiv,
		&f.CFO, &f.CFI, &f.CFF, &f.Capex, &f.SharesOutstanding,
	)
	f.ReportType = contracts.ReportType(kind)
	return f, err
}

func (r *FundamentalRepository) queryReports(ctx context.Context, query string, args ...any) ([]contracts.FundamentalReport, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fundamentals: %w", err)
	}
	defer rows.Close()

	var reports []contracts.FundamentalReport
	for rows.Next() {
		f, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fundamentals: %w", err)
		}
		reports = append(reports, f)
	}
	return reports, rows.Err()
}

func byTicker(reports []contracts.FundamentalReport) map[string]contracts.FundamentalReport {
	out := make(map[string]contracts.FundamentalReport, len(reports))
	for _, f := range reports {
		out[f.Ticker] = f
	}
	return out
}

// GetReport returns one report or contracts.ErrNotFound
func (r *FundamentalRepository) GetReport(ctx context.Context, ticker string, periodEnd time.Time, reportType contracts.ReportType) (*contracts.FundamentalReport, error) {
	query := `
		SELECT ` + fundamentalColumns + `
		FROM ` + fundamentalsSource + `
		WHERE f.ticker = $1 AND f.period_end_date = $2 AND f.kind = $3
		LIMIT 1
	`

	f, err := scanReport(r.pool.QueryRow(ctx, query, ticker, periodEnd, string(reportType)))
	if err != nil {
		return nil, mapNoRows(err, contracts.ErrNotFound)
	}
	return &f, nil
}

// ListReports returns one ticker's reports, newest period first
func (r *FundamentalRepository) ListReports(ctx context.Context, ticker string) ([]contracts.FundamentalReport, error) {
	return r.queryReports(ctx, `
		SELECT `+fundamentalColumns+`
		FROM `+fundamentalsSource+`
		WHERE f.ticker = $1
		ORDER BY f.period_end_date DESC, f.kind DESC
	`, ticker)
}

// LatestQuarterly returns each ticker's most recent quarterly report
func (r *FundamentalRepository) LatestQuarterly(ctx context.Context) (map[string]contracts.FundamentalReport, error) {
	reports, err := r.queryReports(ctx, `
		SELECT DISTINCT ON (f.ticker) `+fundamentalColumns+`
		FROM `+fundamentalsSource+`
		WHERE f.kind = 'quarterly'
		ORDER BY f.ticker, f.period_end_date DESC
	`)
	if err != nil {
		return nil, err
	}
	return byTicker(reports), nil
}

// LatestPeriod returns each ticker's most recent report; quarterly wins a same-date tie
func (r *FundamentalRepository) LatestPeriod(ctx context.Context) (map[string]contracts.FundamentalReport, error) {
	reports, err := r.queryReports(ctx, `
		SELECT DISTINCT ON (f.ticker) `+fundamentalColumns+`
		FROM `+fundamentalsSource+`
		ORDER BY f.ticker, f.period_end_date DESC, (f.kind = 'quarterly') DESC
	`)
	if err != nil {
		return nil, err
	}
	return byTicker(reports), nil
}

// AnnualReports returns every annual report grouped by ticker, newest first
func (r *FundamentalRepository) AnnualReports(ctx context.Context) (map[string][]contracts.FundamentalReport, error) {
	reports, err := r.queryReports(ctx, `
		SELECT `+fundamentalColumns+`
		FROM `+fundamentalsSource+`
		WHERE f.kind = 'annual'
		ORDER BY f.ticker, f.period_end_date DESC
	`)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]contracts.FundamentalReport)
	for _, f := range reports {
		grouped[f.Ticker] = append(grouped[f.Ticker], f)
	}
	return grouped, nil
}

// FundamentalsWatermark returns MAX(period_end_date) and the row count of fundamentals
func (r *FundamentalRepository) FundamentalsWatermark(ctx context.Context) (contracts.DataWatermark, error) {
	w, err := queryWatermark(ctx, r.pool, `SELECT MAX(period_end_date), COUNT(*) FROM fundamentals`)
	if err != nil {
		return w, fmt.Errorf("fundamentals watermark: %w", err)
	}
	return w, nil
}
