package s2_fundamentals

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/guregu/null/v6"

	"github.com/wonny/winners/internal/contracts"
)

// cagrPeriods is the number of annual periods a 3-year CAGR spans
const cagrPeriods = 4

// RevenueCAGR3Y computes (rev_1 / rev_4)^(1/3) - 1 over the four most recent
// distinct annual periods with positive revenue. Quarterly rows are ignored.
func RevenueCAGR3Y(reports []contracts.FundamentalReport) null.Float {
	qualifying := make([]contracts.FundamentalReport, 0, len(reports))
	for _, r := range reports {
		if r.ReportType == contracts.ReportAnnual && r.Revenue.Valid && r.Revenue.Float64 > 0 {
			qualifying = append(qualifying, r)
		}
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		return qualifying[i].PeriodEndDate.After(qualifying[j].PeriodEndDate)
	})

	// 같은 기간이 중복되면 첫 번째만 사용
	distinct := qualifying[:0]
	for _, r := range qualifying {
		if n := len(distinct); n > 0 && distinct[n-1].PeriodEndDate.Equal(r.PeriodEndDate) {
			continue
		}
		distinct = append(distinct, r)
	}

	if len(distinct) < cagrPeriods {
		return null.Float{}
	}

	ratio := div(distinct[0].Revenue, distinct[cagrPeriods-1].Revenue)
	if !ratio.Valid || ratio.Float64 <= 0 {
		return null.Float{}
	}
	return finite(math.Pow(ratio.Float64, 1.0/float64(cagrPeriods-1)) - 1)
}

// CAGRCalculator reads annual reports for revenue growth
type CAGRCalculator struct {
	fundamentals contracts.FundamentalRepository
}

// NewCAGRCalculator creates a new CAGR calculator
func NewCAGRCalculator(fundamentals contracts.FundamentalRepository) *CAGRCalculator {
	return &CAGRCalculator{fundamentals: fundamentals}
}

// RevenueCAGR3Y computes one ticker's 3-year revenue CAGR
func (c *CAGRCalculator) RevenueCAGR3Y(ctx context.Context, ticker string) (null.Float, error) {
	reports, err := c.fundamentals.ListReports(ctx, ticker)
	if err != nil {
		return null.Float{}, fmt.Errorf("list reports: %w", err)
	}
	return RevenueCAGR3Y(reports), nil
}

// Universe computes the CAGR of every ticker; undefined values are absent
func (c *CAGRCalculator) Universe(ctx context.Context) (map[string]float64, error) {
	annual, err := c.fundamentals.AnnualReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("annual reports: %w", err)
	}

	out := make(map[string]float64, len(annual))
	for ticker, reports := range annual {
		if cagr := RevenueCAGR3Y(reports); cagr.Valid {
			out[ticker] = cagr.Float64
		}
	}
	return out, nil
}
