package contracts

import (
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

// ReportType distinguishes quarterly from annual filings
type ReportType string

const (
	ReportQuarterly ReportType = "quarterly"
	ReportAnnual    ReportType = "annual"
)

// ParseReportType accepts the stored values as well as provider period codes
// (FY -> annual, Q1..Q4 -> quarterly).
func ParseReportType(s string) (ReportType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ANNUAL", "FY", "A":
		return ReportAnnual, nil
	case "QUARTERLY", "Q", "Q1", "Q2", "Q3", "Q4":
		return ReportQuarterly, nil
	default:
		return "", ValidationError{Field: "report_type", Message: fmt.Sprintf("unknown report type %q", s)}
	}
}

// FundamentalReport is one filed statement for (ticker, period_end_date, report_type).
// Line items are nullable. Capex is stored as an absolute value.
type FundamentalReport struct {
	Ticker        string     `json:"ticker"`
	PeriodEndDate time.Time  `json:"period_end_date"`
	FilingDate    *time.Time `json:"filing_date,omitempty"`
	ReportType    ReportType `json:"report_type"`

	Revenue            null.Float `json:"revenue"`
	EBIT               null.Float `json:"ebit"`
	NetIncome          null.Float `json:"net_income"`
	TotalAssets        null.Float `json:"total_assets"`
	TotalLiabilities   null.Float `json:"total_liabilities"`
	Equity             null.Float `json:"equity"`
	RetainedEarnings   null.Float `json:"retained_earnings"`
	CurrentAssets      null.Float `json:"current_assets"`
	CurrentLiabilities null.Float `json:"current_liabilities"`
	TotalDebt          null.Float `json:"total_debt"`
	CashAndEquiv       null.Float `json:"cash_and_equiv"`
	CFO                null.Float `json:"cfo"`
	CFI                null.Float `json:"cfi"`
	CFF                null.Float `json:"cff"`
	Capex              null.Float `json:"capex"`
	SharesOutstanding  null.Float `json:"shares_outstanding"`
}

// DerivedRatios are computed on demand for one report, never stored.
// An invalid field means the ratio is undefined for this report.
type DerivedRatios struct {
	Ticker        string     `json:"ticker"`
	PeriodEndDate time.Time  `json:"period_end_date"`
	ReportType    ReportType `json:"report_type"`

	// Point-in-time price used for market-derived fields
	PriceDate *time.Time `json:"price_date,omitempty"`
	AdjClose  null.Float `json:"adj_close"`

	MarketCap       null.Float `json:"market_cap"`
	EnterpriseValue null.Float `json:"enterprise_value"`

	// Profitability
	ROE             null.Float `json:"roe"`
	ROA             null.Float `json:"roa"`
	ROIC            null.Float `json:"roic"`
	OperatingMargin null.Float `json:"operating_margin"`
	NetMargin       null.Float `json:"net_margin"`
	AssetTurnover   null.Float `json:"asset_turnover"`

	// Cash flow
	CFOToNetIncome null.Float `json:"cfo_to_net_income"`
	CapexToRevenue null.Float `json:"capex_to_revenue"`
	FreeCashFlow   null.Float `json:"free_cash_flow"`
	FCFMargin      null.Float `json:"fcf_margin"`

	// Leverage
	DebtToEquity      null.Float `json:"debt_to_equity"`
	DebtToAssets      null.Float `json:"debt_to_assets"`
	EquityRatio       null.Float `json:"equity_ratio"`
	FinancialLeverage null.Float `json:"financial_leverage"`
	DebtToEBIT        null.Float `json:"debt_to_ebit"`
	CurrentRatio      null.Float `json:"current_ratio"`

	// Valuation
	PE          null.Float `json:"pe_ratio"`
	PFCF        null.Float `json:"p_fcf"`
	PB          null.Float `json:"pb_ratio"`
	EVToFCF     null.Float `json:"ev_fcf"`
	EVToRevenue null.Float `json:"ev_revenue"`
	EVToEBIT    null.Float `json:"ev_ebit"`
}
