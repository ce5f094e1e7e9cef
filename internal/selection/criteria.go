package selection

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/winners/internal/contracts"
)

// Criteria parameter names shared by the HTTP query and CLI flags
const (
	ParamMinPrice        = "min_price"
	ParamMinMarketCap    = "min_market_cap"
	ParamLookbackDays    = "lookback_days"
	ParamLookbackMonths  = "lookback_months"
	ParamMinEBIT         = "min_ebit"
	ParamMinRevenueCAGR  = "min_revenue_cagr"
	ParamMinRSPercentile = "min_rs_percentile"
)

// ParseCriteria overlays textual parameters on defaults. Absent or blank
// values keep the default. Thresholds are parsed as decimals, so NaN and
// Inf never reach the screen.
func ParseCriteria(get func(name string) string, defaults contracts.ScreenCriteria) (contracts.ScreenCriteria, error) {
	c := defaults

	thresholds := []struct {
		name string
		dst  *float64
	}{
		{ParamMinPrice, &c.MinPrice},
		{ParamMinMarketCap, &c.MinMarketCap},
		{ParamMinEBIT, &c.MinEBIT},
		{ParamMinRevenueCAGR, &c.MinRevenueCAGR},
		{ParamMinRSPercentile, &c.MinRSPercentile},
	}
	for _, th := range thresholds {
		raw := strings.TrimSpace(get(th.name))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return c, contracts.ValidationError{Field: th.name, Message: "must be a decimal number"}
		}
		*th.dst = d.InexactFloat64()
	}

	days := strings.TrimSpace(get(ParamLookbackDays))
	months := strings.TrimSpace(get(ParamLookbackMonths))
	switch {
	case days != "" && months != "":
		return c, contracts.ValidationError{Field: ParamLookbackDays, Message: "use either lookback_days or lookback_months"}
	case days != "":
		n, err := strconv.Atoi(days)
		if err != nil {
			return c, contracts.ValidationError{Field: ParamLookbackDays, Message: "must be an integer"}
		}
		c.LookbackDays = n
	case months != "":
		n, err := strconv.Atoi(months)
		if err != nil || n < 1 {
			return c, contracts.ValidationError{Field: ParamLookbackMonths, Message: "must be a positive integer"}
		}
		c.LookbackDays = n * contracts.TradingDaysPerMonth
	}

	return c, c.Validate()
}
