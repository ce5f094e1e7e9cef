package contracts

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestScreenCriteria_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *ScreenCriteria)
		wantField string
	}{
		{"defaults are valid", func(c *ScreenCriteria) {}, ""},
		{"zero lookback", func(c *ScreenCriteria) { c.LookbackDays = 0 }, "lookback_days"},
		{"negative lookback", func(c *ScreenCriteria) { c.LookbackDays = -5 }, "lookback_days"},
		{"nan price", func(c *ScreenCriteria) { c.MinPrice = math.NaN() }, "min_price"},
		{"infinite market cap", func(c *ScreenCriteria) { c.MinMarketCap = math.Inf(1) }, "min_market_cap"},
		{"percentile above 100", func(c *ScreenCriteria) { c.MinRSPercentile = 100.5 }, "min_rs_percentile"},
		{"percentile below 0", func(c *ScreenCriteria) { c.MinRSPercentile = -1 }, "min_rs_percentile"},
		{"negative cagr allowed", func(c *ScreenCriteria) { c.MinRevenueCAGR = -0.5 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultScreenCriteria()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
			var verr ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestRecomputeMode_Validate(t *testing.T) {
	assert.NoError(t, FullRebuild().Validate())
	assert.NoError(t, Incremental(10).Validate())
	assert.True(t, IsInvalidParameter(Incremental(0).Validate()))
	assert.True(t, IsInvalidParameter(Incremental(-3).Validate()))
	assert.True(t, IsInvalidParameter(RecomputeMode{Kind: "partial"}.Validate()))
}

func TestParseReportType(t *testing.T) {
	tests := []struct {
		input   string
		want    ReportType
		wantErr bool
	}{
		{"annual", ReportAnnual, false},
		{"FY", ReportAnnual, false},
		{"quarterly", ReportQuarterly, false},
		{"Q3", ReportQuarterly, false},
		{" q1 ", ReportQuarterly, false},
		{"H1", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseReportType(tt.input)
			if tt.wantErr {
				assert.True(t, IsInvalidParameter(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeLogReturns_LastWriterWins(t *testing.T) {
	existing := []LogReturn{
		{Ticker: "ACME", TradeDate: date("2024-01-03"), Value: 0.01},
		{Ticker: "ACME", TradeDate: date("2024-01-04"), Value: 0.02},
		{Ticker: "BETA", TradeDate: date("2024-01-03"), Value: -0.01},
	}
	incoming := []LogReturn{
		{Ticker: "ACME", TradeDate: date("2024-01-04"), Value: 0.05},
		{Ticker: "ACME", TradeDate: date("2024-01-05"), Value: 0.03},
	}

	merged := MergeLogReturns(existing, incoming)
	require.Len(t, merged, 4)

	assert.Equal(t, "ACME", merged[0].Ticker)
	assert.Equal(t, 0.01, merged[0].Value)
	assert.Equal(t, 0.05, merged[1].Value)
	assert.Equal(t, 0.03, merged[2].Value)
	assert.Equal(t, "BETA", merged[3].Ticker)

	// merging the same rows twice changes nothing
	assert.Equal(t, merged, MergeLogReturns(merged, incoming))
}

func TestScreenCriteria_CacheKey(t *testing.T) {
	a := DefaultScreenCriteria()
	b := DefaultScreenCriteria()
	assert.Equal(t, a.CacheKey(), b.CacheKey())

	b.MinRSPercentile = 90
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", FormatDate(d))

	_, err = ParseDate("31/03/2024")
	assert.True(t, IsInvalidParameter(err))

	loc := time.FixedZone("EST", -5*3600)
	assert.Equal(t, date("2024-03-31"), Day(time.Date(2024, 3, 31, 22, 0, 0, 0, loc)))
}
