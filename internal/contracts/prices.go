package contracts

import (
	"fmt"
	"sort"
	"time"

	"github.com/guregu/null/v6"
)

const dateLayout = "2006-01-02"

// Day truncates t to a UTC calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a trade or period date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses YYYY-MM-DD into a UTC date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ValidationError{Field: "date", Message: fmt.Sprintf("expected YYYY-MM-DD, got %q", s)}
	}
	return t, nil
}

// PriceObservation is one daily bar. Any numeric field may be missing.
type PriceObservation struct {
	Ticker    string     `json:"ticker"`
	TradeDate time.Time  `json:"trade_date"`
	Open      null.Float `json:"open"`
	High      null.Float `json:"high"`
	Low       null.Float `json:"low"`
	Close     null.Float `json:"close"`
	AdjClose  null.Float `json:"adj_close"`
	Volume    null.Int   `json:"volume"`
	Dividend  null.Float `json:"dividend"`
	Split     null.Float `json:"split"`
}

// HasPositiveClose reports whether the close can take part in a log return
func (p PriceObservation) HasPositiveClose() bool {
	return p.Close.Valid && p.Close.Float64 > 0
}

// LogReturn is ln(close_t / close_{t-1}) keyed by (ticker, trade_date)
type LogReturn struct {
	Ticker    string    `json:"ticker"`
	TradeDate time.Time `json:"trade_date"`
	Value     float64   `json:"log_return"`
}

// Key identifies the row for upserts
func (r LogReturn) Key() string {
	return r.Ticker + "|" + FormatDate(r.TradeDate)
}

// MergeLogReturns applies incoming on top of existing, last writer wins per key.
// The result is ordered by ticker, then trade date.
func MergeLogReturns(existing, incoming []LogReturn) []LogReturn {
	merged := make(map[string]LogReturn, len(existing)+len(incoming))
	for _, r := range existing {
		merged[r.Key()] = r
	}
	for _, r := range incoming {
		merged[r.Key()] = r
	}

	out := make([]LogReturn, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	SortLogReturns(out)
	return out
}

// SortLogReturns orders rows by ticker, then trade date
func SortLogReturns(rows []LogReturn) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].TradeDate.Before(rows[j].TradeDate)
	})
}

// ReturnWindow is the aggregate of a ticker's most recent log returns
type ReturnWindow struct {
	Ticker       string
	Sum          float64
	Observations int
}
