package contracts

import "time"

// Instrument is the read-only reference record of a listed equity.
// 종목 마스터는 외부에서 관리되며 여기서는 읽기만 함
type Instrument struct {
	Ticker    string     `json:"ticker"`
	Name      string     `json:"company_name"`
	Sector    string     `json:"sector"`
	Industry  string     `json:"industry"`
	Exchange  string     `json:"exchange"`
	Active    bool       `json:"is_active"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}
