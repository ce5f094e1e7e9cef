package contracts

import (
	"fmt"
	"time"
)

// DataWatermark summarizes one stored table: newest date and row count
type DataWatermark struct {
	Latest time.Time `json:"latest"`
	Rows   int64     `json:"rows"`
}

func (w DataWatermark) String() string {
	return fmt.Sprintf("%s.%d", w.Latest.Format("20060102"), w.Rows)
}

// DataFingerprint identifies the stored inputs a screen reads.
// Loading prices, returns, fundamentals or instruments changes it.
type DataFingerprint struct {
	Prices       DataWatermark `json:"prices"`
	Returns      DataWatermark `json:"returns"`
	Fundamentals DataWatermark `json:"fundamentals"`
	Instruments  int           `json:"instruments"`
}

func (f DataFingerprint) String() string {
	return fmt.Sprintf("px%s_lr%s_fd%s_in%d", f.Prices, f.Returns, f.Fundamentals, f.Instruments)
}
