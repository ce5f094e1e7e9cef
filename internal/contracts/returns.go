package contracts

import (
	"fmt"
	"time"
)

// RecomputeKind selects how much history a log return recompute touches
type RecomputeKind string

const (
	RecomputeFull        RecomputeKind = "full"
	RecomputeIncremental RecomputeKind = "incremental"
)

// RecomputeMode is the argument of a log return recompute
type RecomputeMode struct {
	Kind       RecomputeKind `json:"mode"`
	WindowDays int           `json:"window_days,omitempty"`
}

// FullRebuild returns the mode that recomputes every ticker's entire history
func FullRebuild() RecomputeMode {
	return RecomputeMode{Kind: RecomputeFull}
}

// Incremental returns the mode that recomputes the trailing window only
func Incremental(windowDays int) RecomputeMode {
	return RecomputeMode{Kind: RecomputeIncremental, WindowDays: windowDays}
}

// Validate rejects unknown modes and non-positive windows
func (m RecomputeMode) Validate() error {
	switch m.Kind {
	case RecomputeFull:
		return nil
	case RecomputeIncremental:
		if m.WindowDays < 1 {
			return ValidationError{Field: "window_days", Message: "must be >= 1"}
		}
		return nil
	default:
		return ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", m.Kind)}
	}
}

// RecomputeReport summarizes one recompute run
type RecomputeReport struct {
	Mode         RecomputeMode `json:"mode"`
	Boundary     *time.Time    `json:"boundary,omitempty"` // incremental 기준일
	Tickers      int           `json:"tickers"`
	Failed       []string      `json:"failed,omitempty"`
	RowsUpserted int64         `json:"rows_upserted"`
	Duration     time.Duration `json:"duration"`
}
