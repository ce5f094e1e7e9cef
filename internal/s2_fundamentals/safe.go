package s2_fundamentals

import (
	"math"

	"github.com/guregu/null/v6"
)

// finite drops NaN and ±Inf
func finite(v float64) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// div is num/den, undefined when either side is missing or den is zero
func div(num, den null.Float) null.Float {
	if !num.Valid || !den.Valid || den.Float64 == 0 {
		return null.Float{}
	}
	return finite(num.Float64 / den.Float64)
}

func add(a, b null.Float) null.Float {
	if !a.Valid || !b.Valid {
		return null.Float{}
	}
	return finite(a.Float64 + b.Float64)
}

func sub(a, b null.Float) null.Float {
	if !a.Valid || !b.Valid {
		return null.Float{}
	}
	return finite(a.Float64 - b.Float64)
}

func mul(a, b null.Float) null.Float {
	if !a.Valid || !b.Valid {
		return null.Float{}
	}
	return finite(a.Float64 * b.Float64)
}
