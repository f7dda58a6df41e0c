package form

import (
	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Progress maps v onto [0, 100] relative to the bound. The result is not
// clamped, a value outside the bound yields a percentage outside the range.
func Progress(v decimal.Decimal, b domain.Bound) float64 {
	span := b.Max.Sub(b.Min)
	if !b.HasMax || !span.IsPositive() {
		return 0
	}
	return v.Sub(b.Min).Div(span).Mul(hundred).InexactFloat64()
}
