package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

func ParseSide(s string) (Side, error) {
	side := Side(s)
	if !side.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
	return side, nil
}

// Bound is the valid domain and rounding granularity of one field.
// A bound without HasMax has no upper limit.
type Bound struct {
	Min    decimal.Decimal
	Max    decimal.Decimal
	HasMax bool
	Step   decimal.Decimal
}

// Левое поле (RUB)
func DefaultLeftBound() Bound {
	return Bound{
		Min:    decimal.NewFromInt(10000),
		Max:    decimal.NewFromInt(70000000),
		HasMax: true,
		Step:   decimal.NewFromInt(100),
	}
}

// Правое поле (USDT)
func DefaultRightBound() Bound {
	return Bound{
		Min:  decimal.Zero,
		Step: decimal.New(1, -6),
	}
}

func (b Bound) Validate() error {
	if !b.Step.IsPositive() {
		return fmt.Errorf("%w: step must be positive, got %s", ErrInvalidBound, b.Step)
	}
	if b.HasMax && !b.Min.LessThan(b.Max) {
		return fmt.Errorf("%w: min %s must be less than max %s", ErrInvalidBound, b.Min, b.Max)
	}
	return nil
}

// Contains reports whether v lies in [Min, Max].
func (b Bound) Contains(v decimal.Decimal) bool {
	if v.LessThan(b.Min) {
		return false
	}
	if b.HasMax && v.GreaterThan(b.Max) {
		return false
	}
	return true
}

// Clamp pins v into [Min, Max].
func (b Bound) Clamp(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(b.Min) {
		return b.Min
	}
	if b.HasMax && v.GreaterThan(b.Max) {
		return b.Max
	}
	return v
}

// RoundToStep rounds v to the nearest multiple of Step, halves away from zero.
func (b Bound) RoundToStep(v decimal.Decimal) decimal.Decimal {
	return v.Div(b.Step).Round(0).Mul(b.Step)
}

// FieldState holds what the user sees (Raw) and the value the form works with.
// Value is always a valid decimal, Raw may diverge while the user is typing.
type FieldState struct {
	Raw   string
	Value decimal.Decimal
}

func NewFieldState(v decimal.Decimal) FieldState {
	return FieldState{Raw: v.String(), Value: v}
}

// Settled reports whether Raw already shows the canonical form of Value.
func (f FieldState) Settled() bool {
	return f.Raw == f.Value.String()
}
