package form

import (
	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/shopspring/decimal"
)

type State struct {
	Left   domain.FieldState
	Right  domain.FieldState
	Active domain.Side

	Rate    domain.Rate
	HasRate bool
	// seq of the last applied rate response
	RateSeq uint64

	// LeftFiltered is set once the left value was validated and rounded and
	// cleared when the right field has been recomputed from it.
	LeftFiltered bool
}

// NewState returns the state a freshly mounted form starts with.
func NewState(s Settings) State {
	return State{
		Left:   domain.NewFieldState(s.Left.Min),
		Right:  domain.NewFieldState(decimal.Zero),
		Active: domain.SideLeft,
	}
}

// ActiveValue is the amount a rate request is made for.
func (s State) ActiveValue() decimal.Decimal {
	if s.Active == domain.SideRight {
		return s.Right.Value
	}
	return s.Left.Value
}
