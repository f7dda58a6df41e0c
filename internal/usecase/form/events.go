package form

import (
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/shopspring/decimal"
)

// Event is anything that can change the form: user edits, timer fires and
// rate responses. Events are applied one at a time by Reduce.
type Event interface {
	event()
}

type Mounted struct{}

type LeftEdited struct {
	Text string
}

type RightEdited struct {
	Text string
}

type LeftSettleFired struct{}

type RightSettleFired struct{}

// RightConvertFired carries the value that was typed when the timer was armed.
type RightConvertFired struct {
	Value decimal.Decimal
}

type ShortcutClicked struct {
	Side    domain.Side
	Percent int
}

type ShortcutFired struct {
	Percent int
}

type RateArrived struct {
	Quote domain.RateQuote
}

func (Mounted) event()           {}
func (LeftEdited) event()        {}
func (RightEdited) event()       {}
func (LeftSettleFired) event()   {}
func (RightSettleFired) event()  {}
func (RightConvertFired) event() {}
func (ShortcutClicked) event()   {}
func (ShortcutFired) event()     {}
func (RateArrived) event()       {}

type TimerID string

const (
	TimerLeftSettle   TimerID = "left_settle"
	TimerRightSettle  TimerID = "right_settle"
	TimerRightConvert TimerID = "right_convert"
	TimerShortcut     TimerID = "shortcut"
)

// Command is a side effect requested by Reduce and carried out by the Form.
type Command interface {
	command()
}

// ArmTimer (re)starts the timer. A pending timer with the same ID is cancelled.
type ArmTimer struct {
	Timer TimerID
	After time.Duration
	Fire  Event
}

// EmitQuote reports a completed conversion between the two fields.
type EmitQuote struct {
	Direction domain.ConversionDirection
	RUB       decimal.Decimal
	USDT      decimal.Decimal
	Forward   decimal.Decimal
}

// RateApplied is issued when a rate response replaced the stored rate.
type RateApplied struct {
	Quote domain.RateQuote
}

// Settled is issued when a debounced validation committed a field.
type Settled struct {
	Side  domain.Side
	Reset bool
}

func (ArmTimer) command()    {}
func (EmitQuote) command()   {}
func (RateApplied) command() {}
func (Settled) command()     {}

var percentages = map[int]bool{25: true, 50: true, 75: true, 100: true}

func ValidPercentage(p int) bool {
	return percentages[p]
}
