package form

import (
	"strings"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/shopspring/decimal"
)

// Количество знаков после запятой в правом поле после конвертации
const usdtDisplayPlaces = 6

// Input beyond these limits is treated as invalid and falls back to the
// field default. Comparing a value like 1e30000000 allocates 10^exp.
const (
	maxAmountLen      = 64
	maxAmountExponent = 32
)

// Reduce applies one event to the state and returns the new state together
// with the side effects the runtime has to perform. It never blocks and
// never reads the clock.
func Reduce(s Settings, st State, ev Event) (State, []Command) {
	switch ev := ev.(type) {
	case Mounted:
		return st, []Command{armLeftSettle(s)}

	case LeftEdited:
		return reduceLeftEdited(s, st, ev)

	case LeftSettleFired:
		return reduceLeftSettle(s, st)

	case RightEdited:
		return reduceRightEdited(s, st, ev)

	case RightSettleFired:
		return reduceRightSettle(s, st)

	case RightConvertFired:
		return reduceRightConvert(s, st, ev)

	case ShortcutClicked:
		if !ValidPercentage(ev.Percent) {
			return st, nil
		}
		return st, []Command{ArmTimer{
			Timer: TimerShortcut,
			After: s.Shortcut,
			Fire:  ShortcutFired{Percent: ev.Percent},
		}}

	case ShortcutFired:
		return reduceShortcut(s, st, ev)

	case RateArrived:
		return reduceRate(s, st, ev)
	}

	return st, nil
}

func parseAmount(text string) (decimal.Decimal, bool) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxAmountLen {
		return decimal.Decimal{}, false
	}
	v, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if exp := v.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Decimal{}, false
	}
	return v, true
}

func reduceLeftEdited(s Settings, st State, ev LeftEdited) (State, []Command) {
	v, ok := parseAmount(ev.Text)
	if !ok {
		// пустое или некорректное значение сразу заменяется минимумом
		st.Left = domain.NewFieldState(s.Left.Min)
		return st, []Command{armLeftSettle(s)}
	}

	st.Left = domain.FieldState{Raw: ev.Text, Value: v}
	st.Active = domain.SideLeft
	st.LeftFiltered = false
	return st, []Command{armLeftSettle(s)}
}

func reduceLeftSettle(s Settings, st State) (State, []Command) {
	if st.Active != domain.SideLeft {
		return st, nil
	}

	v := st.Left.Value
	reset := false
	// Both underflow and overflow fall back to min, never to max.
	if !s.Left.Contains(v) {
		v = s.Left.Min
		reset = true
	}

	st.Left = domain.NewFieldState(s.Left.RoundToStep(v))
	st.LeftFiltered = true

	cmds := []Command{Settled{Side: domain.SideLeft, Reset: reset}}
	st, more := convertFiltered(s, st)
	return st, append(cmds, more...)
}

// convertFiltered pushes a filtered left value into the right field once a
// usable rate is known. It is the only left to right path.
func convertFiltered(s Settings, st State) (State, []Command) {
	if !st.LeftFiltered || !st.HasRate || !st.Rate.Usable() {
		return st, nil
	}

	usdt := st.Left.Value.Div(st.Rate.Forward)
	st.Right = domain.FieldState{Raw: usdt.StringFixed(usdtDisplayPlaces), Value: usdt}
	st.LeftFiltered = false

	return st, []Command{
		armRightSettle(s),
		EmitQuote{
			Direction: domain.DirectionLeftToRight,
			RUB:       st.Left.Value,
			USDT:      usdt,
			Forward:   st.Rate.Forward,
		},
	}
}

func reduceRightEdited(s Settings, st State, ev RightEdited) (State, []Command) {
	v, ok := parseAmount(ev.Text)
	if !ok {
		st.Right = domain.NewFieldState(decimal.Zero)
		return st, []Command{armRightSettle(s)}
	}

	st.Right = domain.FieldState{Raw: ev.Text, Value: v}
	st.Active = domain.SideRight
	return st, []Command{
		ArmTimer{
			Timer: TimerRightConvert,
			After: s.RightConvert,
			Fire:  RightConvertFired{Value: v},
		},
		armRightSettle(s),
	}
}

func reduceRightSettle(s Settings, st State) (State, []Command) {
	v := st.Right.Value
	reset := false
	// upper bound is never enforced on the right field
	if v.LessThan(s.Right.Min) {
		v = s.Right.Min
		reset = true
	}

	st.Right = domain.NewFieldState(s.Right.RoundToStep(v))
	return st, []Command{Settled{Side: domain.SideRight, Reset: reset}}
}

func reduceRightConvert(s Settings, st State, ev RightConvertFired) (State, []Command) {
	if !st.HasRate || !st.Rate.Usable() {
		return st, nil
	}

	forward := st.Rate.Forward
	rub := ev.Value.Mul(forward)

	if rub.LessThan(s.Left.Min) {
		// Below the floor the pair is pinned to left min and the right
		// value is recomputed from it, overriding what the user typed.
		usdt := s.Left.Min.Div(forward)
		st.Left = domain.NewFieldState(s.Left.Min)
		st.Right = domain.FieldState{Raw: usdt.StringFixed(usdtDisplayPlaces), Value: usdt}
		return st, []Command{
			armRightSettle(s),
			EmitQuote{
				Direction: domain.DirectionFloor,
				RUB:       s.Left.Min,
				USDT:      usdt,
				Forward:   forward,
			},
		}
	}

	rub = s.Left.Clamp(rub)
	st.Left = domain.NewFieldState(rub)
	return st, []Command{EmitQuote{
		Direction: domain.DirectionRightToLeft,
		RUB:       rub,
		USDT:      ev.Value,
		Forward:   forward,
	}}
}

func reduceShortcut(s Settings, st State, ev ShortcutFired) (State, []Command) {
	if !ValidPercentage(ev.Percent) {
		return st, nil
	}

	v := s.Left.Max.Mul(decimal.NewFromInt(int64(ev.Percent))).Div(decimal.NewFromInt(100))
	st.Left = domain.NewFieldState(s.Left.RoundToStep(v))
	st.Active = domain.SideLeft
	st.LeftFiltered = true

	return convertFiltered(s, st)
}

func reduceRate(s Settings, st State, ev RateArrived) (State, []Command) {
	q := ev.Quote.Query
	if s.DiscardStaleRates {
		if q.Seq <= st.RateSeq {
			return st, nil
		}
		if q.Side != st.Active || !q.Amount.Equal(st.ActiveValue()) {
			return st, nil
		}
	}

	st.Rate = ev.Quote.Rate
	st.HasRate = true
	if q.Seq > st.RateSeq {
		st.RateSeq = q.Seq
	}

	cmds := []Command{RateApplied{Quote: ev.Quote}}
	st, more := convertFiltered(s, st)
	return st, append(cmds, more...)
}

func armLeftSettle(s Settings) Command {
	return ArmTimer{Timer: TimerLeftSettle, After: s.LeftSettle, Fire: LeftSettleFired{}}
}

func armRightSettle(s Settings) Command {
	return ArmTimer{Timer: TimerRightSettle, After: s.RightSettle, Fire: RightSettleFired{}}
}
