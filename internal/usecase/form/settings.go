package form

import (
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
)

// Settings is the fixed configuration of one form instance.
type Settings struct {
	Left  domain.Bound
	Right domain.Bound

	LeftSettle   time.Duration
	RightSettle  time.Duration
	RightConvert time.Duration
	Shortcut     time.Duration

	// DiscardStaleRates drops rate responses that were overtaken by a newer
	// response or whose query no longer matches the active field.
	DiscardStaleRates bool
}

func DefaultSettings() Settings {
	return Settings{
		Left:         domain.DefaultLeftBound(),
		Right:        domain.DefaultRightBound(),
		LeftSettle:   1000 * time.Millisecond,
		RightSettle:  1000 * time.Millisecond,
		RightConvert: 1200 * time.Millisecond,
		Shortcut:     1200 * time.Millisecond,
	}
}
