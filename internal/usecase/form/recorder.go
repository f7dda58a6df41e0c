package form

import (
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
)

// Recorder receives the form's operational counters.
type Recorder interface {
	RecordEdit(side domain.Side, valid bool)
	RecordSettle(side domain.Side, reset bool)
	RecordConversion(direction domain.ConversionDirection)
	RecordShortcut(side domain.Side, percent int)
	RecordRateFetch(outcome string, duration time.Duration)
	RecordRate(forward float64)
	RecordProgress(progress float64)
}

const (
	RateOutcomeOK    = "ok"
	RateOutcomeError = "error"
	RateOutcomeStale = "stale"
)

type nopRecorder struct{}

func (nopRecorder) RecordEdit(domain.Side, bool)                {}
func (nopRecorder) RecordSettle(domain.Side, bool)              {}
func (nopRecorder) RecordConversion(domain.ConversionDirection) {}
func (nopRecorder) RecordShortcut(domain.Side, int)             {}
func (nopRecorder) RecordRateFetch(string, time.Duration)       {}
func (nopRecorder) RecordRate(float64)                          {}
func (nopRecorder) RecordProgress(float64)                      {}
