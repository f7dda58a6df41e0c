package domain

import "errors"

var (
	ErrInvalidSide       = errors.New("invalid side")
	ErrInvalidBound      = errors.New("invalid bound")
	ErrInvalidPercentage = errors.New("invalid percentage")
	ErrRateUnavailable   = errors.New("rate unavailable")
	ErrBadRateResponse   = errors.New("bad rate response")
	ErrFormClosed        = errors.New("form closed")
)
