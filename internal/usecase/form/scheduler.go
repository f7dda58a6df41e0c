package form

import "time"

type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The form owns every timer it arms.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func RealScheduler() Scheduler {
	return realScheduler{}
}
