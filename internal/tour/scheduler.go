package tour

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. Implementations must not call f synchronously
// from AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct {
	clock clockwork.Clock
}

// NewScheduler schedules on clock. Pass clockwork.NewRealClock() in
// production and a fake clock in tests.
func NewScheduler(clock clockwork.Clock) Scheduler {
	return clockScheduler{clock: clock}
}

func (s clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return s.clock.AfterFunc(d, f)
}
