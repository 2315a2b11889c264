package core

// DefaultTimerPeriod is the period used by NewDefaultTimer
const DefaultTimerPeriod = TickDuration(500_000)

// Timer is a polled periodic deadline.
//
// Every time the deadline passes, the next one is set one period after the
// moment the check noticed it, not one period after the old deadline. Missed
// periods are dropped rather than caught up.
type Timer struct {
	clock   Clock
	endTime TickInstant
	period  TickDuration
}

// NewTimer returns a timer whose first deadline is one period from now
func NewTimer(period TickDuration, clock Clock) *Timer {
	return &Timer{
		clock:   clock,
		endTime: clock.Now().Add(period),
		period:  period,
	}
}

// NewDefaultTimer returns a timer with a 500ms period
func NewDefaultTimer(clock Clock) *Timer {
	return NewTimer(DefaultTimerPeriod, clock)
}

// IsReady reports whether the deadline has passed. When it has, the next
// deadline is scheduled one period after the current time.
func (t *Timer) IsReady() bool {
	now := t.clock.Now()
	if now <= t.endTime {
		return false
	}
	t.advance(now)
	return true
}

// BlockingIsReady spins on the clock until the deadline passes, schedules
// the next deadline and returns true. It occupies the calling goroutine for
// the whole wait and never returns false.
func (t *Timer) BlockingIsReady() bool {
	now := t.clock.Now()
	for now <= t.endTime {
		relax()
		now = t.clock.Now()
	}
	t.advance(now)
	return true
}

func (t *Timer) advance(now TickInstant) {
	t.endTime = now.Add(t.period)
	RecordTiming(EvtTimerReady, 0, uint32(now), uint32(t.endTime), uint32(t.period))
}

// SetDuration changes the period. The pending deadline is left alone; the
// new period applies from the next advance.
func (t *Timer) SetDuration(period TickDuration) {
	t.period = period
}

// SetDurationMicros changes the period to us microseconds
func (t *Timer) SetDurationMicros(us uint64) {
	t.period = Micros(us)
}

// Deadline returns the instant the timer is waiting for
func (t *Timer) Deadline() TickInstant {
	return t.endTime
}

// Period returns the period used for the next advance
func (t *Timer) Period() TickDuration {
	return t.period
}
