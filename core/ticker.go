package core

import "time"

// TickInstant is a point in time in microseconds since midnight
type TickInstant uint64

// TickDuration is a span of time in microseconds
type TickDuration uint64

// Tick conversion factors
const (
	TicksPerSecond = 1_000_000
	TicksPerMinute = 60 * TicksPerSecond
	TicksPerHour   = 60 * TicksPerMinute
	TicksPerDay    = 24 * TicksPerHour
)

// Micros returns a duration of us microseconds
func Micros(us uint64) TickDuration {
	return TickDuration(us)
}

// Millis returns a duration of ms milliseconds
func Millis(ms uint64) TickDuration {
	return TickDuration(ms * 1000)
}

// Seconds returns a duration of s seconds
func Seconds(s uint64) TickDuration {
	return TickDuration(s * TicksPerSecond)
}

// Add returns the instant d after t
func (t TickInstant) Add(d TickDuration) TickInstant {
	return t + TickInstant(d)
}

// Sub returns the duration from u to t. u must not be after t.
func (t TickInstant) Sub(u TickInstant) TickDuration {
	return TickDuration(t - u)
}

// Micros returns the duration in microseconds
func (d TickDuration) Micros() uint64 {
	return uint64(d)
}

// RTC is a wall-clock date-time source
type RTC interface {
	ReadTime() (time.Time, error)
}

// Clock produces tick instants
type Clock interface {
	Now() TickInstant
}

// Ticker converts RTC readings into tick instants.
//
// The result is the time of day in microseconds: it wraps to zero at
// midnight and carries no date. Nothing corrects for that wrap.
type Ticker struct {
	rtc  RTC
	last TickInstant
	err  error
}

// NewTicker takes ownership of an initialized RTC
func NewTicker(rtc RTC) *Ticker {
	return &Ticker{rtc: rtc}
}

// Now reads the RTC and returns the current instant. The RTC is read on
// every call. If the read fails the previous instant is returned and the
// error is kept for Err.
func (t *Ticker) Now() TickInstant {
	dt, err := t.rtc.ReadTime()
	if err != nil {
		t.err = err
		RecordTiming(EvtRTCError, 0, uint32(t.last), 0, 0)
		return t.last
	}
	t.err = nil
	t.last = TimeOfDay(dt)
	return t.last
}

// Err returns the error from the most recent RTC read, if any
func (t *Ticker) Err() error {
	return t.err
}

// TimeOfDay folds the hour, minute, second and microsecond of dt into a
// single microsecond count
func TimeOfDay(dt time.Time) TickInstant {
	h, m, s := dt.Clock()
	micro := dt.Nanosecond() / 1000
	return TickInstant(uint64(h)*TicksPerHour +
		uint64(m)*TicksPerMinute +
		uint64(s)*TicksPerSecond +
		uint64(micro))
}
