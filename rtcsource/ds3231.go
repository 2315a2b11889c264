// Package rtcsource provides the real-time clocks the tick counter can run
// from: an external DS3231 on I2C and the STM32 on-chip RTC.
package rtcsource

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ds3231"
)

var ErrRTCStopped = errors.New("rtc oscillator stopped")

// DS3231 reads date-time from a DS3231 module. It satisfies core.RTC.
type DS3231 struct {
	dev ds3231.Device
}

// NewDS3231 wraps a DS3231 on the given bus at its fixed address
func NewDS3231(bus drivers.I2C) *DS3231 {
	return &DS3231{dev: ds3231.New(bus)}
}

// Configure checks the oscillator. It does not change the time.
func (r *DS3231) Configure() error {
	if !r.dev.IsRunning() {
		return ErrRTCStopped
	}
	return nil
}

// ReadTime returns the current date-time. The DS3231 counts whole seconds,
// so the sub-second part is always zero.
func (r *DS3231) ReadTime() (time.Time, error) {
	return r.dev.ReadTime()
}

// SetTime writes dt to the clock registers
func (r *DS3231) SetTime(dt time.Time) error {
	return r.dev.SetTime(dt)
}
