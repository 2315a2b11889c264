package core

// DACDevice is the channel-independent view of a DAC driver that the
// command handlers use. *DAC[PA4] and *DAC[PA5] both satisfy it.
type DACDevice interface {
	Enable() Status
	Disable() Status
	Start(ch uint8) Status
	Write(value uint16) Status
	SetTrigger(trigger Trigger) Status
	Buffer(buffer OutputBuffer) Status
	SetAlignment(align Alignment) Status
	Lock() Status
	Unlock() Status

	Channel() uint8
	State() DACState
	Locked() LockState
	Output() uint16
}

// Global singletons used by the command handlers.
var (
	dacDevice DACDevice
	clock     Clock
)

// SetDACDevice is called by target-specific code to register its driver.
func SetDACDevice(d DACDevice) {
	dacDevice = d
}

// MustDAC returns the configured driver or panics if missing.
func MustDAC() DACDevice {
	if dacDevice == nil {
		panic("DAC driver not configured")
	}
	return dacDevice
}

// SetClock registers the tick source reported by get_ticks.
func SetClock(c Clock) {
	clock = c
}

// MustClock returns the configured clock or panics if missing.
func MustClock() Clock {
	if clock == nil {
		panic("clock not configured")
	}
	return clock
}
