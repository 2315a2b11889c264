package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a driver or timer event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Channel   uint8  // DAC channel, 0 for timer events
	Tick      uint32 // Low 32 bits of the tick count, 0 if not known
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtDACStart       = 1 // Start completed
	EvtDACWriteReject = 2 // Write refused (bad channel or value out of range)
	EvtDACLockBusy    = 3 // Start found the lock held
	EvtTimerReady     = 4 // Periodic deadline passed
	EvtRTCError       = 5 // RTC read failed, previous tick reused
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  bool = true
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, semihosting, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// SetTimingEnabled turns event capture on or off
func SetTimingEnabled(enabled bool) {
	timingEnabled = enabled
}

// RecordTiming captures an event in the ring buffer. Never blocks.
func RecordTiming(eventType, channel uint8, tick, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Channel:   channel,
		Tick:      tick,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// TimingEvents returns the captured events from oldest to newest
func TimingEvents() []TimingEvent {
	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

func eventName(eventType uint8) string {
	switch eventType {
	case EvtDACStart:
		return "DAC_START"
	case EvtDACWriteReject:
		return "DAC_REJECT!"
	case EvtDACLockBusy:
		return "DAC_BUSY!"
	case EvtTimerReady:
		return "TIMER_READY"
	case EvtRTCError:
		return "RTC_ERROR!"
	}
	return "UNKNOWN"
}

// DumpTimingRing outputs the timing ring buffer (call on shutdown/error)
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + eventName(evt.EventType) +
			" ch=" + itoa(int(evt.Channel)) +
			" tick=" + utoa(evt.Tick) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
