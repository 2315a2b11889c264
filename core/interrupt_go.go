//go:build !tinygo

package core

// State stands in for runtime/interrupt.State on the host
type State uintptr

// disableInterrupts does nothing on the host; tests drive the driver from
// a single goroutine
func disableInterrupts() State {
	return 0
}

func restoreInterrupts(state State) {}
