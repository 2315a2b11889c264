//go:build !tinygo

package core

import "runtime"

// relax yields while BlockingIsReady spins so a clock driven from another
// goroutine can make progress
func relax() {
	runtime.Gosched()
}
