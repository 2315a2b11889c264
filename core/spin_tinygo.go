//go:build tinygo

package core

// relax is empty on the MCU; the spin loop just re-reads the RTC
func relax() {}
