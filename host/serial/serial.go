package serial

import (
	"io"

	"dactick/config"
)

// Port is a byte stream to the board. The native implementation uses
// github.com/tarm/serial; tests substitute an in-memory port.
type Port interface {
	io.ReadWriteCloser

	// Flush discards any buffered input
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; USB CDC ports ignore it
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the settings from the built-in configuration
func DefaultConfig(device string) *Config {
	cfg := FromConfig(config.Default().Serial)
	cfg.Device = device
	return cfg
}

// FromConfig converts the serial section of a loaded configuration
func FromConfig(c config.SerialConfig) *Config {
	return &Config{
		Device:      c.Device,
		Baud:        c.Baud,
		ReadTimeout: c.ReadTimeoutMs,
	}
}
