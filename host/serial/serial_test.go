package serial

import (
	"testing"

	"dactick/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB1")
	if cfg.Device != "/dev/ttyUSB1" {
		t.Errorf("Expected device override, got %q", cfg.Device)
	}
	if cfg.Baud != 115200 {
		t.Errorf("Expected baud 115200, got %d", cfg.Baud)
	}
	if cfg.ReadTimeout != 500 {
		t.Errorf("Expected 500ms timeout, got %d", cfg.ReadTimeout)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.SerialConfig{Device: "COM3", Baud: 9600, ReadTimeoutMs: 20})
	if cfg.Device != "COM3" || cfg.Baud != 9600 || cfg.ReadTimeout != 20 {
		t.Errorf("Unexpected conversion: %+v", cfg)
	}
}

func TestOpenNilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}
