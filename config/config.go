// Package config loads the JSON settings shared by the firmware and the
// host tool
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"strings"

	"dactick/core"
)

// DefaultJSON is the configuration built into the firmware
//
//go:embed default.json
var DefaultJSON []byte

var (
	ErrUnknownPin       = errors.New("unknown DAC pin")
	ErrUnknownAlignment = errors.New("unknown DAC alignment")
	ErrUnknownTrigger   = errors.New("unknown DAC trigger")
	ErrUnknownRTC       = errors.New("unknown RTC source")
	ErrWaveformRange    = errors.New("waveform max exceeds DAC range")
)

// Config is the complete configuration
type Config struct {
	Serial   SerialConfig   `json:"serial" yaml:"serial"`
	RTC      RTCConfig      `json:"rtc" yaml:"rtc"`
	DAC      DACConfig      `json:"dac" yaml:"dac"`
	Timer    TimerConfig    `json:"timer" yaml:"timer"`
	Waveform WaveformConfig `json:"waveform" yaml:"waveform"`
}

// SerialConfig describes the host side of the serial link
type SerialConfig struct {
	Device        string `json:"device" yaml:"device"`
	Baud          int    `json:"baud" yaml:"baud"`
	ReadTimeoutMs int    `json:"read_timeout_ms" yaml:"read_timeout_ms"`
}

// RTCConfig selects the tick source: "stm32" or "ds3231". The prescalers
// apply to the on-chip RTC clocked at 1MHz.
type RTCConfig struct {
	Source  string `json:"source" yaml:"source"`
	PreDivA uint32 `json:"prediv_a" yaml:"prediv_a"`
	PreDivS uint32 `json:"prediv_s" yaml:"prediv_s"`
}

// DACConfig holds the initial DAC settings. Pin is PA4 or PA5, alignment
// 12R, 12L or 8R, trigger none, software, timer2 to timer8 or exti9.
type DACConfig struct {
	Pin       string `json:"pin" yaml:"pin"`
	Alignment string `json:"alignment" yaml:"alignment"`
	Trigger   string `json:"trigger" yaml:"trigger"`
	Buffer    bool   `json:"buffer" yaml:"buffer"`
}

// TimerConfig sets the main loop service period
type TimerConfig struct {
	PeriodMicros uint64 `json:"period_us" yaml:"period_us"`
}

// WaveformConfig shapes the triangle test pattern
type WaveformConfig struct {
	Max  uint16 `json:"max" yaml:"max"`
	Step uint16 `json:"step" yaml:"step"`
}

// LoadConfig parses a JSON configuration and fills in missing values
func LoadConfig(jsonData []byte) (*Config, error) {
	var config Config

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}
	return finish(&config)
}

func finish(config *Config) (*Config, error) {
	applyDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns the built-in configuration
func Default() *Config {
	config, err := LoadConfig(DefaultJSON)
	if err != nil {
		panic("config: bad default.json: " + err.Error())
	}
	return config
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *Config) {
	if config.Serial.Device == "" {
		config.Serial.Device = "/dev/ttyACM0"
	}
	if config.Serial.Baud == 0 {
		config.Serial.Baud = 115200
	}
	if config.Serial.ReadTimeoutMs == 0 {
		config.Serial.ReadTimeoutMs = 500
	}

	if config.RTC.Source == "" {
		config.RTC.Source = "stm32"
	}
	if config.RTC.PreDivA == 0 {
		config.RTC.PreDivA = 124
	}
	if config.RTC.PreDivS == 0 {
		config.RTC.PreDivS = 7999
	}

	if config.DAC.Pin == "" {
		config.DAC.Pin = "PA4"
	}
	if config.DAC.Alignment == "" {
		config.DAC.Alignment = "12R"
	}
	if config.DAC.Trigger == "" {
		config.DAC.Trigger = "none"
	}

	if config.Timer.PeriodMicros == 0 {
		config.Timer.PeriodMicros = uint64(core.DefaultTimerPeriod)
	}

	if config.Waveform.Max == 0 {
		config.Waveform.Max = core.DAC_MAX_12BIT
		if align, _ := config.DAC.AlignmentValue(); align == core.Align8R {
			config.Waveform.Max = core.DAC_MAX_8BIT
		}
	}
	if config.Waveform.Step == 0 {
		config.Waveform.Step = 1
	}
}

// Validate checks that every named setting is one the driver knows
func (c *Config) Validate() error {
	if _, err := c.DAC.Channel(); err != nil {
		return err
	}
	align, err := c.DAC.AlignmentValue()
	if err != nil {
		return err
	}
	if _, err := c.DAC.TriggerValue(); err != nil {
		return err
	}
	switch c.RTC.Source {
	case "stm32", "ds3231":
	default:
		return ErrUnknownRTC
	}
	limit := uint16(core.DAC_MAX_12BIT)
	if align == core.Align8R {
		limit = core.DAC_MAX_8BIT
	}
	if c.Waveform.Max > limit {
		return ErrWaveformRange
	}
	return nil
}

// Channel returns the DAC channel number for the configured pin
func (d DACConfig) Channel() (uint8, error) {
	switch strings.ToUpper(d.Pin) {
	case "PA4":
		return 1, nil
	case "PA5":
		return 2, nil
	}
	return 0, ErrUnknownPin
}

// AlignmentValue maps the alignment name to its register offset
func (d DACConfig) AlignmentValue() (core.Alignment, error) {
	switch strings.ToUpper(d.Alignment) {
	case "12R":
		return core.Align12R, nil
	case "12L":
		return core.Align12L, nil
	case "8R":
		return core.Align8R, nil
	}
	return 0, ErrUnknownAlignment
}

var triggerNames = map[string]core.Trigger{
	"none":     core.TriggerNone,
	"timer6":   core.TriggerTimer6,
	"timer8":   core.TriggerTimer8,
	"timer7":   core.TriggerTimer7,
	"timer5":   core.TriggerTimer5,
	"timer2":   core.TriggerTimer2,
	"timer4":   core.TriggerTimer4,
	"exti9":    core.TriggerExternal,
	"software": core.TriggerSoftware,
}

// TriggerValue maps the trigger name to a core.Trigger
func (d DACConfig) TriggerValue() (core.Trigger, error) {
	t, ok := triggerNames[strings.ToLower(d.Trigger)]
	if !ok {
		return 0, ErrUnknownTrigger
	}
	return t, nil
}

// BufferValue returns the output buffer setting
func (d DACConfig) BufferValue() core.OutputBuffer {
	if d.Buffer {
		return core.BufferEnabled
	}
	return core.BufferDisabled
}

// Period returns the timer period as a tick duration
func (t TimerConfig) Period() core.TickDuration {
	return core.Micros(t.PeriodMicros)
}
