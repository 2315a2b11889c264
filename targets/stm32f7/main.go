//go:build stm32f7

package main

import (
	"machine"
	"time"

	"dactick/config"
	"dactick/core"
	"dactick/rtcsource"
)

// hostControl is set once the host issues a DAC command
var hostControl bool

func main() {
	cfg := config.Default()

	core.InitDACCommands()
	initLink(uint32(cfg.Serial.Baud))

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	rtc, err := newRTC(cfg.RTC)
	if err != nil {
		halt(led, "[RTC] "+err.Error())
	}
	ticker := core.NewTicker(rtc)
	core.SetClock(ticker)

	align, _ := cfg.DAC.AlignmentValue()
	trigger, _ := cfg.DAC.TriggerValue()
	ch, _ := cfg.DAC.Channel()

	var dac core.DACDevice
	if ch == 2 {
		dac = core.NewDAC(dacRegisters(), clockRegisters(), core.PA5{})
	} else {
		dac = core.NewDAC(dacRegisters(), clockRegisters(), core.PA4{})
	}
	core.SetDACDevice(dac)

	dac.SetAlignment(align)
	dac.SetTrigger(trigger)
	dac.Enable()
	dac.Buffer(cfg.DAC.BufferValue())
	dac.Start(ch)

	wave := core.NewTriangle(cfg.Waveform.Max, cfg.Waveform.Step)
	heartbeat := core.NewTimer(cfg.Timer.Period(), ticker)

	// rtcFault is set from the first failed read until a read succeeds
	rtcFault := false
	for {
		if !hostControl {
			dac.Write(wave.Next())
		}
		serviceLink()

		if heartbeat.IsReady() {
			led.Set(!led.Get())
		}

		if err := ticker.Err(); err != nil {
			if !rtcFault {
				rtcFault = true
				core.DebugPrintln("[RTC] " + err.Error())
				core.DumpTimingRing()
			}
		} else if rtcFault {
			rtcFault = false
			core.DebugPrintln("[RTC] recovered")
		}
	}
}

// newRTC selects the tick source named in the configuration
func newRTC(c config.RTCConfig) (core.RTC, error) {
	if c.Source == "ds3231" {
		machine.I2C0.Configure(machine.I2CConfig{Frequency: 400_000})
		rtc := rtcsource.NewDS3231(machine.I2C0)
		if err := rtc.Configure(); err != nil {
			return nil, err
		}
		return rtc, nil
	}

	if err := initRTC(c.PreDivA, c.PreDivS); err != nil {
		return nil, err
	}
	return rtcsource.NewSTM32(rtcRegisters(), c.PreDivS), nil
}

// halt stops on a startup fault: the LED blinks fast and msg is resent
// over the link every 800ms. Commands are no longer serviced.
func halt(led machine.Pin, msg string) {
	for i := uint32(0); ; i++ {
		if i%8 == 0 {
			core.DebugPrintln(msg)
		}
		led.Set(!led.Get())
		time.Sleep(100 * time.Millisecond)
	}
}
