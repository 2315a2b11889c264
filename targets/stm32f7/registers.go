//go:build stm32f7

package main

import (
	"errors"
	"runtime/volatile"
	"unsafe"

	"dactick/core"
	"dactick/rtcsource"
)

// STM32F7 peripheral memory map
const (
	rccBase = 0x40023800
	pwrBase = 0x40007000
	dacBase = 0x40007400
	rtcBase = 0x40002800
)

// RCC, PWR and RTC bits used during bring-up
const (
	rccCR_HSEON         = 1 << 16
	rccCR_HSERDY        = 1 << 17
	rccCFGR_RTCPRE_Pos  = 16
	rccCFGR_RTCPRE_Msk  = 0x1F
	rccBDCR_RTCSEL_Pos  = 8
	rccBDCR_RTCSEL_Msk  = 0x3
	rccBDCR_RTCSEL_HSE  = 0x3
	rccBDCR_RTCEN       = 1 << 15
	rccAPB1ENR_PWREN    = 1 << 28
	pwrCR1_DBP          = 1 << 8
	rtcISR_INITS        = 1 << 4
	rtcISR_RSF          = 1 << 5
	rtcISR_INITF        = 1 << 6
	rtcISR_INIT         = 1 << 7
	rtcPRER_PREDIVA_Pos = 16
)

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

var (
	rccCR   = reg(rccBase + 0x00)
	rccCFGR = reg(rccBase + 0x08)
	rccBDCR = reg(rccBase + 0x70)
	pwrCR1  = reg(pwrBase + 0x00)

	rtcTR   = reg(rtcBase + 0x00)
	rtcDR   = reg(rtcBase + 0x04)
	rtcISR  = reg(rtcBase + 0x0C)
	rtcPRER = reg(rtcBase + 0x10)
	rtcWPR  = reg(rtcBase + 0x24)
	rtcSSR  = reg(rtcBase + 0x28)
)

func dacRegisters() *core.DACRegisters {
	return &core.DACRegisters{
		CR:      reg(dacBase + 0x00),
		SWTRIGR: reg(dacBase + 0x04),
		DHR12R1: reg(dacBase + 0x08),
		DHR12L1: reg(dacBase + 0x0C),
		DHR8R1:  reg(dacBase + 0x10),
		DHR12R2: reg(dacBase + 0x14),
		DHR12L2: reg(dacBase + 0x18),
		DHR8R2:  reg(dacBase + 0x1C),
		DOR1:    reg(dacBase + 0x2C),
		DOR2:    reg(dacBase + 0x30),
	}
}

func clockRegisters() *core.ClockRegisters {
	return &core.ClockRegisters{
		APB1ENR: reg(rccBase + 0x40),
		AHB1ENR: reg(rccBase + 0x30),
	}
}

func rtcRegisters() *rtcsource.STM32Registers {
	return &rtcsource.STM32Registers{
		TR:  rtcTR,
		DR:  rtcDR,
		SSR: rtcSSR,
	}
}

var (
	errHSETimeout  = errors.New("HSE oscillator did not start")
	errRTCInitMode = errors.New("RTC did not enter init mode")
	errRTCSync     = errors.New("RTC shadow registers did not sync")
)

// readyPolls bounds every bring-up wait
const readyPolls = 1_000_000

func waitBits(r *volatile.Register32, bits uint32) bool {
	for i := 0; i < readyPolls; i++ {
		if r.HasBits(bits) {
			return true
		}
	}
	return false
}

// initRTC clocks the RTC from HSE/8 (1MHz) and programs the prescalers.
// A calendar that survived reset on the backup domain is left running.
func initRTC(preDivA, preDivS uint32) error {
	clockRegisters().APB1ENR.SetBits(rccAPB1ENR_PWREN)
	pwrCR1.SetBits(pwrCR1_DBP)

	if !rccCR.HasBits(rccCR_HSERDY) {
		rccCR.SetBits(rccCR_HSEON)
		if !waitBits(rccCR, rccCR_HSERDY) {
			return errHSETimeout
		}
	}
	rccCFGR.ReplaceBits(8, rccCFGR_RTCPRE_Msk, rccCFGR_RTCPRE_Pos)
	rccBDCR.ReplaceBits(rccBDCR_RTCSEL_HSE, rccBDCR_RTCSEL_Msk, rccBDCR_RTCSEL_Pos)
	rccBDCR.SetBits(rccBDCR_RTCEN)

	if rtcISR.HasBits(rtcISR_INITS) {
		return nil
	}

	rtcWPR.Set(0xCA)
	rtcWPR.Set(0x53)
	rtcISR.SetBits(rtcISR_INIT)
	if !waitBits(rtcISR, rtcISR_INITF) {
		rtcWPR.Set(0xFF)
		return errRTCInitMode
	}
	rtcPRER.Set(preDivA<<rtcPRER_PREDIVA_Pos | preDivS)
	rtcTR.Set(0)
	rtcDR.Set(0x2101) // 2000-01-01, Monday
	rtcISR.ClearBits(rtcISR_INIT)
	rtcWPR.Set(0xFF)

	rtcISR.ClearBits(rtcISR_RSF)
	if !waitBits(rtcISR, rtcISR_RSF) {
		return errRTCSync
	}
	return nil
}
