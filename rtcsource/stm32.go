package rtcsource

import (
	"time"

	"dactick/core"
)

// STM32 RTC register fields
const (
	RTC_TR_PM  = 1 << 22
	RTC_TR_HT  = 0x3 << 20
	RTC_TR_HU  = 0xF << 16
	RTC_TR_MNT = 0x7 << 12
	RTC_TR_MNU = 0xF << 8
	RTC_TR_ST  = 0x7 << 4
	RTC_TR_SU  = 0xF << 0

	RTC_DR_YT = 0xF << 20
	RTC_DR_YU = 0xF << 16
	RTC_DR_MT = 1 << 12
	RTC_DR_MU = 0xF << 8
	RTC_DR_DT = 0x3 << 4
	RTC_DR_DU = 0xF << 0

	RTC_SSR_SS = 0xFFFF

	// DefaultPreDivS gives 8000 sub-second steps per second from a 1MHz
	// RTC clock with PREDIV_A = 124
	DefaultPreDivS = 7999
)

// STM32Registers are the RTC registers read for a timestamp
type STM32Registers struct {
	TR  core.Register32
	DR  core.Register32
	SSR core.Register32
}

// STM32 decodes the on-chip RTC calendar. It satisfies core.RTC.
//
// The RTC must already be initialised and running in 24 hour mode with
// shadow registers enabled.
type STM32 struct {
	regs    *STM32Registers
	preDivS uint32
}

// NewSTM32 returns a reader using the given synchronous prescaler. Zero
// selects DefaultPreDivS.
func NewSTM32(regs *STM32Registers, preDivS uint32) *STM32 {
	if preDivS == 0 {
		preDivS = DefaultPreDivS
	}
	return &STM32{regs: regs, preDivS: preDivS}
}

// ReadTime reads SSR, TR then DR. Reading SSR freezes the shadow copies of
// TR and DR until DR is read, so the three values belong together.
func (r *STM32) ReadTime() (time.Time, error) {
	ssr := r.regs.SSR.Get() & RTC_SSR_SS
	tr := r.regs.TR.Get()
	dr := r.regs.DR.Get()

	hour := bcd(tr, RTC_TR_HT, 20, RTC_TR_HU, 16)
	if tr&RTC_TR_PM != 0 && hour < 12 {
		hour += 12
	}
	minute := bcd(tr, RTC_TR_MNT, 12, RTC_TR_MNU, 8)
	second := bcd(tr, RTC_TR_ST, 4, RTC_TR_SU, 0)

	year := 2000 + bcd(dr, RTC_DR_YT, 20, RTC_DR_YU, 16)
	month := bcd(dr, RTC_DR_MT, 12, RTC_DR_MU, 8)
	day := bcd(dr, RTC_DR_DT, 4, RTC_DR_DU, 0)

	micro := r.subsecondMicros(ssr)
	return time.Date(year, time.Month(month), day, hour, minute, second, micro*1000, time.UTC), nil
}

// subsecondMicros converts the down-counting SS field into microseconds
// elapsed in the current second
func (r *STM32) subsecondMicros(ss uint32) int {
	if ss > r.preDivS {
		// a shift operation is pending; the second has not rolled yet
		ss = r.preDivS
	}
	return int(uint64(r.preDivS-ss) * 1_000_000 / uint64(r.preDivS+1))
}

func bcd(reg, tensMask uint32, tensPos uint8, unitsMask uint32, unitsPos uint8) int {
	tens := (reg & tensMask) >> tensPos
	units := (reg & unitsMask) >> unitsPos
	return int(tens*10 + units)
}
