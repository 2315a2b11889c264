// DAC (Digital to Analog Converter) driver
// Drives one channel of the on-chip converter through its register block
package core

import "errors"

// Status is the result of a DAC operation
type Status uint8

const (
	StatusOK      Status = 0x00
	StatusError   Status = 0x01
	StatusBusy    Status = 0x02
	StatusTimeout Status = 0x03
)

var (
	ErrDACError   = errors.New("dac: error")
	ErrDACBusy    = errors.New("dac: busy")
	ErrDACTimeout = errors.New("dac: timeout")
)

// Err returns nil for StatusOK and the matching sentinel error otherwise
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusBusy:
		return ErrDACBusy
	case StatusTimeout:
		return ErrDACTimeout
	default:
		return ErrDACError
	}
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	case StatusBusy:
		return "busy"
	case StatusTimeout:
		return "timeout"
	}
	return "status(" + utoa(uint32(s)) + ")"
}

// DACState is the driver lifecycle state
type DACState uint8

// DAC states. Timeout and Error are reserved for fault handling and are
// never entered by the current operations.
const (
	DACStateReset   DACState = 0x00
	DACStateReady   DACState = 0x01
	DACStateBusy    DACState = 0x02
	DACStateTimeout DACState = 0x03
	DACStateError   DACState = 0x04
)

// LockState guards start-class operations against re-entry
type LockState uint8

const (
	Unlocked LockState = 0x00
	Locked   LockState = 0x01
)

// Alignment selects the data holding register format
type Alignment uint8

const (
	Align12R Alignment = 0x00 // 12-bit right aligned
	Align12L Alignment = 0x04 // 12-bit left aligned
	Align8R  Alignment = 0x08 // 8-bit right aligned
)

// Trigger selects the event that latches the holding register into the output
type Trigger uint8

const (
	TriggerNone Trigger = iota
	TriggerTimer2
	TriggerTimer4
	TriggerTimer5
	TriggerTimer6
	TriggerTimer7
	TriggerTimer8
	TriggerExternal
	TriggerSoftware
)

// tsel returns the DAC_CR TSEL field value for a trigger source
func (t Trigger) tsel() (uint32, bool) {
	switch t {
	case TriggerTimer6:
		return 0, true
	case TriggerTimer8:
		return 1, true
	case TriggerTimer7:
		return 2, true
	case TriggerTimer5:
		return 3, true
	case TriggerTimer2:
		return 4, true
	case TriggerTimer4:
		return 5, true
	case TriggerExternal:
		return 6, true // EXTI line 9
	case TriggerSoftware:
		return 7, true
	}
	return 0, false
}

// OutputBuffer selects whether the output amplifier is used
type OutputBuffer uint8

const (
	BufferDisabled OutputBuffer = 0
	BufferEnabled  OutputBuffer = 1
)

// Maximum values accepted by Write for each data width
const (
	DAC_MAX_12BIT = 0x0FFF
	DAC_MAX_8BIT  = 0x00FF
)

// DACPin binds an analog pin to a converter channel. Implementations are
// zero-size markers, so the binding is resolved at compile time.
type DACPin interface {
	Channel() uint8
	EnableBit() uint32  // EN bit position in DAC_CR
	TriggerBit() uint32 // SWTRIG bit position in DAC_SWTRIGR
}

// PA4 is the channel 1 output pin
type PA4 struct{}

func (PA4) Channel() uint8 { return 1 }
func (PA4) EnableBit() uint32 { return 0 }
func (PA4) TriggerBit() uint32 { return 0 }

// PA5 is the channel 2 output pin
type PA5 struct{}

func (PA5) Channel() uint8 { return 2 }
func (PA5) EnableBit() uint32 { return 16 }
func (PA5) TriggerBit() uint32 { return 1 }

// DAC owns the converter register block and one output pin
type DAC[P DACPin] struct {
	regs *DACRegisters
	pin  P

	ch      uint8
	state   DACState
	locked  LockState
	trigger Trigger
	align   Alignment
	buffer  OutputBuffer
}

// NewDAC enables the converter and GPIOA bus clocks and returns a driver in
// the reset state. The clock registers are updated read-modify-write so other
// peripherals' enable bits are preserved. The channel's output buffer is
// switched off (BOFF set) to match the recorded BufferDisabled.
func NewDAC[P DACPin](regs *DACRegisters, rcc *ClockRegisters, pin P) *DAC[P] {
	rcc.APB1ENR.SetBits(RCC_APB1ENR_DACEN)
	rcc.AHB1ENR.SetBits(RCC_AHB1ENR_GPIOAEN)
	if !rcc.AHB1ENR.HasBits(RCC_AHB1ENR_GPIOAEN) {
		DebugPrintln("[DAC] GPIOA clock did not enable")
	}
	regs.CR.SetBits(DAC_CR_BOFF << pin.EnableBit())

	return &DAC[P]{
		regs:    regs,
		pin:     pin,
		state:   DACStateReset,
		locked:  Unlocked,
		trigger: TriggerNone,
		align:   Align12R,
		buffer:  BufferDisabled,
	}
}

// Enable sets the channel enable bit
func (d *DAC[P]) Enable() Status {
	d.regs.CR.SetBits(1 << d.pin.EnableBit())
	return StatusOK
}

// Disable clears the channel enable bit
func (d *DAC[P]) Disable() Status {
	d.regs.CR.ClearBits(1 << d.pin.EnableBit())
	return StatusOK
}

// Start records the active channel, enables the converter and issues a
// software trigger. The sequence runs under the driver lock; if the lock is
// already held Start returns StatusBusy without touching the hardware.
func (d *DAC[P]) Start(ch uint8) Status {
	if d.Lock() != StatusOK {
		RecordTiming(EvtDACLockBusy, d.pin.Channel(), 0, uint32(ch), 0)
		return StatusBusy
	}
	defer d.Unlock()

	d.ch = ch
	d.state = DACStateBusy

	d.Enable()
	d.regs.SWTRIGR.Set(1 << d.pin.TriggerBit())

	d.state = DACStateReady
	RecordTiming(EvtDACStart, d.pin.Channel(), 0, uint32(ch), 0)
	return StatusOK
}

// Write loads value into the data holding register selected by the active
// channel and alignment. Values wider than the alignment allows, and an
// unset or unknown channel, are rejected with StatusError and no register is
// written.
func (d *DAC[P]) Write(value uint16) Status {
	reg, data, ok := d.target(value)
	if !ok {
		RecordTiming(EvtDACWriteReject, d.ch, 0, uint32(value), uint32(d.align))
		return StatusError
	}
	reg.Set(data)
	return StatusOK
}

// target resolves the holding register and encoded data for a write
func (d *DAC[P]) target(value uint16) (Register32, uint32, bool) {
	var limit uint16
	switch d.align {
	case Align12R, Align12L:
		limit = DAC_MAX_12BIT
	case Align8R:
		limit = DAC_MAX_8BIT
	default:
		return nil, 0, false
	}
	if value > limit {
		return nil, 0, false
	}

	data := uint32(value)
	if d.align == Align12L {
		data <<= 4
	}

	switch d.ch {
	case 1:
		switch d.align {
		case Align12R:
			return d.regs.DHR12R1, data, true
		case Align12L:
			return d.regs.DHR12L1, data, true
		default:
			return d.regs.DHR8R1, data, true
		}
	case 2:
		switch d.align {
		case Align12R:
			return d.regs.DHR12R2, data, true
		case Align12L:
			return d.regs.DHR12L2, data, true
		default:
			return d.regs.DHR8R2, data, true
		}
	}
	return nil, 0, false
}

// SetTrigger selects the conversion trigger. TriggerNone clears TEN so a
// write to the holding register reaches the output on the next APB cycle.
// Unknown sources are rejected with StatusError.
func (d *DAC[P]) SetTrigger(trigger Trigger) Status {
	if trigger > TriggerSoftware {
		return StatusError
	}
	d.trigger = trigger
	shift := d.pin.EnableBit()

	tsel, ok := trigger.tsel()
	if !ok {
		d.regs.CR.ClearBits(DAC_CR_TEN << shift)
		return StatusOK
	}
	d.regs.CR.ReplaceBits(tsel, DAC_CR_TSEL_Msk, uint8(DAC_CR_TSEL_Pos+shift))
	d.regs.CR.SetBits(DAC_CR_TEN << shift)
	return StatusOK
}

// Buffer enables or disables the output buffer. The hardware bit is
// inverted: BOFF set means the buffer is off.
func (d *DAC[P]) Buffer(buffer OutputBuffer) Status {
	if buffer > BufferEnabled {
		return StatusError
	}
	d.buffer = buffer
	boff := uint32(DAC_CR_BOFF) << d.pin.EnableBit()
	if buffer == BufferEnabled {
		d.regs.CR.ClearBits(boff)
	} else {
		d.regs.CR.SetBits(boff)
	}
	return StatusOK
}

// SetAlignment selects the data format used by Write
func (d *DAC[P]) SetAlignment(align Alignment) Status {
	switch align {
	case Align12R, Align12L, Align8R:
		d.align = align
		return StatusOK
	}
	return StatusError
}

// Lock acquires the driver lock. The test and set run with interrupts
// masked so a handler cannot take the lock in between.
func (d *DAC[P]) Lock() Status {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if d.locked == Locked {
		return StatusBusy
	}
	d.locked = Locked
	return StatusOK
}

// Unlock releases the driver lock. Unlocking an unlocked driver is allowed.
func (d *DAC[P]) Unlock() Status {
	d.locked = Unlocked
	return StatusOK
}

// Output returns the value currently driven on the active channel
func (d *DAC[P]) Output() uint16 {
	switch d.ch {
	case 1:
		return uint16(d.regs.DOR1.Get() & DAC_MAX_12BIT)
	case 2:
		return uint16(d.regs.DOR2.Get() & DAC_MAX_12BIT)
	}
	return 0
}

// Pin returns the channel number fixed by the pin binding
func (d *DAC[P]) Pin() uint8 { return d.pin.Channel() }

// Channel returns the channel recorded by the last Start (0 before Start)
func (d *DAC[P]) Channel() uint8 { return d.ch }

func (d *DAC[P]) State() DACState { return d.state }
func (d *DAC[P]) Locked() LockState { return d.locked }
func (d *DAC[P]) Trigger() Trigger { return d.trigger }
func (d *DAC[P]) Alignment() Alignment { return d.align }
func (d *DAC[P]) BufferMode() OutputBuffer { return d.buffer }
