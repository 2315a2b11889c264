package core

// Register32 is the register accessor the core drivers use.
// TinyGo's *volatile.Register32 satisfies it, so targets hand the memory
// mapped registers straight in; tests substitute an in-memory register.
type Register32 interface {
	Get() uint32
	Set(value uint32)
	SetBits(value uint32)
	ClearBits(value uint32)
	HasBits(value uint32) bool
	ReplaceBits(value uint32, mask uint32, pos uint8)
}

// DACRegisters is the subset of the DAC register block the driver touches.
type DACRegisters struct {
	CR      Register32 // control
	SWTRIGR Register32 // software trigger
	DHR12R1 Register32 // channel 1, 12-bit right aligned
	DHR12L1 Register32 // channel 1, 12-bit left aligned
	DHR8R1  Register32 // channel 1, 8-bit right aligned
	DHR12R2 Register32 // channel 2, 12-bit right aligned
	DHR12L2 Register32 // channel 2, 12-bit left aligned
	DHR8R2  Register32 // channel 2, 8-bit right aligned
	DOR1    Register32 // channel 1 output
	DOR2    Register32 // channel 2 output
}

// ClockRegisters holds the bus clock-enable registers of the reset and
// clock control block.
type ClockRegisters struct {
	APB1ENR Register32
	AHB1ENR Register32
}

// Clock enable bits
const (
	RCC_APB1ENR_DACEN   = 1 << 29
	RCC_AHB1ENR_GPIOAEN = 1 << 0
)

// DAC_CR fields for channel 1. Channel 2 uses the same layout shifted by
// the pin's enable bit offset (16).
const (
	DAC_CR_EN       = 1 << 0
	DAC_CR_BOFF     = 1 << 1
	DAC_CR_TEN      = 1 << 2
	DAC_CR_TSEL_Pos = 3
	DAC_CR_TSEL_Msk = 0x7
)

// MemRegister is a plain in-memory Register32. Targets without a hardware
// block (host builds, tests) use it in place of memory mapped registers.
type MemRegister struct {
	Reg uint32
}

func (r *MemRegister) Get() uint32 {
	return r.Reg
}

func (r *MemRegister) Set(value uint32) {
	r.Reg = value
}

func (r *MemRegister) SetBits(value uint32) {
	r.Reg |= value
}

func (r *MemRegister) ClearBits(value uint32) {
	r.Reg &^= value
}

func (r *MemRegister) HasBits(value uint32) bool {
	return r.Reg&value != 0
}

func (r *MemRegister) ReplaceBits(value uint32, mask uint32, pos uint8) {
	r.Reg = r.Reg&^(mask<<pos) | value<<pos
}

// NewMemDACRegisters returns a DAC register block backed by memory.
func NewMemDACRegisters() *DACRegisters {
	return &DACRegisters{
		CR:      &MemRegister{},
		SWTRIGR: &MemRegister{},
		DHR12R1: &MemRegister{},
		DHR12L1: &MemRegister{},
		DHR8R1:  &MemRegister{},
		DHR12R2: &MemRegister{},
		DHR12L2: &MemRegister{},
		DHR8R2:  &MemRegister{},
		DOR1:    &MemRegister{},
		DOR2:    &MemRegister{},
	}
}

// NewMemClockRegisters returns clock-enable registers backed by memory.
func NewMemClockRegisters() *ClockRegisters {
	return &ClockRegisters{
		APB1ENR: &MemRegister{},
		AHB1ENR: &MemRegister{},
	}
}
