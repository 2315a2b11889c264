package core

import (
	"strings"
	"testing"
	"time"

	"dactick/protocol"
)

// commandHarness wires the DAC command set to a transport the way the
// firmware main loop does
type commandHarness struct {
	t         *testing.T
	regs      *DACRegisters
	dac       *DAC[PA4]
	rtc       *mockRTC
	output    *protocol.ScratchOutput
	transport *protocol.Transport
	seq       uint8
}

func newCommandHarness(t *testing.T) *commandHarness {
	t.Helper()
	globalRegistry = NewCommandRegistry()
	InitDACCommands()

	h := &commandHarness{
		t:      t,
		regs:   NewMemDACRegisters(),
		rtc:    &mockRTC{readings: []time.Time{hms(10, 20, 30, 123_456)}},
		output: protocol.NewScratchOutput(),
		seq:    protocol.MessageDest,
	}
	h.dac = NewDAC(h.regs, NewMemClockRegisters(), PA4{})
	SetDACDevice(h.dac)
	SetClock(NewTicker(h.rtc))

	h.transport = protocol.NewTransport(h.output, DispatchCommand)
	SetResponseSender(h.transport.SendCommand)
	return h
}

// send frames a command by name and returns the responses (acks stripped)
func (h *commandHarness) send(name string, args ...uint32) []protocol.Frame {
	h.t.Helper()
	cmd, ok := globalRegistry.GetCommandByName(name)
	if !ok {
		h.t.Fatalf("Command %s not registered", name)
	}

	in := protocol.NewScratchOutput()
	err := protocol.EncodeFrame(in, h.seq, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(cmd.ID))
		for _, a := range args {
			protocol.EncodeVLQUint(out, a)
		}
	})
	if err != nil {
		h.t.Fatalf("EncodeFrame failed: %v", err)
	}
	h.seq = protocol.NextSequence(h.seq)

	h.output.Reset()
	h.transport.Receive(protocol.NewSliceInputBuffer(in.Result()))
	if h.transport.LastErr != nil {
		h.t.Fatalf("Command %s failed: %v", name, h.transport.LastErr)
	}

	var frames []protocol.Frame
	data := h.output.Result()
	for len(data) > 0 {
		f, n, err := protocol.DecodeFrame(data)
		if err != nil {
			h.t.Fatalf("Bad response frame: %v", err)
		}
		data = data[n:]
		if len(f.Payload) > 0 {
			frames = append(frames, f)
		}
	}
	return frames
}

// decodeResponse checks the response name and returns its arguments
func (h *commandHarness) decodeResponse(f protocol.Frame, name string, n int) []uint32 {
	h.t.Helper()
	payload := f.Payload
	id, _ := protocol.DecodeVLQUint(&payload)
	cmd, _ := globalRegistry.GetCommand(uint16(id))
	if cmd == nil || cmd.Name != name {
		h.t.Fatalf("Expected %s response, got ID %d", name, id)
	}
	args := make([]uint32, n)
	for i := range args {
		v, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			h.t.Fatalf("%s argument %d: %v", name, i, err)
		}
		args[i] = v
	}
	return args
}

func (h *commandHarness) result(frames []protocol.Frame) Status {
	h.t.Helper()
	if len(frames) != 1 {
		h.t.Fatalf("Expected one response, got %d", len(frames))
	}
	return Status(h.decodeResponse(frames[0], "dac_result", 1)[0])
}

func TestDACCommandRegistration(t *testing.T) {
	newCommandHarness(t)

	identify, _ := globalRegistry.GetCommandByName("identify")
	if identify.ID != 1 {
		t.Errorf("identify must have ID 1, got %d", identify.ID)
	}
	for _, name := range []string{"config_dac", "start_dac", "set_dac", "enable_dac", "query_dac", "get_ticks", "dac_result", "dac_state", "ticks", "debug_output"} {
		if _, ok := globalRegistry.GetCommandByName(name); !ok {
			t.Errorf("Command %s not registered", name)
		}
	}
}

func TestStartAndSetDAC(t *testing.T) {
	h := newCommandHarness(t)

	if status := h.result(h.send("start_dac", 1)); status != StatusOK {
		t.Fatalf("start_dac returned %v", status)
	}
	if !h.regs.CR.HasBits(DAC_CR_EN) {
		t.Error("start_dac should enable channel 1")
	}

	if status := h.result(h.send("set_dac", 3000)); status != StatusOK {
		t.Errorf("set_dac returned %v", status)
	}
	if h.regs.DHR12R1.Get() != 3000 {
		t.Errorf("Expected DHR12R1=3000, got %d", h.regs.DHR12R1.Get())
	}

	if status := h.result(h.send("set_dac", 5000)); status != StatusError {
		t.Errorf("Out of range set_dac: expected error, got %v", status)
	}
	if h.regs.DHR12R1.Get() != 3000 {
		t.Errorf("Rejected write changed DHR12R1 to %d", h.regs.DHR12R1.Get())
	}
}

func TestSetDACBeforeStart(t *testing.T) {
	h := newCommandHarness(t)
	if status := h.result(h.send("set_dac", 10)); status != StatusError {
		t.Errorf("Expected error before start_dac, got %v", status)
	}
}

func TestConfigDAC(t *testing.T) {
	h := newCommandHarness(t)

	status := h.result(h.send("config_dac", uint32(Align8R), uint32(TriggerSoftware), uint32(BufferEnabled)))
	if status != StatusOK {
		t.Fatalf("config_dac returned %v", status)
	}
	if h.dac.Alignment() != Align8R || h.dac.Trigger() != TriggerSoftware || h.dac.BufferMode() != BufferEnabled {
		t.Errorf("Settings not applied: align=%d trigger=%d buffer=%d", h.dac.Alignment(), h.dac.Trigger(), h.dac.BufferMode())
	}

	if status := h.result(h.send("config_dac", 3, 0, 0)); status != StatusError {
		t.Errorf("Bad alignment: expected error, got %v", status)
	}
	if h.dac.Trigger() != TriggerSoftware {
		t.Error("Rejected config_dac must not change the trigger")
	}
}

func TestEnableDAC(t *testing.T) {
	h := newCommandHarness(t)

	h.result(h.send("enable_dac", 1))
	if !h.regs.CR.HasBits(DAC_CR_EN) {
		t.Error("enable_dac 1 should set EN1")
	}
	h.result(h.send("enable_dac", 0))
	if h.regs.CR.HasBits(DAC_CR_EN) {
		t.Error("enable_dac 0 should clear EN1")
	}
}

func TestQueryDAC(t *testing.T) {
	h := newCommandHarness(t)
	h.send("start_dac", 1)
	h.regs.DOR1.Set(777)

	frames := h.send("query_dac")
	if len(frames) != 1 {
		t.Fatalf("Expected one response, got %d", len(frames))
	}
	args := h.decodeResponse(frames[0], "dac_state", 4)
	if DACState(args[0]) != DACStateReady || LockState(args[1]) != Unlocked || args[2] != 1 || args[3] != 777 {
		t.Errorf("Unexpected dac_state %v", args)
	}
}

func TestGetTicks(t *testing.T) {
	h := newCommandHarness(t)

	frames := h.send("get_ticks")
	if len(frames) != 1 {
		t.Fatalf("Expected one response, got %d", len(frames))
	}
	args := h.decodeResponse(frames[0], "ticks", 2)
	got := uint64(args[0])<<32 | uint64(args[1])
	if want := uint64(TimeOfDay(hms(10, 20, 30, 123_456))); got != want {
		t.Errorf("Expected %d ticks, got %d", want, got)
	}
}

func TestIdentifyReturnsDictionary(t *testing.T) {
	h := newCommandHarness(t)
	dict := globalRegistry.GetDictionary()

	var got strings.Builder
	for offset := 0; offset < len(dict)+40; offset += 40 {
		frames := h.send("identify", uint32(offset), 40)
		payload := frames[0].Payload
		protocol.DecodeVLQUint(&payload) // identify_response
		off, _ := protocol.DecodeVLQUint(&payload)
		chunk, err := protocol.DecodeVLQBytes(&payload)
		if err != nil {
			t.Fatalf("Chunk at %d: %v", offset, err)
		}
		if int(off) != offset {
			t.Errorf("Expected offset %d, got %d", offset, off)
		}
		if len(chunk) == 0 {
			break
		}
		got.Write(chunk)
	}

	if got.String() != dict {
		t.Errorf("Reassembled dictionary mismatch:\n%s\nvs\n%s", got.String(), dict)
	}
}

func TestIdentifyClampsCount(t *testing.T) {
	h := newCommandHarness(t)
	dict := globalRegistry.GetDictionary()
	if len(dict) <= identifyChunkMax {
		t.Fatalf("Dictionary too short for this test: %d bytes", len(dict))
	}

	testCases := []struct {
		name   string
		offset uint32
		count  uint32
		want   string
	}{
		{"full count", 0, 255, dict[:identifyChunkMax]},
		{"oversized count", 3, 1000, dict[3 : 3+identifyChunkMax]},
		{"tail", uint32(len(dict) - 5), 255, dict[len(dict)-5:]},
		{"past end", uint32(len(dict) + 100), 255, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frames := h.send("identify", tc.offset, tc.count)
			if len(frames) != 1 {
				t.Fatalf("Expected one identify_response, got %d frames", len(frames))
			}
			payload := frames[0].Payload
			protocol.DecodeVLQUint(&payload) // identify_response
			off, _ := protocol.DecodeVLQUint(&payload)
			chunk, err := protocol.DecodeVLQBytes(&payload)
			if err != nil {
				t.Fatalf("Decode chunk: %v", err)
			}
			if off != tc.offset {
				t.Errorf("Expected offset %d, got %d", tc.offset, off)
			}
			if string(chunk) != tc.want {
				t.Errorf("Expected chunk %q, got %q", tc.want, chunk)
			}

			acks := 0
			data := h.output.Result()
			for len(data) > 0 {
				f, n, err := protocol.DecodeFrame(data)
				if err != nil {
					t.Fatalf("Bad frame in output: %v", err)
				}
				if len(f.Payload) == 0 {
					acks++
				}
				data = data[n:]
			}
			if acks != 1 {
				t.Errorf("Expected one ack after the response, got %d", acks)
			}
		})
	}
}

func TestConfigDACRejectsOutOfRange(t *testing.T) {
	testCases := []struct {
		name                   string
		align, trigger, buffer uint32
	}{
		{"alignment wraps to 12L", 0x104, 0, 0},
		{"alignment wraps to 8R", 0x208, 0, 0},
		{"unknown trigger", uint32(Align12R), uint32(TriggerSoftware) + 1, 0},
		{"trigger wraps to none", uint32(Align12R), 0x100, 0},
		{"buffer 2", uint32(Align12R), 0, 2},
		{"buffer wraps to disabled", uint32(Align12R), 0, 0x100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newCommandHarness(t)
			h.send("config_dac", uint32(Align8R), uint32(TriggerTimer6), uint32(BufferEnabled))
			cr := h.regs.CR.Get()

			if status := h.result(h.send("config_dac", tc.align, tc.trigger, tc.buffer)); status != StatusError {
				t.Errorf("Expected StatusError, got %v", status)
			}
			if h.dac.Alignment() != Align8R || h.dac.Trigger() != TriggerTimer6 || h.dac.BufferMode() != BufferEnabled {
				t.Errorf("Rejected config_dac changed settings: align=%d trigger=%d buffer=%d",
					h.dac.Alignment(), h.dac.Trigger(), h.dac.BufferMode())
			}
			if h.regs.CR.Get() != cr {
				t.Errorf("Rejected config_dac changed CR from 0x%08X to 0x%08X", cr, h.regs.CR.Get())
			}
		})
	}
}

func TestStartDACRejectsOutOfRange(t *testing.T) {
	testCases := []uint32{0x100, 0x101, 0x102, 0xFFFF}

	for _, ch := range testCases {
		h := newCommandHarness(t)
		if status := h.result(h.send("start_dac", ch)); status != StatusError {
			t.Errorf("start_dac %d: expected StatusError, got %v", ch, status)
		}
		if h.dac.Channel() != 0 || h.dac.State() != DACStateReset {
			t.Errorf("start_dac %d changed driver: channel=%d state=%d", ch, h.dac.Channel(), h.dac.State())
		}
		if h.regs.CR.HasBits(DAC_CR_EN) {
			t.Errorf("start_dac %d enabled the channel", ch)
		}
	}
}
