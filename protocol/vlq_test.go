package protocol

import (
	"bytes"
	"testing"
)

func TestVLQKnownEncodings(t *testing.T) {
	testCases := []struct {
		name     string
		value    int32
		expected []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"largest one byte", 95, []byte{0x5F}},
		{"smallest two byte", 96, []byte{0x80, 0x60}},
		{"minus one", -1, []byte{0x7F}},
		{"minus thirty two", -32, []byte{0x60}},
		{"DAC max", 4095, []byte{0x9F, 0x7F}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output := NewScratchOutput()
			EncodeVLQInt(output, tc.value)
			if !bytes.Equal(output.Result(), tc.expected) {
				t.Errorf("Expected %x, got %x", tc.expected, output.Result())
			}

			data := output.Result()
			decoded, err := DecodeVLQInt(&data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if decoded != tc.value {
				t.Errorf("Expected %d, got %d", tc.value, decoded)
			}
			if len(data) != 0 {
				t.Errorf("Expected all bytes consumed, %d left", len(data))
			}
		})
	}
}

func TestVLQEncodedLength(t *testing.T) {
	testCases := []struct {
		value  int32
		length int
	}{
		{3<<5 - 1, 1},
		{3 << 5, 2},
		{3<<12 - 1, 2},
		{3 << 12, 3},
		{-(1 << 19), 3},
		{-(1 << 19) - 1, 4},
		{3 << 26, 5},
		{-1 << 31, 5},
	}

	for _, tc := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, tc.value)
		if len(output.Result()) != tc.length {
			t.Errorf("Value %d: expected %d bytes, got %d", tc.value, tc.length, len(output.Result()))
		}
		data := output.Result()
		if v, err := DecodeVLQInt(&data); err != nil || v != tc.value {
			t.Errorf("Value %d: decoded %d, err %v", tc.value, v, err)
		}
	}
}

func TestVLQUintMicrosecondTicks(t *testing.T) {
	// A full day of ticks needs 37 bits; callers split it into two words.
	var tick = uint64(23*3_600_000_000 + 59*60_000_000 + 59*1_000_000 + 999_999)

	output := NewScratchOutput()
	EncodeVLQUint(output, uint32(tick>>32))
	EncodeVLQUint(output, uint32(tick))

	data := output.Result()
	high, err := DecodeVLQUint(&data)
	if err != nil {
		t.Fatalf("Decode high failed: %v", err)
	}
	low, err := DecodeVLQUint(&data)
	if err != nil {
		t.Fatalf("Decode low failed: %v", err)
	}
	if got := uint64(high)<<32 | uint64(low); got != tick {
		t.Errorf("Expected %d, got %d", tick, got)
	}
}

func TestVLQBytes(t *testing.T) {
	output := NewScratchOutput()
	EncodeVLQBytes(output, []byte("dac"))
	EncodeVLQUint(output, 7)

	data := output.Result()
	b, err := DecodeVLQBytes(&data)
	if err != nil {
		t.Fatalf("DecodeVLQBytes failed: %v", err)
	}
	if string(b) != "dac" {
		t.Errorf("Expected 'dac', got '%s'", b)
	}
	if v, _ := DecodeVLQUint(&data); v != 7 {
		t.Errorf("Expected trailing value 7, got %d", v)
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	data := []byte{0x80} // Continuation byte but no following byte
	_, err := DecodeVLQInt(&data)
	if err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
	if len(data) != 1 {
		t.Errorf("Expected data untouched on error, got %d bytes", len(data))
	}

	data = []byte{0x05, 'a'}
	if _, err := DecodeVLQBytes(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall for short byte string, got %v", err)
	}
}

func TestVLQTooLong(t *testing.T) {
	data := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}
