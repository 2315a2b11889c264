package protocol

import (
	"bytes"
	"testing"
)

func encodeTestFrame(t *testing.T, seq uint8, values ...uint32) []byte {
	t.Helper()
	output := NewScratchOutput()
	err := EncodeFrame(output, seq, func(out OutputBuffer) {
		for _, v := range values {
			EncodeVLQUint(out, v)
		}
	})
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	return append([]byte(nil), output.Result()...)
}

func TestEncodeFrameLayout(t *testing.T) {
	frame := encodeTestFrame(t, MessageDest, 3, 4095)

	// len, seq, 0x03, 0x9F 0x7F, crc(2), sync
	if len(frame) != 8 {
		t.Fatalf("Expected 8 byte frame, got %d: %x", len(frame), frame)
	}
	if frame[0] != 8 {
		t.Errorf("Expected length byte 8, got %d", frame[0])
	}
	if frame[1] != MessageDest {
		t.Errorf("Expected sequence 0x10, got 0x%02X", frame[1])
	}
	if frame[7] != MessageValueSync {
		t.Errorf("Expected trailing sync, got 0x%02X", frame[7])
	}
	crc := CRC16(frame[:5])
	if frame[5] != byte(crc>>8) || frame[6] != byte(crc) {
		t.Errorf("CRC bytes %x do not match 0x%04X", frame[5:7], crc)
	}
}

func TestDecodeFrame(t *testing.T) {
	raw := encodeTestFrame(t, 0x13, 5, 100)

	frame, n, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if n != len(raw) {
		t.Errorf("Expected %d bytes consumed, got %d", len(raw), n)
	}
	if frame.Sequence != 0x13 {
		t.Errorf("Expected sequence 0x13, got 0x%02X", frame.Sequence)
	}

	payload := frame.Payload
	id, _ := DecodeVLQUint(&payload)
	arg, _ := DecodeVLQUint(&payload)
	if id != 5 || arg != 100 {
		t.Errorf("Expected (5, 100), got (%d, %d)", id, arg)
	}
}

func TestDecodeFrameIncomplete(t *testing.T) {
	raw := encodeTestFrame(t, MessageDest, 1)
	for i := 0; i < len(raw); i++ {
		if _, n, err := DecodeFrame(raw[:i]); err != ErrIncomplete || n != 0 {
			t.Errorf("Prefix %d: expected ErrIncomplete with 0 consumed, got %v (%d)", i, err, n)
		}
	}
}

func TestDecodeFrameResync(t *testing.T) {
	good := encodeTestFrame(t, MessageDest, 2)
	garbage := []byte{0x03, 0x99, 0x01, MessageValueSync}
	data := append(garbage, good...)

	_, n, err := DecodeFrame(data)
	if err != ErrBadFrame {
		t.Fatalf("Expected ErrBadFrame, got %v", err)
	}
	if n != len(garbage) {
		t.Errorf("Expected to skip %d bytes, got %d", len(garbage), n)
	}

	frame, _, err := DecodeFrame(data[n:])
	if err != nil {
		t.Fatalf("Expected clean frame after resync, got %v", err)
	}
	if !bytes.Equal(frame.Payload, []byte{2}) {
		t.Errorf("Unexpected payload %v", frame.Payload)
	}
}

func TestDecodeFrameBadCRC(t *testing.T) {
	raw := encodeTestFrame(t, MessageDest, 9)
	raw[2] ^= 0x01

	_, n, err := DecodeFrame(raw)
	if err != ErrBadCRC {
		t.Errorf("Expected ErrBadCRC, got %v", err)
	}
	if n != len(raw) {
		t.Errorf("Expected whole frame dropped, got %d", n)
	}
}

func TestEncodeFrameTooLong(t *testing.T) {
	output := NewScratchOutput()
	if err := EncodeFrame(output, MessageDest, nil); err != nil {
		t.Fatalf("Ack frame failed: %v", err)
	}
	before := append([]byte(nil), output.Result()...)

	testCases := []struct {
		name string
		size int
	}{
		{"one over", MessagePayloadMax + 1},
		{"larger than scratch", 4*MessageLengthMax + 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := EncodeFrame(output, MessageDest, func(out OutputBuffer) {
				out.Output(make([]byte, tc.size))
			})
			if err != ErrFrameTooLong {
				t.Errorf("Expected ErrFrameTooLong, got %v", err)
			}
			if !bytes.Equal(output.Result(), before) {
				t.Errorf("Failed encode changed output: expected %x, got %x", before, output.Result())
			}
		})
	}

	// the earlier frame still decodes and later frames follow it cleanly
	if err := EncodeFrame(output, MessageDest, func(out OutputBuffer) { EncodeVLQUint(out, 3) }); err != nil {
		t.Fatalf("Encode after failure: %v", err)
	}
	data := output.Result()
	for i := 0; i < 2; i++ {
		_, n, err := DecodeFrame(data)
		if err != nil {
			t.Fatalf("Frame %d: decode failed: %v", i, err)
		}
		data = data[n:]
	}
	if len(data) != 0 {
		t.Errorf("Expected no trailing bytes, got %x", data)
	}
}

func TestEncodeFrameMaxPayload(t *testing.T) {
	output := NewScratchOutput()
	err := EncodeFrame(output, MessageDest, func(out OutputBuffer) {
		out.Output(make([]byte, MessagePayloadMax))
	})
	if err != nil {
		t.Fatalf("Expected full payload to fit, got %v", err)
	}
	if n := len(output.Result()); n != MessageLengthMax {
		t.Errorf("Expected %d byte frame, got %d", MessageLengthMax, n)
	}
	if output.Result()[MessagePositionLen] != MessageLengthMax {
		t.Errorf("Expected length byte %d, got %d", MessageLengthMax, output.Result()[MessagePositionLen])
	}
}
