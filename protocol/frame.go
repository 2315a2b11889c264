package protocol

import "errors"

var (
	ErrIncomplete   = errors.New("incomplete frame")
	ErrBadFrame     = errors.New("malformed frame")
	ErrBadCRC       = errors.New("frame CRC mismatch")
	ErrFrameTooLong = errors.New("payload too long for frame")
)

// Frame is a decoded message
type Frame struct {
	Sequence uint8
	Payload  []byte // VLQ-encoded command ID followed by arguments
}

// EncodeFrame appends a complete frame to output. The frame is assembled
// aside and only reaches output once it is known to fit, so a failed encode
// leaves output untouched.
func EncodeFrame(output OutputBuffer, seq uint8, payload func(output OutputBuffer)) error {
	var frame ScratchOutput
	frame.Output([]byte{0, seq})
	if payload != nil {
		payload(&frame)
	}

	length := frame.CurPosition() + MessageTrailerSize
	if length > MessageLengthMax {
		return ErrFrameTooLong
	}
	frame.Update(MessagePositionLen, uint8(length))

	crc := CRC16(frame.Result())
	frame.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
	output.Output(frame.Result())
	return nil
}

// DecodeFrame parses the frame at the front of data.
//
// On success it returns the frame and the number of bytes it occupied. With
// ErrIncomplete nothing is consumed and the caller should wait for more
// bytes. Any other error reports how many bytes to discard to resynchronize:
// everything up to and including the next sync byte.
func DecodeFrame(data []byte) (Frame, int, error) {
	if len(data) > 0 && data[0] == MessageValueSync {
		return Frame{}, 1, ErrBadFrame
	}
	if len(data) < MessageLengthMin {
		return Frame{}, 0, ErrIncomplete
	}

	length := int(data[MessagePositionLen])
	seq := data[MessagePositionSeq]
	if length < MessageLengthMin || length > MessageLengthMax || seq&^MessageSeqMask != MessageDest {
		return Frame{}, resync(data), ErrBadFrame
	}
	if len(data) < length {
		return Frame{}, 0, ErrIncomplete
	}
	if data[length-1] != MessageValueSync {
		return Frame{}, resync(data), ErrBadFrame
	}

	body := data[:length-MessageTrailerSize]
	want := uint16(data[length-3])<<8 | uint16(data[length-2])
	if CRC16(body) != want {
		return Frame{}, length, ErrBadCRC
	}

	return Frame{Sequence: seq, Payload: body[MessageHeaderSize:]}, length, nil
}

// resync returns the offset just past the next sync byte, or len(data)
func resync(data []byte) int {
	for i, b := range data {
		if b == MessageValueSync {
			return i + 1
		}
	}
	return len(data)
}

// CommandHandler handles one decoded command. It decodes its own arguments
// from the front of *args.
type CommandHandler func(cmdID uint16, args *[]byte) error

// Dispatch runs every command packed into a frame payload. It stops at the
// first decode or handler error.
func Dispatch(payload []byte, handler CommandHandler) error {
	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			return err
		}
		if err := handler(uint16(id), &payload); err != nil {
			return err
		}
	}
	return nil
}
