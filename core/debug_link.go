package core

import "dactick/protocol"

// debugChunkMax is the most text one debug_output frame carries beside a
// five byte response ID and the length
const debugChunkMax = protocol.MessagePayloadMax - 6

// SendDebugText sends s to the host as debug_output responses, splitting it
// across frames as needed. flush runs after every frame so a long dump never
// outgrows the link's output buffer.
func SendDebugText(s string, flush func()) error {
	text := []byte(s)
	for {
		n := len(text)
		if n > debugChunkMax {
			n = debugChunkMax
		}
		chunk := text[:n]
		err := SendResponse("debug_output", func(output protocol.OutputBuffer) {
			protocol.EncodeVLQBytes(output, chunk)
		})
		if err != nil {
			return err
		}
		if flush != nil {
			flush()
		}
		text = text[n:]
		if len(text) == 0 {
			return nil
		}
	}
}

// LinkDebugWriter returns a DebugWriter that forwards messages over the
// command link
func LinkDebugWriter(flush func()) DebugWriter {
	return func(s string) {
		_ = SendDebugText(s, flush)
	}
}
