package protocol

// Transport is the firmware side of the link. It decodes frames from an
// input buffer, hands their commands to a handler and frames responses.
//
// Every accepted frame is acknowledged with an empty frame carrying the next
// expected sequence. Frames with the wrong sequence are not executed but are
// still answered, which tells the host what sequence to resend from.
type Transport struct {
	output  OutputBuffer
	handler CommandHandler
	nextSeq uint8

	// Errors counts frames dropped for bad framing or CRC
	Errors uint32
	// LastErr is the most recent handler error
	LastErr error
}

func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		output:  output,
		handler: handler,
		nextSeq: MessageDest,
	}
}

// Receive consumes every complete frame in input
func (t *Transport) Receive(input InputBuffer) {
	for input.Available() > 0 {
		frame, n, err := DecodeFrame(input.Data())
		if err == ErrIncomplete {
			return
		}
		input.Pop(n)
		if err != nil {
			t.Errors++
			continue
		}

		if frame.Sequence == MessageDest && t.nextSeq != MessageDest {
			// host restarted its sequence
			t.nextSeq = MessageDest
		}
		if frame.Sequence == t.nextSeq {
			t.nextSeq = NextSequence(frame.Sequence)
			if err := Dispatch(frame.Payload, t.handler); err != nil {
				t.LastErr = err
			}
		}
		t.ack()
	}
}

func (t *Transport) ack() {
	_ = EncodeFrame(t.output, t.nextSeq, nil)
}

// SendCommand frames a response message
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return EncodeFrame(t.output, t.nextSeq, func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns the transport to its power-on sequence
func (t *Transport) Reset() {
	t.nextSeq = MessageDest
	t.Errors = 0
	t.LastErr = nil
}
