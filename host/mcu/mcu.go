package mcu

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gonuts/logger"

	"dactick/host/serial"
	"dactick/protocol"
)

const (
	identifyResponseID = 0
	identifyID         = 1
	identifyChunk      = 40

	debugOutputName = "debug_output"
)

var (
	ErrNotConnected = errors.New("not connected to board")
	ErrNoDictionary = errors.New("dictionary not loaded")
	ErrTimeout      = errors.New("timed out waiting for response")
)

// Response is a decoded message from the board
type Response struct {
	Name   string
	Params map[string]uint32
	Data   []byte
}

// MCU is the host end of the serial link to the DAC board
type MCU struct {
	msg     *logger.Logger
	port    serial.Port
	seq     uint8
	rx      []byte
	timeout time.Duration
	onDebug func(text string)

	dictionary     *Dictionary
	dictionaryData []byte
}

// NewMCU uses an already open port
func NewMCU(port serial.Port) *MCU {
	m := &MCU{
		msg:     logger.New("mcu"),
		port:    port,
		seq:     protocol.MessageDest,
		timeout: time.Second,
	}
	m.onDebug = func(text string) { m.msg.Infof("board: %s\n", text) }
	return m
}

// SetDebugHandler replaces the default handling of debug_output text,
// which is to log it
func (m *MCU) SetDebugHandler(fn func(text string)) {
	m.onDebug = fn
}

// Connect opens the serial port described by cfg
func Connect(cfg *serial.Config) (*MCU, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", cfg.Device, err)
	}
	return NewMCU(port), nil
}

// SetTimeout sets how long Call waits for a response
func (m *MCU) SetTimeout(d time.Duration) {
	m.timeout = d
}

func (m *MCU) Close() error {
	if m.port == nil {
		return nil
	}
	err := m.port.Close()
	m.port = nil
	return err
}

// RetrieveDictionary fetches the dictionary text with identify requests
func (m *MCU) RetrieveDictionary() error {
	var buf bytes.Buffer
	for {
		chunk, err := m.identify(uint32(buf.Len()), identifyChunk)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", buf.Len(), err)
		}
		if len(chunk) == 0 {
			break
		}
		buf.Write(chunk)
	}

	dict, err := ParseDictionary(buf.String())
	if err != nil {
		return fmt.Errorf("failed to parse dictionary: %w", err)
	}
	m.dictionaryData = buf.Bytes()
	m.dictionary = dict
	m.msg.Infof("dictionary: %d bytes, %d messages\n", buf.Len(), len(dict.Messages))
	return nil
}

func (m *MCU) identify(offset uint32, count uint8) ([]byte, error) {
	err := m.send(identifyID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, uint32(count))
	})
	if err != nil {
		return nil, err
	}

	var payload []byte
	for {
		payload, err = m.receive()
		if err != nil {
			return nil, err
		}
		var cmdID uint32
		cmdID, err = protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, err
		}
		if cmdID == identifyResponseID {
			break
		}
		// only identify_response has a fixed ID
		m.msg.Debugf("skipping message ID %d before dictionary\n", cmdID)
	}
	respOffset, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, err
	}
	if respOffset != offset {
		return nil, fmt.Errorf("offset mismatch: expected %d, got %d", offset, respOffset)
	}
	return protocol.DecodeVLQBytes(&payload)
}

// Dictionary returns the parsed dictionary, or nil before RetrieveDictionary
func (m *MCU) Dictionary() *Dictionary {
	return m.dictionary
}

// DictionaryRaw returns the dictionary text as received
func (m *MCU) DictionaryRaw() []byte {
	return m.dictionaryData
}

// SendCommand sends a command by name without waiting for a response
func (m *MCU) SendCommand(name string, args ...uint32) error {
	if m.dictionary == nil {
		return ErrNoDictionary
	}
	msg, ok := m.dictionary.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	if len(args) != len(msg.Params) {
		return fmt.Errorf("%s takes %d arguments, got %d", name, len(msg.Params), len(args))
	}
	return m.send(msg.ID, func(output protocol.OutputBuffer) {
		for _, a := range args {
			protocol.EncodeVLQUint(output, a)
		}
	})
}

// Call sends a command and waits for the next response
func (m *MCU) Call(name string, args ...uint32) (*Response, error) {
	if err := m.SendCommand(name, args...); err != nil {
		return nil, err
	}
	return m.ReceiveResponse()
}

// ReceiveResponse waits for the next response and decodes it with the
// dictionary. debug_output text met on the way is passed to the debug
// handler.
func (m *MCU) ReceiveResponse() (*Response, error) {
	if m.dictionary == nil {
		return nil, ErrNoDictionary
	}
	for {
		payload, err := m.receive()
		if err != nil {
			return nil, err
		}
		resp, err := m.decode(payload)
		if err != nil {
			return nil, err
		}
		if resp.Name != debugOutputName {
			return resp, nil
		}
		if m.onDebug != nil {
			m.onDebug(string(resp.Data))
		}
	}
}

func (m *MCU) decode(payload []byte) (*Response, error) {
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, err
	}
	msg, ok := m.dictionary.ByID(uint16(id))
	if !ok {
		return nil, fmt.Errorf("unknown response ID %d", id)
	}

	resp := &Response{Name: msg.Name, Params: make(map[string]uint32)}
	for _, p := range msg.Params {
		if p.IsBytes() {
			resp.Data, err = protocol.DecodeVLQBytes(&payload)
		} else {
			resp.Params[p.Name], err = protocol.DecodeVLQUint(&payload)
		}
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", msg.Name, p.Name, err)
		}
	}
	return resp, nil
}

func (m *MCU) send(cmdID uint16, args func(output protocol.OutputBuffer)) error {
	if m.port == nil {
		return ErrNotConnected
	}
	out := protocol.NewScratchOutput()
	err := protocol.EncodeFrame(out, m.seq, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
	if err != nil {
		return err
	}
	if _, err := m.port.Write(out.Result()); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	m.seq = protocol.NextSequence(m.seq)
	return nil
}

// receive returns the payload of the next frame that is not a bare ack
func (m *MCU) receive() ([]byte, error) {
	if m.port == nil {
		return nil, ErrNotConnected
	}
	deadline := time.Now().Add(m.timeout)
	buf := make([]byte, 64)
	for {
		for len(m.rx) > 0 {
			frame, n, err := protocol.DecodeFrame(m.rx)
			if err == protocol.ErrIncomplete {
				break
			}
			m.rx = m.rx[n:]
			if err != nil {
				m.msg.Errorf("dropped %d bytes: %v\n", n, err)
				continue
			}
			if len(frame.Payload) == 0 {
				continue
			}
			return frame.Payload, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		n, err := m.port.Read(buf)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read failed: %w", err)
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		m.rx = append(m.rx, buf[:n]...)
	}
}
