//go:build stm32f7

package main

import (
	"machine"

	"dactick/core"
	"dactick/protocol"
)

var (
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	// Debug counters
	messagesReceived uint32
	msgerrors        uint32
)

// initLink sets up the command link on the board's default UART
func initLink(baud uint32) {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: baud})

	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()
	transport = protocol.NewTransport(outputBuffer, handleCommand)
	core.SetResponseSender(transport.SendCommand)

	core.SetDebugWriter(core.LinkDebugWriter(flushLink))
	core.SetDebugEnabled(true)
}

// serviceLink moves received bytes through the transport and flushes
// responses. It never blocks on the UART.
func serviceLink() {
	for machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			msgerrors++
			break
		}
		if !inputBuffer.PushByte(b) {
			msgerrors++
			break
		}
	}

	if inputBuffer.Available() > 0 {
		data := inputBuffer.Data()
		in := protocol.NewSliceInputBuffer(data)
		transport.Receive(in)
		messagesReceived++
		if consumed := len(data) - in.Available(); consumed > 0 {
			inputBuffer.Pop(consumed)
		}
	}

	flushLink()
}

// flushLink writes any framed responses to the UART
func flushLink() {
	if result := outputBuffer.Result(); len(result) > 0 {
		machine.Serial.Write(result)
		outputBuffer.Reset()
	}
}

// handleCommand dispatches a received command. Any command that changes
// the DAC output hands control to the host and stops the sweep.
func handleCommand(cmdID uint16, data *[]byte) error {
	if cmd, ok := core.GetGlobalRegistry().GetCommand(cmdID); ok {
		switch cmd.Name {
		case "config_dac", "start_dac", "set_dac", "enable_dac":
			hostControl = true
		}
	}
	return core.DispatchCommand(cmdID, data)
}
