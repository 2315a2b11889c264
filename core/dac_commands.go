// DAC command set
// Exposes the DAC driver and tick counter over the serial link
package core

import (
	"dactick/protocol"
)

// InitDACCommands registers the DAC command set. The bootstrap pair must be
// registered first so identify always has ID 1.
func InitDACCommands() {
	RegisterResponse("identify_response", "offset=%u data=%.*s")
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)

	RegisterCommand("config_dac", "align=%c trigger=%c buffer=%c", handleConfigDAC)
	RegisterCommand("start_dac", "channel=%c", handleStartDAC)
	RegisterCommand("set_dac", "value=%hu", handleSetDAC)
	RegisterCommand("enable_dac", "enable=%c", handleEnableDAC)
	RegisterCommand("query_dac", "", handleQueryDAC)
	RegisterCommand("get_ticks", "", handleGetTicks)

	RegisterResponse("dac_result", "status=%c")
	RegisterResponse("dac_state", "state=%c lock=%c channel=%c output=%hu")
	RegisterResponse("ticks", "high=%u low=%u")
	RegisterResponse("debug_output", "text=%.*s")
}

// identifyChunkMax is the largest dictionary chunk that fits one response
// frame beside a five byte response ID, a five byte offset and the length
const identifyChunkMax = protocol.MessagePayloadMax - 11

// handleIdentify returns a chunk of the dictionary text
// Format: identify offset=%u count=%c
func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	if count > identifyChunkMax {
		count = identifyChunkMax
	}

	dict := globalRegistry.GetDictionary()
	var chunk []byte
	if offset < uint32(len(dict)) {
		end := offset + count
		if end > uint32(len(dict)) {
			end = uint32(len(dict))
		}
		chunk = []byte(dict[offset:end])
	}

	return SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
}

// handleConfigDAC applies alignment, trigger and buffer settings
// Format: config_dac align=%c trigger=%c buffer=%c
func handleConfigDAC(data *[]byte) error {
	align, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	trigger, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	buffer, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	// all three are checked before any is applied
	if align > 0xFF || trigger > uint32(TriggerSoftware) || buffer > uint32(BufferEnabled) {
		return sendResult(StatusError)
	}
	dac := MustDAC()
	status := dac.SetAlignment(Alignment(align))
	if status == StatusOK {
		dac.SetTrigger(Trigger(trigger))
		dac.Buffer(OutputBuffer(buffer))
	}
	return sendResult(status)
}

// handleStartDAC starts conversion on a channel
// Format: start_dac channel=%c
func handleStartDAC(data *[]byte) error {
	ch, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if ch > 0xFF {
		return sendResult(StatusError)
	}
	return sendResult(MustDAC().Start(uint8(ch)))
}

// handleSetDAC writes a new output value
// Format: set_dac value=%hu
func handleSetDAC(data *[]byte) error {
	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if value > 0xFFFF {
		return sendResult(StatusError)
	}
	return sendResult(MustDAC().Write(uint16(value)))
}

// handleEnableDAC enables or disables the channel output
// Format: enable_dac enable=%c
func handleEnableDAC(data *[]byte) error {
	enable, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if enable != 0 {
		return sendResult(MustDAC().Enable())
	}
	return sendResult(MustDAC().Disable())
}

// handleQueryDAC reports the driver state
func handleQueryDAC(data *[]byte) error {
	dac := MustDAC()
	return SendResponse("dac_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(dac.State()))
		protocol.EncodeVLQUint(output, uint32(dac.Locked()))
		protocol.EncodeVLQUint(output, uint32(dac.Channel()))
		protocol.EncodeVLQUint(output, uint32(dac.Output()))
	})
}

// handleGetTicks reports the current tick count split into two words
func handleGetTicks(data *[]byte) error {
	now := uint64(MustClock().Now())
	return SendResponse("ticks", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(now>>32))
		protocol.EncodeVLQUint(output, uint32(now))
	})
}

func sendResult(status Status) error {
	return SendResponse("dac_result", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(status))
	})
}
