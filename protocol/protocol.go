// Package protocol implements the framed serial link used to command the DAC
// firmware: VLQ-encoded integers inside CRC16-protected, sync-terminated
// frames.
package protocol

// Version is the firmware protocol version reported in the dictionary
const Version = "0.1.0"

// Frame layout: [len][seq] payload [crc hi][crc lo][sync]
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageValueSync   = 0x7E

	// Sequence byte: high nibble is always MessageDest, low nibble counts
	MessageDest    = 0x10
	MessageSeqMask = 0x0F
)

// NextSequence returns the sequence byte following seq
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
