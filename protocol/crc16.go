package protocol

import "github.com/sigurn/crc16"

// The frame trailer uses CRC-16/MCRF4XX: CCITT polynomial, reflected,
// initial value 0xFFFF, no final xor
var crcTable = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// CRC16 computes the checksum carried in the frame trailer
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}
