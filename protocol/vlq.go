package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// vlqBounds are the half-open ranges [-lo, 3*lo) that fit in 1..4 bytes.
// Anything outside the last range takes 5 bytes.
var vlqBounds = [4]int32{1 << 5, 1 << 12, 1 << 19, 1 << 26}

// EncodeVLQInt writes v using the fewest 7-bit groups that preserve its sign
func EncodeVLQInt(output OutputBuffer, v int32) {
	n := 5
	for i, lo := range vlqBounds {
		if -lo <= v && v < 3*lo {
			n = i + 1
			break
		}
	}

	var buf [5]byte
	for i := 0; i < n; i++ {
		shift := uint(7 * (n - 1 - i))
		buf[i] = byte(v>>shift) & 0x7F
		if i < n-1 {
			buf[i] |= 0x80
		}
	}
	output.Output(buf[:n])
}

// EncodeVLQUint writes an unsigned value; it shares the signed encoding
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt reads one value from the front of *data and advances it
func DecodeVLQInt(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := uint32(buf[0])
	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}

	i := 1
	for c&0x80 != 0 {
		if i >= len(buf) {
			return 0, ErrBufferTooSmall
		}
		if i >= 5 {
			return 0, ErrInvalidVLQ
		}
		c = uint32(buf[i])
		v = v<<7 | c&0x7F
		i++
	}

	*data = buf[i:]
	return int32(v), nil
}

// DecodeVLQUint reads an unsigned value
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}

// EncodeVLQBytes writes a length-prefixed byte string
func EncodeVLQBytes(output OutputBuffer, b []byte) {
	EncodeVLQUint(output, uint32(len(b)))
	output.Output(b)
}

// DecodeVLQBytes reads a length-prefixed byte string. The result aliases *data.
func DecodeVLQBytes(data *[]byte) ([]byte, error) {
	n, err := DecodeVLQUint(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(*data)) < n {
		return nil, ErrBufferTooSmall
	}
	b := (*data)[:n]
	*data = (*data)[n:]
	return b, nil
}
