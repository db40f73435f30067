package ctf

import (
	"errors"
	"io"
)

// maxLEB128Bytes bounds how many continuation bytes a single varint may
// carry. The reference format never emits more than 5 for a 32-bit value;
// this implementation, unlike the reference decoder, rejects a 6th
// continuation byte instead of silently reading past it, resolving the
// spec's open question about an unbounded LEB128 tail.
const maxLEB128Bytes = 5

var errLEB128TooLong = errors.New("ctf: leb128 value exceeds 5 bytes")

// putLEB128 appends the unsigned LEB128 encoding of v to buf.
func putLEB128(buf []byte, v uint32) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// getLEB128 reads an unsigned LEB128 value from r.
func getLEB128(r io.ByteReader) (uint32, error) {
	var val uint32
	for i := 0; i < maxLEB128Bytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		val |= uint32(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return val, nil
		}
	}
	// The 5th byte still carried a continuation bit, which would require a
	// 6th byte and shift past the 32-bit range; reject it rather than
	// silently dropping high bits as the reference decoder does.
	return 0, errLEB128TooLong
}
