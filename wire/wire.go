// Package wire defines the byte layout of the editor protocol: command tags
// and big-endian field encode/decode helpers. Nothing here touches a socket;
// transport and protocol build on top of it.
package wire

import (
	"encoding/binary"
	"io"
	"math"
)

// Command tags, server -> client unless noted.
const (
	TagSetKey     byte = 0
	TagDeleteKey  byte = 1
	TagGetTrack   byte = 2 // client -> server
	TagSetRow     byte = 3 // both directions
	TagPause      byte = 4
	TagSaveTracks byte = 5
	TagAction     byte = 6
)

// ClientHello and ServerHello are the fixed handshake byte strings.
const (
	ClientHello = "hello, synctracker!"
	ServerHello = "hello, demo!"
)

// SetKeyPayload is the decoded body of a SET_KEY command.
type SetKeyPayload struct {
	Track  uint32
	Row    uint32
	Value  float32
	Interp byte
}

// ReadSetKey reads a 13-byte SET_KEY payload (tag already consumed).
func ReadSetKey(r io.Reader) (SetKeyPayload, error) {
	var buf [13]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return SetKeyPayload{}, err
	}
	return SetKeyPayload{
		Track:  binary.BigEndian.Uint32(buf[0:4]),
		Row:    binary.BigEndian.Uint32(buf[4:8]),
		Value:  bitsToFloat32(binary.BigEndian.Uint32(buf[8:12])),
		Interp: buf[12],
	}, nil
}

// DeleteKeyPayload is the decoded body of a DELETE_KEY command.
type DeleteKeyPayload struct {
	Track uint32
	Row   uint32
}

// ReadDeleteKey reads an 8-byte DELETE_KEY payload (tag already consumed).
func ReadDeleteKey(r io.Reader) (DeleteKeyPayload, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return DeleteKeyPayload{}, err
	}
	return DeleteKeyPayload{
		Track: binary.BigEndian.Uint32(buf[0:4]),
		Row:   binary.BigEndian.Uint32(buf[4:8]),
	}, nil
}

// ReadRow reads a bare 4-byte big-endian row, used by SET_ROW in both
// directions.
func ReadRow(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadPause reads the 1-byte PAUSE flag.
func ReadPause(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadAction reads the 4-byte ACTION index.
func ReadAction(r io.Reader) (uint32, error) {
	return ReadRow(r)
}

// WriteSetRow writes tag SET_ROW followed by a big-endian row, the one
// outbound command the client sends beyond the handshake.
func WriteSetRow(w io.Writer, row uint32) error {
	var buf [5]byte
	buf[0] = TagSetRow
	binary.BigEndian.PutUint32(buf[1:], row)
	_, err := w.Write(buf[:])
	return err
}

// WriteGetTrack writes tag GET_TRACK followed by a big-endian name length
// and the raw name bytes.
func WriteGetTrack(w io.Writer, name string) error {
	var header [5]byte
	header[0] = TagGetTrack
	binary.BigEndian.PutUint32(header[1:], uint32(len(name)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, name)
	return err
}

// bitsToFloat32 reinterprets a big-endian-decoded uint32 as its IEEE-754
// bit pattern, the explicit bitcast Design Notes ask for in place of an
// unchecked memcpy of a float across the wire.
func bitsToFloat32(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// Float32Bits is the inverse of bitsToFloat32, exported for callers (the
// synctrack-serve harness and tests) that need to encode a float field
// explicitly.
func Float32Bits(f float32) uint32 {
	return math.Float32bits(f)
}
