// Package ctf implements the Compact Track Format: a self-describing binary
// archive of every non-empty track's keyframes, used for both loading a
// standalone playback dataset and for saving one back out on request.
package ctf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/s53zo/synctrack/track"
)

// signature layout, 16 bytes total:
//   bytes 0..7:  "crocket\n"            (format identity)
//   bytes 8..11: float32(1.0) native    (endianness probe)
//   bytes 12..15: "\r\n\x00\x1a"        (CRLF / NUL-strip / DOS-EOF detector)
var (
	sigPart1 = []byte("crocket\n")
	sigPart3 = []byte{'\r', '\n', 0x00, 0x1a}
)

const fileVersion = float32(1.0)

func signature() []byte {
	var buf bytes.Buffer
	buf.Write(sigPart1)
	var fbuf [4]byte
	binary.NativeEndian.PutUint32(fbuf[:], math.Float32bits(fileVersion))
	buf.Write(fbuf[:])
	buf.Write(sigPart3)
	return buf.Bytes()
}

// Encode serializes every track with at least one keyframe, in registry
// order, into a freshly built CTF image.
func Encode(reg *track.Registry) []byte {
	var buf bytes.Buffer
	buf.Write(signature())

	nonEmpty := make([]*track.Track, 0, reg.Len())
	reg.Each(func(_ int, t *track.Track) {
		if len(t.Keys) > 0 {
			nonEmpty = append(nonEmpty, t)
		}
	})

	countBuf := putLEB128(nil, uint32(len(nonEmpty)))
	buf.Write(countBuf)

	for _, t := range nonEmpty {
		buf.Write(putLEB128(nil, uint32(len(t.Name))))
		buf.WriteString(t.Name)
		buf.Write(putLEB128(nil, uint32(len(t.Keys))))

		var ref uint32
		for _, k := range t.Keys {
			buf.Write(putLEB128(nil, k.Row-ref))
			var vbuf [4]byte
			binary.NativeEndian.PutUint32(vbuf[:], math.Float32bits(k.Value))
			buf.Write(vbuf[:])
			buf.WriteByte(byte(k.Interp))
			ref = k.Row + 1
		}
	}
	return buf.Bytes()
}

// Decode loads track data from a CTF image into reg. On a signature
// mismatch it returns silently without touching reg, per spec: the payload
// is simply ignored. Tracks the registry doesn't know by name have their
// key stream read and discarded so the rest of the stream stays aligned.
//
// Decode trusts its input beyond the signature check: a corrupted stream
// past byte 16 is undefined behavior, matching the reference format's
// trusted-source contract.
func Decode(reg *track.Registry, data []byte) error {
	if len(data) < 16 || !bytes.Equal(data[0:8], sigPart1) {
		return nil
	}
	var verBuf [4]byte
	binary.NativeEndian.PutUint32(verBuf[:], math.Float32bits(fileVersion))
	if !bytes.Equal(data[8:12], verBuf[:]) || !bytes.Equal(data[12:16], sigPart3) {
		return nil
	}

	r := bytes.NewReader(data[16:])
	trackCount, err := getLEB128(r)
	if err != nil {
		return nil
	}

	for i := uint32(0); i < trackCount; i++ {
		nameLen, err := getLEB128(r)
		if err != nil {
			return fmt.Errorf("ctf: reading track %d name length: %w", i, err)
		}
		name := make([]byte, nameLen)
		if _, err := fillFull(r, name); err != nil {
			return fmt.Errorf("ctf: reading track %d name: %w", i, err)
		}

		keyCount, err := getLEB128(r)
		if err != nil {
			return fmt.Errorf("ctf: reading track %d key count: %w", i, err)
		}

		idx := reg.IndexOf(string(name))
		var t *track.Track
		if idx >= 0 {
			t, _ = reg.At(idx)
			t.Keys = make([]track.Keyframe, 0, keyCount)
		}

		var ref uint32
		for k := uint32(0); k < keyCount; k++ {
			delta, err := getLEB128(r)
			if err != nil {
				return fmt.Errorf("ctf: reading key %d of track %d: %w", k, i, err)
			}
			var vbuf [4]byte
			if _, err := fillFull(r, vbuf[:]); err != nil {
				return fmt.Errorf("ctf: reading value of key %d of track %d: %w", k, i, err)
			}
			interp, err := r.ReadByte()
			if err != nil {
				return fmt.Errorf("ctf: reading interp of key %d of track %d: %w", k, i, err)
			}

			if t == nil {
				continue // unknown track: discard to keep the stream aligned
			}
			row := ref + delta
			ref = row + 1
			t.Keys = append(t.Keys, track.Keyframe{
				Row:    row,
				Value:  math.Float32frombits(binary.NativeEndian.Uint32(vbuf[:])),
				Interp: track.Interpolation(interp),
			})
		}
	}
	return nil
}

// TrackNames reads just the track name list out of a CTF image, skipping
// over every key's payload, for callers (synctrack-dump) that need to build
// a registry sized to an unfamiliar file before calling Decode.
func TrackNames(data []byte) ([]string, error) {
	if len(data) < 16 || !bytes.Equal(data[0:8], sigPart1) {
		return nil, fmt.Errorf("ctf: not a recognized file")
	}
	var verBuf [4]byte
	binary.NativeEndian.PutUint32(verBuf[:], math.Float32bits(fileVersion))
	if !bytes.Equal(data[8:12], verBuf[:]) || !bytes.Equal(data[12:16], sigPart3) {
		return nil, fmt.Errorf("ctf: not a recognized file")
	}

	r := bytes.NewReader(data[16:])
	trackCount, err := getLEB128(r)
	if err != nil {
		return nil, fmt.Errorf("ctf: reading track count: %w", err)
	}

	names := make([]string, 0, trackCount)
	for i := uint32(0); i < trackCount; i++ {
		nameLen, err := getLEB128(r)
		if err != nil {
			return nil, fmt.Errorf("ctf: reading track %d name length: %w", i, err)
		}
		name := make([]byte, nameLen)
		if _, err := fillFull(r, name); err != nil {
			return nil, fmt.Errorf("ctf: reading track %d name: %w", i, err)
		}
		names = append(names, string(name))

		keyCount, err := getLEB128(r)
		if err != nil {
			return nil, fmt.Errorf("ctf: reading track %d key count: %w", i, err)
		}
		for k := uint32(0); k < keyCount; k++ {
			if _, err := getLEB128(r); err != nil {
				return nil, fmt.Errorf("ctf: skipping key %d of track %d: %w", k, i, err)
			}
			var vbuf [4]byte
			if _, err := fillFull(r, vbuf[:]); err != nil {
				return nil, fmt.Errorf("ctf: skipping key %d of track %d: %w", k, i, err)
			}
			if _, err := r.ReadByte(); err != nil {
				return nil, fmt.Errorf("ctf: skipping key %d of track %d: %w", k, i, err)
			}
		}
	}
	return names, nil
}

func fillFull(r *bytes.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, fmt.Errorf("unexpected end of data")
		}
	}
	return n, nil
}
