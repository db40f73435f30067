// Package protocol implements the editor wire state machine on top of
// transport and track: the handshake, the per-update nonblocking drain of
// inbound commands, and the single outbound SET_ROW command.
package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/s53zo/synctrack/track"
	"github.com/s53zo/synctrack/wire"
)

// ErrBadGreeting is returned when the server's reply to the client hello
// doesn't match exactly.
var ErrBadGreeting = errors.New("protocol: unexpected server greeting")

// settleTimeout is how long the handshake waits for trailing SET_KEY
// traffic after the last GET_TRACK, before declaring the sync complete.
const settleTimeout = 100 * time.Millisecond

// Events is the subset of session bit-mutations the protocol layer needs to
// report back to the session manager without importing it (which would
// create a cycle, since session imports protocol).
type Events struct {
	Seek       bool
	SeekRow    uint32
	Stop       bool
	Play       bool
	PlayingOn  bool
	PlayingOff bool
	Save       bool
	Actions    []uint32
}

// conn is the minimal surface protocol needs from transport.Conn, so tests
// can exercise it against any io-backed stub.
type conn interface {
	SendAll([]byte) error
	RecvAll([]byte) error
	PollReadable(time.Duration) (bool, error)
	ClearDeadlines() error
}

// Handshake performs the client/server hello exchange and the full track
// enumeration described in spec §4.3. On success the registry's tracks hold
// exactly the keys the server sent during sync, and c's deadlines are
// cleared for normal blocking operation gated by PollReadable.
func Handshake(c conn, reg *track.Registry) error {
	if err := c.SendAll([]byte(wire.ClientHello)); err != nil {
		return err
	}
	greet := make([]byte, len(wire.ServerHello))
	if err := c.RecvAll(greet); err != nil {
		return err
	}
	if !bytes.Equal(greet, []byte(wire.ServerHello)) {
		return ErrBadGreeting
	}

	var ev Events
	var getTrackErr error
	reg.Each(func(_ int, t *track.Track) {
		if getTrackErr != nil {
			return
		}
		t.Clear()
		var buf bytes.Buffer
		if err := wire.WriteGetTrack(&buf, t.Name); err != nil {
			getTrackErr = err
			return
		}
		if err := c.SendAll(buf.Bytes()); err != nil {
			getTrackErr = err
			return
		}
		if err := Drain(c, reg, &ev, 0); err != nil {
			getTrackErr = err
			return
		}
	})
	if getTrackErr != nil {
		return getTrackErr
	}

	if err := Drain(c, reg, &ev, settleTimeout); err != nil {
		return err
	}
	return c.ClearDeadlines()
}

// Drain handles every fully-received inbound message until no more data is
// ready within timeout. ev accumulates the effects of every message
// processed (SET_KEY/DELETE_KEY mutate reg directly; the rest are reported
// through ev so session can fold them into its event bitmask). An unknown
// tag ends the current drain iteration without disconnecting, per spec.
func Drain(c conn, reg *track.Registry, ev *Events, timeout time.Duration) error {
	for {
		ready, err := c.PollReadable(timeout)
		if err != nil {
			return err
		}
		if !ready {
			return nil
		}
		if err := handleOne(c, reg, ev); err != nil {
			if err == errEndOfTurn {
				return nil
			}
			return err
		}
	}
}

// errEndOfTurn is handleOne's signal that it met an unknown tag.
var errEndOfTurn = errors.New("protocol: unknown tag, end of turn")

func handleOne(c conn, reg *track.Registry, ev *Events) error {
	var tagBuf [1]byte
	if err := c.RecvAll(tagBuf[:]); err != nil {
		return err
	}
	switch tagBuf[0] {
	case wire.TagSetKey:
		p, err := wire.ReadSetKey(reader{c})
		if err != nil {
			return err
		}
		if t, ok := reg.At(int(p.Track)); ok {
			t.SetKey(p.Row, p.Value, track.Interpolation(p.Interp))
		}
	case wire.TagDeleteKey:
		p, err := wire.ReadDeleteKey(reader{c})
		if err != nil {
			return err
		}
		if t, ok := reg.At(int(p.Track)); ok {
			t.DeleteKey(p.Row)
		}
	case wire.TagSetRow:
		row, err := wire.ReadRow(reader{c})
		if err != nil {
			return err
		}
		ev.Seek = true
		ev.SeekRow = row
	case wire.TagPause:
		flag, err := wire.ReadPause(reader{c})
		if err != nil {
			return err
		}
		if flag != 0 {
			ev.Stop = true
			ev.PlayingOff = true
		} else {
			ev.Play = true
			ev.PlayingOn = true
		}
	case wire.TagSaveTracks:
		ev.Save = true
	case wire.TagAction:
		n, err := wire.ReadAction(reader{c})
		if err != nil {
			return err
		}
		ev.Actions = append(ev.Actions, n)
	default:
		// Unknown tag: no documented payload length, so it cannot be safely
		// skipped. Treat as end-of-turn, matching the reference client.
		return errEndOfTurn
	}
	return nil
}

// SendSetRow emits the one outbound command beyond the handshake.
func SendSetRow(c conn, row uint32) error {
	var buf bytes.Buffer
	if err := wire.WriteSetRow(&buf, row); err != nil {
		return fmt.Errorf("protocol: encode SET_ROW: %w", err)
	}
	return c.SendAll(buf.Bytes())
}

// reader adapts conn.RecvAll to io.Reader for wire's fixed-size readers.
type reader struct{ c conn }

func (r reader) Read(p []byte) (int, error) {
	if err := r.c.RecvAll(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
