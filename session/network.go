package session

import (
	"time"

	"github.com/s53zo/synctrack/protocol"
	"github.com/s53zo/synctrack/transport"
)

// reconnect attempts, at most once per call, to establish and handshake a
// connection when the session isn't already connected and backoff allows a
// new dial. Failures are swallowed: the caller just keeps running in
// whatever mode it already had. An attempt blocks for the dial plus the
// handshake, whose final settle wait alone can take 100ms.
func (s *Session) reconnect() {
	if s.mode == Player || s.conn != nil {
		return
	}
	if !s.backoff.ready() {
		return
	}
	if s.endpoint == "" {
		endpoint, ok := transport.ResolveEndpoint()
		if !ok {
			return
		}
		s.endpoint = endpoint
	}

	c, err := transport.Dial(s.endpoint)
	if err != nil {
		s.backoff.fail()
		return
	}
	if err := protocol.Handshake(c, s.reg); err != nil {
		_ = c.Close()
		s.backoff.fail()
		return
	}

	s.conn = c
	s.editorRow = -1
	s.backoff.reset()
	s.state |= Connected | Connect
}

// drain processes every currently-buffered inbound message, folding the
// protocol layer's reported events into the session's own event bitmask and
// applying any registry mutations it already performed in place.
func (s *Session) drain() {
	if s.conn == nil {
		return
	}
	var ev protocol.Events
	if err := protocol.Drain(s.conn, s.reg, &ev, 0); err != nil {
		s.disconnect()
		return
	}
	s.applyEvents(&ev)
}

func (s *Session) applyEvents(ev *protocol.Events) {
	if ev.Seek {
		s.state |= Seek
		s.editorRow = int32(ev.SeekRow)
	}
	if ev.Stop {
		s.state |= Stop
	}
	if ev.Play {
		s.state |= Play
	}
	if ev.PlayingOn {
		s.state |= Playing
	}
	if ev.PlayingOff {
		s.state &^= Playing
	}
	if ev.Save {
		s.state |= Save
	}
	for _, n := range ev.Actions {
		s.state |= Action(int(n))
	}
	if s.history != nil && (ev.Save || len(ev.Actions) > 0) {
		s.history.record(ev)
	}
}

func (s *Session) disconnect() {
	if s.conn == nil {
		return
	}
	_ = s.conn.Close()
	s.conn = nil
	s.state &^= Connected
	s.state |= Disconnect
	s.backoff.fail()
}

// backoff paces reconnect attempts so a dead editor doesn't cost a fresh
// dial-timeout's worth of blocking every single frame.
type backoff struct {
	next    time.Time
	current time.Duration
}

const (
	backoffMin = 250 * time.Millisecond
	backoffMax = 5 * time.Second
)

func (b *backoff) ready() bool {
	return b.next.IsZero() || !time.Now().Before(b.next)
}

func (b *backoff) fail() {
	if b.current == 0 {
		b.current = backoffMin
	} else {
		b.current *= 2
		if b.current > backoffMax {
			b.current = backoffMax
		}
	}
	b.next = time.Now().Add(b.current)
}

func (b *backoff) reset() {
	b.current = 0
	b.next = time.Time{}
}
