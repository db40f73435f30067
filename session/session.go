// Package session implements the mode manager: it holds the current
// PLAYER/CLIENT mode, drives the handshake and per-update reconnection
// policy, reconciles host playback time against the editor's row, and
// samples every track into its bound variable once per update.
package session

import (
	"fmt"
	"log"

	"github.com/s53zo/synctrack/ctf"
	"github.com/s53zo/synctrack/protocol"
	"github.com/s53zo/synctrack/track"
	"github.com/s53zo/synctrack/transport"
)

// Mode selects whether the session is slaved to a live editor or running
// standalone from a loaded dataset.
type Mode int

const (
	Player Mode = iota
	Client
)

func (m Mode) String() string {
	if m == Client {
		return "client"
	}
	return "player"
}

// EventMask is the state/event bitfield returned by Update. The persistent
// bits (Playing, Connected) survive across updates; every other bit is
// one-shot and cleared once Update returns it to the caller.
type EventMask uint32

const (
	Playing EventMask = 1 << iota
	Connected
	Stop
	Play
	Seek
	Connect
	Disconnect
	Save
	actionBase // first ACTION(0) bit
)

// Action returns the bit for user-defined action number n (n >= 0).
func Action(n int) EventMask {
	return actionBase << uint(n)
}

const persistentMask = Playing | Connected

// Config configures a new Session. SaveFile and Data mirror the public
// Init's save_file/data parameters; RPM 60 leaves the timescale at 1 (time
// already in rows, per spec's CROCKET_TIME_IN_ROWS convention).
type Config struct {
	SaveFile string
	Data     []byte
	RPM      float32
	History  *HistoryConfig
}

// Session is the mode manager described in spec §4.4.
type Session struct {
	mode      Mode
	reg       *track.Registry
	conn      *transport.Conn
	endpoint  string
	saveFile  string
	state     EventMask
	editorRow int32 // -1 sentinel: no row reported yet
	timescale float32
	history   *History
	backoff   backoff
}

// New builds a Session bound to reg, attempts one initial connection, and
// falls back to loading CTF data from disk/memory on failure, per spec §4.4
// and §6's Init.
func New(reg *track.Registry, cfg Config) (*Session, error) {
	s := &Session{
		reg:       reg,
		saveFile:  cfg.SaveFile,
		editorRow: -1,
		timescale: timescaleFromRPM(cfg.RPM),
		state:     0,
	}

	if cfg.History != nil {
		h, err := OpenHistory(*cfg.History)
		if err != nil {
			return nil, fmt.Errorf("session: open history: %w", err)
		}
		s.history = h
	}

	endpoint, resolvable := transport.ResolveEndpoint()
	s.endpoint = endpoint
	if resolvable {
		s.mode = Client
		s.reconnect()
	}

	if s.conn != nil {
		s.mode = Client
	} else {
		s.mode = Player
		data := cfg.Data
		if data == nil && cfg.SaveFile != "" {
			loaded, err := loadFile(cfg.SaveFile)
			if err == nil {
				data = loaded
			}
		}
		if data != nil {
			if err := ctf.Decode(reg, data); err != nil {
				log.Printf("synctrack: loading %s: %v", cfg.SaveFile, err)
			}
		}
		s.state |= Playing | Play
	}
	return s, nil
}

// Mode reports the current mode.
func (s *Session) Mode() Mode { return s.mode }

// Shutdown releases the session's resources: the socket (if any) and the
// history sink (if configured). The track registry itself is the host's to
// keep or discard.
func (s *Session) Shutdown() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	if s.history != nil {
		_ = s.history.Close()
	}
}

// Update runs one full frame cycle: reconnect attempt, message drain, seek
// reconciliation, save-on-event, and the sampling pass, per spec §4.4. It
// returns the bitmask describing state and any events from this frame, then
// clears every one-shot bit.
func (s *Session) Update(hostTime *float64) EventMask {
	if hostTime == nil {
		return s.state
	}
	row := float32(*hostTime) * s.timescale
	if row < 0 {
		row = 0
	}

	s.reconnect()
	s.drain()

	if s.state&Seek != 0 {
		row = s.seekRowAsFloat()
		*hostTime = float64(row / s.timescale)
	} else if s.conn != nil {
		newRow := int32(row)
		if newRow != s.editorRow {
			if err := protocol.SendSetRow(s.conn, uint32(newRow)); err != nil {
				s.disconnect()
			} else {
				s.editorRow = newRow
			}
		}
	}

	if s.state&Save != 0 && s.saveFile != "" {
		if err := s.saveToFile(); err != nil {
			log.Printf("synctrack: save to %s failed: %v", s.saveFile, err)
		}
	}

	s.reg.Each(func(_ int, t *track.Track) {
		if t.Var != nil {
			*t.Var = track.Sample(t, row)
		}
	})

	result := s.state
	s.state &= persistentMask
	return result
}

// seekRowAsFloat converts the authoritative editorRow into a fractional row,
// nudged forward by 1/65536 so float rounding never slips back a segment.
// editorRow 0 stays exactly 0. This constant is carried verbatim from the
// reference client (spec's open question: its sufficiency across all
// timescales is unproven, but changing it would break interop).
func (s *Session) seekRowAsFloat() float32 {
	if s.editorRow == 0 {
		return 0
	}
	return float32(s.editorRow) + (1.0 / 65536.0)
}

// GetValue samples a track at an arbitrary time without side effects, the
// public counterpart to the sampling pass inside Update.
func (s *Session) GetValue(v *float32, t float64) float32 {
	tr, ok := s.reg.ByVar(v)
	if !ok {
		return 0
	}
	return track.Sample(tr, float32(t)*s.timescale)
}

// SetMode switches between PLAYER and CLIENT at runtime, per spec §4.4.
func (s *Session) SetMode(m Mode) {
	if m == s.mode {
		return
	}
	s.mode = m
	if m == Player {
		s.disconnect()
		s.state |= Playing | Play
	}
}

// Serialize returns a freshly built CTF image of the current track state.
func (s *Session) Serialize() []byte {
	return ctf.Encode(s.reg)
}

func timescaleFromRPM(rpm float32) float32 {
	const timeInRows = 60.0
	if rpm == timeInRows {
		return 1
	}
	return rpm / 60.0
}
