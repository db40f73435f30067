//go:build playeronly

// Package synctrack, built with -tags playeronly, strips the editor
// protocol and transport entirely: Init never dials out, SetMode is inert,
// and Serialize always returns nil, mirroring the reference client's
// CROCKET_PLAYER_ONLY build.
package synctrack

import (
	"fmt"
	"os"

	"github.com/s53zo/synctrack/ctf"
	"github.com/s53zo/synctrack/track"
)

type Mode int

const (
	ModePlayer Mode = iota
	ModeClient
)

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
	actionBase
)

// Action returns the bit for user-defined action number n. CLIENT-only
// events (SEEK, CONNECT, DISCONNECT, and editor ACTIONs) never fire in a
// playeronly build; the bits exist only so calling code compiles unchanged.
func Action(n int) EventMask { return actionBase << uint(n) }

type Binding = track.Binding

// History is unused in a playeronly build; kept so Options compiles
// unchanged across build tags.
type History struct {
	Path string
}

type Options struct {
	Registry []track.Binding
	SaveFile string
	Data     []byte
	RPM      float32
	History  *History
}

// Client is a standalone playback-only instance: a track registry sampled
// from host time, with no socket and no save path.
type Client struct {
	reg        *track.Registry
	timescale  float32
	firstFrame bool
}

func Init(opts Options) (*Client, error) {
	if len(opts.Registry) == 0 {
		return nil, fmt.Errorf("synctrack: empty registry")
	}
	reg := track.NewRegistry(opts.Registry)

	rpm := opts.RPM
	if rpm == 0 {
		rpm = 60
	}
	timescale := float32(1)
	if rpm != 60 {
		timescale = rpm / 60
	}

	data := opts.Data
	if data == nil && opts.SaveFile != "" {
		if loaded, err := os.ReadFile(opts.SaveFile); err == nil {
			data = loaded
		}
	}
	if data != nil {
		if err := ctf.Decode(reg, data); err != nil {
			return nil, fmt.Errorf("synctrack: loading %s: %w", opts.SaveFile, err)
		}
	}
	return &Client{reg: reg, timescale: timescale, firstFrame: true}, nil
}

// Mode always reports ModePlayer in a playeronly build.
func (c *Client) Mode() Mode { return ModePlayer }

func (c *Client) Shutdown() {}

// Update samples every bound variable from hostTime and reports PLAYING,
// plus PLAY on the very first call after Init (mirroring the one-shot PLAY
// event crocket_init queues for its CROCKET_PLAYER_ONLY fallback).
func (c *Client) Update(hostTime *float64) EventMask {
	mask := Playing
	if c.firstFrame {
		mask |= Play
	}
	if hostTime == nil {
		return mask
	}
	c.firstFrame = false
	row := float32(*hostTime) * c.timescale
	if row < 0 {
		row = 0
	}
	c.reg.Each(func(_ int, t *track.Track) {
		if t.Var != nil {
			*t.Var = track.Sample(t, row)
		}
	})
	return mask
}

func (c *Client) GetValue(v *float32, time float64) float32 {
	tr, ok := c.reg.ByVar(v)
	if !ok {
		return 0
	}
	return track.Sample(tr, float32(time)*c.timescale)
}

// SetMode is inert: a playeronly build has no CLIENT mode to switch into.
func (c *Client) SetMode(m Mode) {}

// Serialize always returns nil; a playeronly build carries no CTF encoder.
func (c *Client) Serialize() []byte { return nil }
