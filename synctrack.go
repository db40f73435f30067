//go:build !playeronly

// Package synctrack is the public surface of the sync-tracker client: a
// small keyframe animation engine that can be slaved to a live editor over
// TCP (CLIENT mode) or driven standalone from a previously saved archive
// (PLAYER mode).
package synctrack

import (
	"fmt"

	"github.com/s53zo/synctrack/session"
	"github.com/s53zo/synctrack/track"
)

// Re-exported so callers never need to import the session package directly.
type (
	Mode      = session.Mode
	EventMask = session.EventMask
	Binding   = track.Binding
	History   = session.HistoryConfig
)

// ModePlayer and ModeClient are the two modes a Client can run in. (Named
// with a Mode prefix since the bare "Client" name is taken by the Client
// type below.)
const (
	ModePlayer = session.Player
	ModeClient = session.Client
)

const (
	Playing    = session.Playing
	Connected  = session.Connected
	Stop       = session.Stop
	Play       = session.Play
	Seek       = session.Seek
	Connect    = session.Connect
	Disconnect = session.Disconnect
	Save       = session.Save
)

// Action returns the bit for user-defined action number n.
func Action(n int) EventMask { return session.Action(n) }

// Options configures Init. Registry is the host's static, ordered list of
// (name, variable) bindings; its order is the wire index order for the
// lifetime of the client.
type Options struct {
	Registry []track.Binding
	SaveFile string
	Data     []byte
	RPM      float32
	History  *History
}

// Client is one running instance of the sync tracker: a track registry plus
// the mode manager driving it. Multiple instances may coexist, though the
// wire protocol itself carries no per-instance identity.
type Client struct {
	sess *session.Session
}

// Init builds the track registry from opts.Registry, attempts to connect to
// an editor, and falls back to loading opts.Data (or opts.SaveFile) on
// failure. RPM == 60 leaves the timescale at 1 (host time already in rows).
func Init(opts Options) (*Client, error) {
	if len(opts.Registry) == 0 {
		return nil, fmt.Errorf("synctrack: empty registry")
	}
	reg := track.NewRegistry(opts.Registry)

	rpm := opts.RPM
	if rpm == 0 {
		rpm = 60
	}

	sess, err := session.New(reg, session.Config{
		SaveFile: opts.SaveFile,
		Data:     opts.Data,
		RPM:      rpm,
		History:  opts.History,
	})
	if err != nil {
		return nil, err
	}
	return &Client{sess: sess}, nil
}

// Mode reports whether the client is currently slaved to an editor or
// running standalone.
func (c *Client) Mode() Mode { return c.sess.Mode() }

// Shutdown releases the client's socket and any optional history sink.
func (c *Client) Shutdown() { c.sess.Shutdown() }

// Update runs one frame: reconnect attempt, message drain, seek
// reconciliation, save-on-event, and sampling every bound variable. It
// returns the event bitmask for this frame and clears every one-shot bit.
func (c *Client) Update(hostTime *float64) EventMask { return c.sess.Update(hostTime) }

// GetValue samples the track bound to v at an arbitrary time, independent of
// the frame sampling Update performs.
func (c *Client) GetValue(v *float32, time float64) float32 { return c.sess.GetValue(v, time) }

// SetMode switches between PLAYER and CLIENT at runtime.
func (c *Client) SetMode(m Mode) { c.sess.SetMode(m) }

// Serialize returns a freshly built CTF image of the current track state,
// suitable for writing to opts.SaveFile or anywhere else the host likes.
func (c *Client) Serialize() []byte { return c.sess.Serialize() }
