package session

import (
	"testing"

	"github.com/s53zo/synctrack/ctf"
	"github.com/s53zo/synctrack/track"
)

func newTestSession(t *testing.T) (*Session, *track.Registry) {
	t.Helper()
	// An address nothing listens on, refused almost instantly, so New()
	// falls through to player mode without a real editor.
	t.Setenv("SYNCTRACK_SERVER", "127.0.0.1:1")

	reg := track.NewRegistry([]track.Binding{
		{Name: "volume", Var: new(float32)},
		{Name: "pan", Var: new(float32)},
	})
	if tr, ok := reg.At(0); ok {
		tr.SetKey(0, 0, track.Linear)
		tr.SetKey(10, 1, track.Step)
	}

	s, err := New(reg, Config{RPM: 60})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Shutdown)
	return s, reg
}

func TestNewFallsBackToPlayerModeWhenNoEditor(t *testing.T) {
	s, _ := newTestSession(t)
	if s.Mode() != Player {
		t.Fatalf("expected player mode, got %v", s.Mode())
	}
	if s.state&Playing == 0 {
		t.Fatalf("expected PLAYING bit set on player-mode init")
	}
}

func TestUpdateSamplesTracksIntoBoundVariables(t *testing.T) {
	s, reg := newTestSession(t)
	tr, _ := reg.At(0)

	hostTime := 5.0
	s.Update(&hostTime)
	if got := *tr.Var; got != 0.5 {
		t.Fatalf("expected halfway sample 0.5 at row 5, got %v", got)
	}
}

func TestUpdateClearsOneShotBitsButKeepsPersistent(t *testing.T) {
	s, _ := newTestSession(t)
	s.state |= Save | Action(2)

	hostTime := 0.0
	mask := s.Update(&hostTime)

	if mask&Save == 0 {
		t.Fatalf("expected SAVE reported in this frame's mask")
	}
	if mask&Action(2) == 0 {
		t.Fatalf("expected ACTION(2) reported in this frame's mask")
	}
	if s.state&Save != 0 || s.state&Action(2) != 0 {
		t.Fatalf("one-shot bits must be cleared after Update, state=%x", s.state)
	}
	if s.state&Playing == 0 {
		t.Fatalf("PLAYING must survive as a persistent bit")
	}
}

func TestUpdateWithNilHostTimeReturnsStateUnchanged(t *testing.T) {
	s, _ := newTestSession(t)
	s.state |= Save

	mask := s.Update(nil)
	if mask&Save == 0 {
		t.Fatalf("expected current state echoed back")
	}
	if s.state&Save == 0 {
		t.Fatalf("state must not be cleared when no host time is given")
	}
}

func TestSeekReconciliationNudgesHostTimeForward(t *testing.T) {
	s, _ := newTestSession(t)
	s.state |= Seek
	s.editorRow = 12

	hostTime := 999.0 // deliberately wrong; Update must overwrite it
	s.Update(&hostTime)

	want := float64(12) + 1.0/65536.0
	if hostTime != want {
		t.Fatalf("got hostTime %v, want %v", hostTime, want)
	}
}

func TestSeekToRowZeroStaysExactlyZero(t *testing.T) {
	s, _ := newTestSession(t)
	s.state |= Seek
	s.editorRow = 0

	hostTime := 42.0
	s.Update(&hostTime)
	if hostTime != 0 {
		t.Fatalf("seeking to row 0 should yield hostTime 0, got %v", hostTime)
	}
}

func TestSetModeToPlayerSetsPlayingAndPlayEvents(t *testing.T) {
	s, _ := newTestSession(t)
	s.mode = Client // simulate having been in client mode
	s.SetMode(Player)

	if s.Mode() != Player {
		t.Fatalf("expected player mode after SetMode")
	}
	if s.state&Playing == 0 || s.state&Play == 0 {
		t.Fatalf("expected PLAYING|PLAY set, got %x", s.state)
	}
}

func TestSetModeToSameModeIsNoop(t *testing.T) {
	s, _ := newTestSession(t)
	before := s.state
	s.SetMode(s.Mode())
	if s.state != before {
		t.Fatalf("SetMode to the same mode must not mutate state")
	}
}

func TestActionBitsAreDistinctAndOrdered(t *testing.T) {
	seen := map[EventMask]bool{}
	for n := 0; n < 8; n++ {
		b := Action(n)
		if seen[b] {
			t.Fatalf("Action(%d) collides with a previous bit", n)
		}
		seen[b] = true
		if b&persistentMask != 0 {
			t.Fatalf("Action(%d) must not overlap the persistent mask", n)
		}
	}
}

func TestGetValueSamplesWithoutMutatingState(t *testing.T) {
	s, reg := newTestSession(t)
	tr, _ := reg.At(0)

	before := s.state
	got := s.GetValue(tr.Var, 10)
	if got != 1 {
		t.Fatalf("expected endpoint value 1 at row 10, got %v", got)
	}
	if s.state != before {
		t.Fatalf("GetValue must not mutate session state")
	}
}

func TestGetValueOnUnknownVariableReturnsZero(t *testing.T) {
	s, _ := newTestSession(t)
	var stray float32
	if got := s.GetValue(&stray, 1); got != 0 {
		t.Fatalf("expected 0 for an unbound variable, got %v", got)
	}
}

func TestSerializeProducesDecodableData(t *testing.T) {
	s, reg := newTestSession(t)
	data := s.Serialize()

	out := track.NewRegistry([]track.Binding{
		{Name: "volume", Var: new(float32)},
		{Name: "pan", Var: new(float32)},
	})
	if err := ctf.Decode(out, data); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want, _ := reg.At(0)
	got, _ := out.At(0)
	if len(got.Keys) != len(want.Keys) {
		t.Fatalf("got %d keys, want %d", len(got.Keys), len(want.Keys))
	}
}
