package ctf

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/s53zo/synctrack/track"
)

func buildRegistry() *track.Registry {
	reg := track.NewRegistry([]track.Binding{
		{Name: "empty", Var: new(float32)},
		{Name: "one", Var: new(float32)},
		{Name: "many", Var: new(float32)},
	})
	if t, ok := reg.At(1); ok {
		t.SetKey(5, 1.5, track.Linear)
	}
	if t, ok := reg.At(2); ok {
		interps := []track.Interpolation{track.Step, track.Linear, track.Smoothstep, track.Ramp}
		for i := 0; i < 100; i++ {
			t.SetKey(uint32(i*3), float32(i)*0.5, interps[i%len(interps)])
		}
	}
	return reg
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	reg := buildRegistry()
	data := Encode(reg)

	out := track.NewRegistry([]track.Binding{
		{Name: "empty", Var: new(float32)},
		{Name: "one", Var: new(float32)},
		{Name: "many", Var: new(float32)},
	})
	if err := Decode(out, data); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, name := range []string{"empty", "one", "many"} {
		want, _ := reg.At(reg.IndexOf(name))
		got, _ := out.At(out.IndexOf(name))
		if len(got.Keys) != len(want.Keys) {
			t.Fatalf("track %s: key count mismatch got %d want %d", name, len(got.Keys), len(want.Keys))
		}
		for i := range want.Keys {
			if got.Keys[i] != want.Keys[i] {
				t.Fatalf("track %s key %d: got %+v want %+v", name, i, got.Keys[i], want.Keys[i])
			}
		}
	}
}

func TestEmptyTracksDropFromEncoding(t *testing.T) {
	reg := buildRegistry()
	data := Encode(reg)

	out := track.NewRegistry([]track.Binding{{Name: "empty", Var: new(float32)}})
	if err := Decode(out, data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	empty, _ := out.At(0)
	if len(empty.Keys) != 0 {
		t.Fatalf("expected empty track to round-trip to empty, got %d keys", len(empty.Keys))
	}
}

func TestDecodeUnknownTrackNameIsDiscarded(t *testing.T) {
	reg := buildRegistry()
	data := Encode(reg)

	out := track.NewRegistry([]track.Binding{{Name: "many", Var: new(float32)}})
	if err := Decode(out, data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	many, _ := out.At(0)
	if len(many.Keys) != 100 {
		t.Fatalf("expected known track to decode fully even with unknown siblings, got %d", len(many.Keys))
	}
}

func TestDecodeSignatureMismatchLeavesRegistryUntouched(t *testing.T) {
	reg := buildRegistry()
	one, _ := reg.At(reg.IndexOf("one"))
	before := append([]track.Keyframe(nil), one.Keys...)

	if err := Decode(reg, []byte("not a ctf file at all")); err != nil {
		t.Fatalf("decode on bad signature should not error: %v", err)
	}
	if !reflect.DeepEqual(before, one.Keys) {
		t.Fatalf("registry mutated despite signature mismatch")
	}
}

func TestTrackNamesListsOnlyNonEmptyTracks(t *testing.T) {
	reg := buildRegistry()
	data := Encode(reg)

	names, err := TrackNames(data)
	if err != nil {
		t.Fatalf("TrackNames: %v", err)
	}
	want := []string{"one", "many"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestTrackNamesRejectsBadSignature(t *testing.T) {
	if _, err := TrackNames([]byte("not a ctf file")); err == nil {
		t.Fatalf("expected error for bad signature")
	}
}

func TestLEB128RoundTripFullRange(t *testing.T) {
	samples := []uint32{0, 1, 127, 128, 16383, 16384, 1 << 20, 1<<32 - 1, 1 << 31}
	for _, v := range samples {
		buf := putLEB128(nil, v)
		got, err := getLEB128(bytes.NewReader(buf))
		if err != nil {
			t.Fatalf("v=%d: %v", v, err)
		}
		if got != v {
			t.Fatalf("v=%d: round trip got %d", v, got)
		}
	}
}

func TestLEB128RejectsSixthContinuationByte(t *testing.T) {
	// Five continuation bytes followed by a sixth, terminating byte.
	buf := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	if _, err := getLEB128(bytes.NewReader(buf)); err == nil {
		t.Fatalf("expected error for 6-byte leb128 value")
	}
}
