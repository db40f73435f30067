package track

import "testing"

func TestFindSegmentExactHit(t *testing.T) {
	keys := []Keyframe{{Row: 10}, {Row: 20}, {Row: 30}}
	if got := FindSegment(keys, 20); got != 2 {
		t.Fatalf("exact hit on keys[1]: got %d, want 2", got)
	}
	if got := FindSegment(keys, 5); got != 0 {
		t.Fatalf("before first key: got %d, want 0", got)
	}
	if got := FindSegment(keys, 35); got != 3 {
		t.Fatalf("after last key: got %d, want 3", got)
	}
	if got := FindSegment(keys, 15); got != 1 {
		t.Fatalf("inside segment: got %d, want 1", got)
	}
	if got := FindSegment(nil, 0); got != 0 {
		t.Fatalf("empty keys: got %d, want 0", got)
	}
}

func TestSampleEmptyTrack(t *testing.T) {
	tr := &Track{Name: "foo"}
	if got := Sample(tr, 5); got != 0 {
		t.Fatalf("empty track should sample 0, got %v", got)
	}
}

func TestSampleNegativeTimeClamps(t *testing.T) {
	tr := &Track{Name: "foo"}
	tr.SetKey(0, 3, Linear)
	tr.SetKey(10, 13, Linear)
	if got := Sample(tr, -100); got != 3 {
		t.Fatalf("negative row should clamp to row 0 value, got %v", got)
	}
}

func TestSampleStep(t *testing.T) {
	tr := &Track{Name: "foo"}
	tr.SetKey(10, 2.5, Step)
	cases := map[float32]float32{5: 2.5, 10: 2.5, 1000: 2.5}
	for row, want := range cases {
		if got := Sample(tr, row); got != want {
			t.Fatalf("row %v: got %v, want %v", row, got, want)
		}
	}
}

func TestSampleLinear(t *testing.T) {
	tr := &Track{Name: "foo"}
	tr.SetKey(0, 0, Linear)
	tr.SetKey(10, 10, Linear)
	cases := map[float32]float32{0: 0, 5: 5, 10: 10, 20: 10}
	for row, want := range cases {
		if got := Sample(tr, row); got != want {
			t.Fatalf("row %v: got %v, want %v", row, got, want)
		}
	}
}

func TestSampleSmoothstepAndRampMidpoints(t *testing.T) {
	smooth := &Track{Name: "s"}
	smooth.SetKey(0, 0, Smoothstep)
	smooth.SetKey(10, 10, Smoothstep)
	if got := Sample(smooth, 5); got != 5 {
		// smoothstep(0.5) = 0.5, symmetric around midpoint
		t.Fatalf("smoothstep midpoint: got %v, want 5", got)
	}

	ramp := &Track{Name: "r"}
	ramp.SetKey(0, 0, Ramp)
	ramp.SetKey(10, 10, Ramp)
	if got := Sample(ramp, 5); got != 2.5 {
		t.Fatalf("ramp midpoint: got %v, want 2.5 (0.5^2 * 10)", got)
	}
}

func TestSampleBoundaryReturnsEndpointValues(t *testing.T) {
	tr := &Track{Name: "t"}
	tr.SetKey(10, 1, Linear)
	tr.SetKey(20, 2, Linear)
	tr.SetKey(30, 3, Linear)
	if got := Sample(tr, 5); got != 1 {
		t.Fatalf("before first key: got %v, want first key value", got)
	}
	if got := Sample(tr, 40); got != 3 {
		t.Fatalf("after last key: got %v, want last key value", got)
	}
}

func TestSetKeyMaintainsOrderAndOverwrites(t *testing.T) {
	tr := &Track{Name: "t"}
	rows := []uint32{50, 10, 30, 20, 40}
	for _, row := range rows {
		tr.SetKey(row, float32(row), Linear)
	}
	if !sortedByRow(tr.Keys) {
		t.Fatalf("keys not strictly increasing after inserts: %+v", tr.Keys)
	}
	tr.SetKey(30, 999, Step)
	idx := FindSegment(tr.Keys, 30) - 1
	if tr.Keys[idx].Value != 999 || tr.Keys[idx].Interp != Step {
		t.Fatalf("overwrite of existing row failed: %+v", tr.Keys[idx])
	}
	if len(tr.Keys) != len(rows) {
		t.Fatalf("overwrite should not grow key count, got %d want %d", len(tr.Keys), len(rows))
	}
}

func TestDeleteKey(t *testing.T) {
	tr := &Track{Name: "t"}
	tr.SetKey(10, 1, Linear)
	tr.SetKey(20, 2, Linear)
	tr.SetKey(30, 3, Linear)
	tr.DeleteKey(20)
	if len(tr.Keys) != 2 {
		t.Fatalf("expected 2 keys after delete, got %d", len(tr.Keys))
	}
	if !sortedByRow(tr.Keys) {
		t.Fatalf("keys not strictly increasing after delete: %+v", tr.Keys)
	}
	// deleting a row that doesn't exist is a no-op
	tr.DeleteKey(999)
	if len(tr.Keys) != 2 {
		t.Fatalf("delete of missing row should be a no-op, got %d keys", len(tr.Keys))
	}
}

func TestRegistryOutOfRangeIndexIsNoOp(t *testing.T) {
	reg := NewRegistry([]Binding{{Name: "foo", Var: new(float32)}})
	if _, ok := reg.At(5); ok {
		t.Fatalf("expected out-of-range index to report !ok")
	}
	if _, ok := reg.At(-1); ok {
		t.Fatalf("expected negative index to report !ok")
	}
}

func TestRegistryFindSuggestsClosestName(t *testing.T) {
	reg := NewRegistry([]Binding{{Name: "brightness", Var: new(float32)}, {Name: "rotation", Var: new(float32)}})
	_, err := reg.Find("brightnes")
	if err == nil {
		t.Fatalf("expected error for unknown name")
	}
	want := `track: "brightnes" not found, did you mean "brightness"?`
	if got := err.Error(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
