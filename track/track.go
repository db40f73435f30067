// Package track implements the keyframe engine: ordered per-track keyframe
// arrays, binary-search lookup, and the four-mode interpolated sampler that
// drives a host's bound variables.
package track

import "sort"

// Interpolation selects how sample blends between two adjacent keyframes.
type Interpolation uint8

const (
	Step Interpolation = iota
	Linear
	Smoothstep
	Ramp
)

// Keyframe is one (row, value, interpolation) point on a track.
type Keyframe struct {
	Row    uint32
	Value  float32
	Interp Interpolation
}

// Track is a named ordered sequence of keyframes bound to one host variable.
// Var is the exclusive writable handle; only Sample (via Update) writes to it.
type Track struct {
	Name string
	Var  *float32
	Keys []Keyframe
}

// FindSegment returns k such that k=0 means row is before the first key,
// k=len(keys) means row is at or past the last key, and otherwise row lies
// in the segment [keys[k-1], keys[k]). An exact hit on keys[c].Row returns
// c+1.
func FindSegment(keys []Keyframe, row uint32) int {
	n := len(keys)
	if n == 0 || row < keys[0].Row {
		return 0
	}
	a, b := 0, n
	for a+1 < b {
		c := (a + b) >> 1
		pivot := keys[c].Row
		if row == pivot {
			return c + 1
		}
		if row > pivot {
			a = c
		} else {
			b = c
		}
	}
	return a + 1
}

// Sample evaluates the track at a fractional row, in single precision to
// match the editor's own arithmetic. Negative rows clamp to zero and an
// empty track always yields zero.
func Sample(t *Track, rowF float32) float32 {
	if len(t.Keys) == 0 {
		return 0
	}
	if rowF < 0 {
		rowF = 0
	}
	pos := FindSegment(t.Keys, uint32(rowF))
	if pos == 0 {
		return t.Keys[0].Value
	}
	left := t.Keys[pos-1]
	if pos >= len(t.Keys) || left.Interp == Step {
		return left.Value
	}
	right := t.Keys[pos]
	x := (rowF - float32(left.Row)) / float32(right.Row-left.Row)
	switch left.Interp {
	case Linear:
		// x unchanged
	case Smoothstep:
		x = x * x * (3 - 2*x)
	case Ramp:
		x = x * x
	default:
		x = 0
	}
	return left.Value + x*(right.Value-left.Value)
}

// SetKey inserts or overwrites the keyframe at row, keeping Keys strictly
// increasing by row.
func (t *Track) SetKey(row uint32, value float32, interp Interpolation) {
	pos := FindSegment(t.Keys, row)
	if pos > 0 && t.Keys[pos-1].Row == row {
		t.Keys[pos-1].Value = value
		t.Keys[pos-1].Interp = interp
		return
	}
	n := len(t.Keys)
	t.Keys = append(t.Keys, Keyframe{})
	copy(t.Keys[pos+1:], t.Keys[pos:n])
	t.Keys[pos] = Keyframe{Row: row, Value: value, Interp: interp}
}

// DeleteKey removes the keyframe with exactly this row, if present.
func (t *Track) DeleteKey(row uint32) {
	pos := FindSegment(t.Keys, row)
	if pos == 0 || t.Keys[pos-1].Row != row {
		return
	}
	t.Keys = append(t.Keys[:pos-1], t.Keys[pos:]...)
}

// Clear empties the track's keyframes, used before a fresh GET_TRACK
// resync so stale keys from a previous session never linger.
func (t *Track) Clear() {
	t.Keys = t.Keys[:0]
}

// sortedByRow reports whether ks is strictly increasing by Row; used only
// by tests to assert the invariant after insert/delete sequences.
func sortedByRow(ks []Keyframe) bool {
	return sort.SliceIsSorted(ks, func(i, j int) bool { return ks[i].Row < ks[j].Row }) &&
		func() bool {
			for i := 1; i < len(ks); i++ {
				if ks[i].Row == ks[i-1].Row {
					return false
				}
			}
			return true
		}()
}
