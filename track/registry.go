package track

import "fmt"

// Binding pairs a host-owned variable with the track name the editor knows
// it by. The host supplies an ordered slice of these at init time; outside
// of that the declaration mechanism is the host's concern entirely.
type Binding struct {
	Name string
	Var  *float32
}

// Registry is the static, ordered set of tracks built from the host's
// bindings. Its index order is authoritative for the wire protocol and
// never changes after construction.
type Registry struct {
	tracks []*Track
	byName map[string]int
}

// NewRegistry builds a Registry from the host's ordered bindings. Binding
// names must be non-empty and unique; a violation is a programmer error in
// the host's declaration list, so it panics rather than returning an error
// that every caller would have to thread through.
func NewRegistry(bindings []Binding) *Registry {
	r := &Registry{
		tracks: make([]*Track, 0, len(bindings)),
		byName: make(map[string]int, len(bindings)),
	}
	for _, b := range bindings {
		if b.Name == "" {
			panic("track: binding with empty name")
		}
		if _, dup := r.byName[b.Name]; dup {
			panic(fmt.Sprintf("track: duplicate track name %q", b.Name))
		}
		r.byName[b.Name] = len(r.tracks)
		r.tracks = append(r.tracks, &Track{Name: b.Name, Var: b.Var})
	}
	return r
}

// Len reports the number of tracks in the registry.
func (r *Registry) Len() int { return len(r.tracks) }

// At returns the track at the given wire index, or false if out of range.
// Callers must treat an out-of-range index as a no-op, per protocol.
func (r *Registry) At(index int) (*Track, bool) {
	if index < 0 || index >= len(r.tracks) {
		return nil, false
	}
	return r.tracks[index], true
}

// IndexOf returns the wire index of the track with this name, or -1.
func (r *Registry) IndexOf(name string) int {
	if idx, ok := r.byName[name]; ok {
		return idx
	}
	return -1
}

// ByVar finds the track bound to a given variable handle, used by
// get_value's public counterpart.
func (r *Registry) ByVar(v *float32) (*Track, bool) {
	for _, t := range r.tracks {
		if t.Var == v {
			return t, true
		}
	}
	return nil, false
}

// Each calls fn for every track in registry (wire) order.
func (r *Registry) Each(fn func(index int, t *Track)) {
	for i, t := range r.tracks {
		fn(i, t)
	}
}
