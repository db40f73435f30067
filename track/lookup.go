package track

import (
	"fmt"

	lev "github.com/agnivade/levenshtein"
)

// Find looks up a track by name, the way a host building variable
// declarations by hand would. Unlike IndexOf (used on the hot wire path,
// where an unknown name is simply not there), Find is for diagnostics: on a
// miss it reports the closest name in the registry by edit distance, so a
// typo in a host's declaration list doesn't surface as a bare "not found".
func (r *Registry) Find(name string) (*Track, error) {
	if idx, ok := r.byName[name]; ok {
		return r.tracks[idx], nil
	}
	best := ""
	bestDist := -1
	for _, t := range r.tracks {
		d := lev.ComputeDistance(name, t.Name)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = t.Name
		}
	}
	if best == "" {
		return nil, fmt.Errorf("track: %q not found (registry is empty)", name)
	}
	return nil, fmt.Errorf("track: %q not found, did you mean %q?", name, best)
}
