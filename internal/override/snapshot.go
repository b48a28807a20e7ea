package override

import (
	"fmt"
	"maps"
	"slices"

	"github.com/tidwall/sjson"
)

// Snapshot renders the registry as JSON for diagnostics:
//
//	{"loaded":true,"third_person":{"0x0000ABCD":{"0x11":{"default":[["a.kf"]]}}}}
//
// Keys are sorted so two snapshots of the same state are byte-identical.
func (r *Registry) Snapshot() ([]byte, error) {
	out, err := sjson.SetBytes([]byte(`{}`), "loaded", r.loaded)
	if err != nil {
		return nil, err
	}
	for _, p := range []Perspective{ThirdPerson, FirstPerson} {
		subjects := r.scope(p)
		if len(subjects) == 0 {
			continue
		}
		for _, key := range slices.Sorted(maps.Keys(subjects)) {
			groups := subjects[key]
			for _, group := range slices.Sorted(maps.Keys(groups)) {
				gs := groups[group]
				for v := VariantDefault; v < variantCount; v++ {
					st := gs.Get(v)
					if st.Len() == 0 {
						continue
					}
					layers := make([][]string, 0, st.Len())
					for _, l := range st.Layers() {
						layers = append(layers, l.Paths)
					}
					path := fmt.Sprintf("%s.0x%08X.0x%X.%s", p.String(), key, group, v.String())
					if out, err = sjson.SetBytes(out, path, layers); err != nil {
						return nil, fmt.Errorf("snapshot %s: %w", path, err)
					}
				}
			}
		}
	}
	return out, nil
}
