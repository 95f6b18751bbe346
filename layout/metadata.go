package layout

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/pvandyken/gobids/bidspath"
	"github.com/pvandyken/gobids/entitytable"
	"github.com/pvandyken/gobids/filetree"
	"github.com/spf13/afero"
)

// buildMetadataIndex walks depths deepest-first, reading every JSON
// sidecar's entity-compatible siblings and recording its flat key-value
// pairs for ids not already assigned a value for that key — spec.md
// §4.7's inheritance rule.
//
// Grounded on original_source/src/layout/builders/metadata_builder.rs's
// MetadataIndexBuilder.add_entry/build, adapted to query the already-
// built entitytable.Table/filetree.Tree instead of accumulating its own
// parallel index structures during the walk.
func buildMetadataIndex(l *Layout) *entitytable.Table {
	md := entitytable.New()
	if l.fs == nil {
		return md
	}
	assigned := map[string]map[int]struct{}{}

	order := append([]int(nil), l.depthOrder...)
	sort.Sort(sort.Reverse(sort.IntSlice(order)))

	view := l.viewSet()

	for _, depth := range order {
		idsAtDepth := l.depths[depth]
		var sidecars []int
		for id := range idsAtDepth {
			if _, ok := view[id]; ok {
				sidecars = append(sidecars, id)
			}
		}
		sort.Ints(sidecars)

		for _, sidecarID := range sidecars {
			bp := l.paths[sidecarID]
			if bp.Extension == nil || bp.Extension.Slice(bp.Path) != ".json" {
				continue
			}
			l.indexOneSidecar(bp, view, md, assigned)
		}
	}

	return md
}

// indexOneSidecar reads one JSON sidecar and assigns its flat key-value
// pairs to every entity-compatible file beneath its directory, skipping
// keys already assigned to an id by a deeper sidecar.
func (l *Layout) indexOneSidecar(bp *bidspath.BidsPath, view map[int]struct{}, md *entitytable.Table, assigned map[string]map[int]struct{}) {
	sidecarEntities := bp.GetEntities(bp.Path)
	delete(sidecarEntities, "extension")

	dir := filepath.Dir(bp.Path)
	candidateIDs := l.filetree.Subfiles(filetree.SplitDir(dir))

	flat, err := readSidecarJSON(l.fs, bp.Path)
	if err != nil {
		return
	}

	var matching []int
	for _, id := range candidateIDs {
		if _, ok := view[id]; !ok {
			continue
		}
		candidate := l.paths[id]
		if !entitiesMatch(sidecarEntities, candidate.GetEntities(candidate.Path)) {
			continue
		}
		matching = append(matching, id)
	}
	if len(matching) == 0 {
		return
	}

	for key, value := range flat {
		done := assigned[key]
		if done == nil {
			done = map[int]struct{}{}
			assigned[key] = done
		}
		var fresh []int
		for _, id := range matching {
			if _, already := done[id]; already {
				continue
			}
			fresh = append(fresh, id)
			done[id] = struct{}{}
		}
		if len(fresh) > 0 {
			md.Extend(key, value, fresh)
		}
	}
}

// entitiesMatch reports whether every key in sidecar has an identical
// value in candidate; candidate may carry additional entities.
func entitiesMatch(sidecar, candidate map[string]string) bool {
	for k, v := range sidecar {
		if candidate[k] != v {
			return false
		}
	}
	return true
}

func readSidecarJSON(fs afero.Fs, path string) (map[string]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("not a flat json object: %w", err)
	}

	out := make(map[string]string, len(raw))
	for key, v := range raw {
		switch val := v.(type) {
		case string:
			out[key] = val
		case bool:
			out[key] = fmt.Sprintf("%t", val)
		case float64:
			out[key] = formatNumber(val)
		case nil:
			out[key] = ""
		default:
			// nested object/array: ignored for indexing.
		}
	}
	return out, nil
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
