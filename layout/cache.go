package layout

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	gobids "github.com/pvandyken/gobids"
	"github.com/pvandyken/gobids/bidspath"
	"github.com/pvandyken/gobids/entitytable"
	"github.com/pvandyken/gobids/filetree"
	"github.com/pvandyken/gobids/roots"
	digest "github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
)

// magic is the byte-exact declaration every cache file must begin with
// (spec.md §6's cache file format).
const magic = "<?rsbids version=\"1.0\">\n"

// cacheRoot is the serializable projection of one roots.RootRecord.
type cacheRoot struct {
	Key         string
	Category    roots.Category
	Label       string
	Description *roots.DatasetDescription
	Ranges      []roots.Range
}

// cacheDoc is the gob-encoded body following the magic declaration. The
// file tree and depth map are never serialized: both are pure functions
// of Paths, so Load recomputes them instead of trusting a stale blob.
type cacheDoc struct {
	Paths            []*bidspath.BidsPath
	Entities         map[string]map[string][]int
	HasMetadata      bool
	Metadata         map[string]map[string][]int
	Roots            []cacheRoot
	Mode             bidspath.Mode
	HasView          bool
	View             []int
	UnresolvedScopes []string
}

// Digest returns a content digest over this Layout's visible path set
// and entity table, suitable for cheap equality/staleness checks
// without a full structural comparison.
func (l *Layout) Digest() digest.Digest {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "mode=%d\n", l.mode)
	for _, id := range l.View() {
		fmt.Fprintf(&buf, "%d:%s\n", id, l.paths[id].Path)
	}
	for _, key := range l.entities.Keys() {
		fmt.Fprintf(&buf, "%s=%v\n", key, l.entities.Values(key))
	}
	return digest.FromBytes(buf.Bytes())
}

// Save writes l to path on fs as a magic-prefixed gob blob.
func Save(l *Layout, fs afero.Fs, path string) error {
	doc := cacheDoc{
		Paths:            l.paths,
		Entities:         l.entities.Snapshot(),
		Roots:            snapshotRoots(l.roots),
		Mode:             l.mode,
		UnresolvedScopes: l.unresolvedScopes,
	}
	if l.metadata != nil {
		doc.HasMetadata = true
		doc.Metadata = l.metadata.Snapshot()
	}
	if l.view != nil {
		doc.HasView = true
		doc.View = l.view
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&doc); err != nil {
		return &gobids.ErrSerde{Err: err}
	}

	f, err := fs.Create(path)
	if err != nil {
		return &gobids.ErrIO{Path: path, Err: err}
	}
	defer f.Close()

	if _, err := io.WriteString(f, magic); err != nil {
		return &gobids.ErrIO{Path: path, Err: err}
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return &gobids.ErrIO{Path: path, Err: err}
	}
	return nil
}

// Load reads a Layout previously written by Save. The returned Layout's
// fs is left nil; callers that need IndexMetadata afterward should call
// AttachFS.
func Load(fs afero.Fs, path string) (*Layout, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &gobids.ErrIO{Path: path, Err: err}
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, &gobids.ErrIO{Path: path, Err: err}
	}
	if len(raw) < len(magic) || string(raw[:len(magic)]) != magic {
		return nil, &gobids.ErrCache{Reason: "missing or mismatched magic declaration"}
	}

	var doc cacheDoc
	if err := gob.NewDecoder(bytes.NewReader(raw[len(magic):])).Decode(&doc); err != nil {
		return nil, &gobids.ErrSerde{Err: err}
	}

	l := &Layout{
		paths:    doc.Paths,
		entities: entitytable.FromSnapshot(doc.Entities),
		roots:    restoreRoots(doc.Roots),
		mode:     doc.Mode,
	}
	if doc.HasMetadata {
		l.metadata = entitytable.FromSnapshot(doc.Metadata)
		l.metadataOnce.Do(func() {})
	}
	if doc.HasView {
		l.view = doc.View
	}
	l.unresolvedScopes = doc.UnresolvedScopes

	l.filetree, l.depths, l.depthOrder = rebuildTreeAndDepths(l.paths)
	return l, nil
}

// AttachFS sets the filesystem handle IndexMetadata reads sidecars
// from — required after Load, since the cache stores no file handles.
func (l *Layout) AttachFS(fs afero.Fs) { l.fs = fs }

func snapshotRoots(r *roots.Registry) []cacheRoot {
	keys := r.Keys()
	out := make([]cacheRoot, 0, len(keys))
	for _, key := range keys {
		rec, ok := r.Record(key)
		if !ok {
			continue
		}
		out = append(out, cacheRoot{
			Key:         key,
			Category:    rec.Category,
			Label:       rec.Label,
			Description: rec.Description,
			Ranges:      rec.Ranges.Ranges(),
		})
	}
	return out
}

func restoreRoots(cached []cacheRoot) *roots.Registry {
	records := map[string]*roots.RootRecord{}
	for _, c := range cached {
		mr := roots.NewMultiRange()
		for _, rng := range c.Ranges {
			mr.Insert(rng)
		}
		records[c.Key] = &roots.RootRecord{
			Ranges:      mr,
			Category:    c.Category,
			Label:       c.Label,
			Description: c.Description,
		}
	}
	return roots.RestoreRegistry(records)
}

func rebuildTreeAndDepths(paths []*bidspath.BidsPath) (*filetree.Tree, map[int]map[int]struct{}, []int) {
	tree := filetree.New()
	depths := map[int]map[int]struct{}{}
	for id, bp := range paths {
		dir := filepath.Dir(bp.Path)
		tree.Insert(filetree.SplitDir(dir), id)
		d := dirDepth(bp.Path)
		if depths[d] == nil {
			depths[d] = map[int]struct{}{}
		}
		depths[d][id] = struct{}{}
	}
	order := make([]int, 0, len(depths))
	for d := range depths {
		order = append(order, d)
	}
	sort.Ints(order)
	return tree, depths, order
}
