package layout

import (
	"context"
	"fmt"
	"sync"

	gobids "github.com/pvandyken/gobids"
	"github.com/pvandyken/gobids/bidspath"
	"github.com/pvandyken/gobids/entitytable"
	"github.com/pvandyken/gobids/filetree"
	"github.com/pvandyken/gobids/gobidscontext"
	"github.com/pvandyken/gobids/roots"
	"github.com/pvandyken/gobids/walker"
	"github.com/spf13/afero"
)

// DerivativeSpec is one derivative root to discover during Create: Paths
// are its root directories, Label overrides the pipeline label that
// would otherwise be auto-derived from each root's directory name
// (spec.md's supplemented derivative-discovery feature).
type DerivativeSpec struct {
	Paths []string
	Label string
}

// Layout is the immutable, shareable index produced by Create or Query.
// Its storage (paths, roots, filetree, depths) is built once and shared
// by reference across every Layout derived from it by Query; only
// entities/metadata/view differ per derived instance (spec.md §4.6,
// §5's concurrency model).
type Layout struct {
	paths      []*bidspath.BidsPath
	entities   *entitytable.Table
	roots      *roots.Registry
	filetree   *filetree.Tree
	depths     map[int]map[int]struct{}
	depthOrder []int
	mode       bidspath.Mode
	scan       bidspath.Scanner // optional pathcache-backed component scanner, nil after Load
	fs         afero.Fs         // filesystem IndexMetadata reads sidecars from; nil after Load

	view []int // nil => every path id is visible

	metadataOnce sync.Once
	metadata     *entitytable.Table

	unresolvedScopes   []string
	validationWarnings []error
}

// ValidationWarnings returns the strict-mode parse failures accumulated
// during Create, if any (spec.md's supplemented validate option).
func (l *Layout) ValidationWarnings() []error { return l.validationWarnings }

// Create walks every raw root and, if given, every derivative root,
// classifying each discovered file into the returned Layout. Raw roots
// have their top-level derivatives/sourcedata/code directories skipped
// (spec.md §6); derivative roots are walked in full.
func Create(ctx context.Context, fs afero.Fs, rawRoots []string, derivatives []DerivativeSpec, opts ...Option) (*Layout, error) {
	log := gobidscontext.Logger(ctx)
	b := NewBuilder(opts...)

	rawOpts := walker.Options{
		SkipTopLevelDirs: []string{"derivatives", "sourcedata", "code"},
		IgnoreDirs:       b.ignoreDirs,
		IgnoreFiles:      b.ignoreFiles,
	}
	for _, root := range rawRoots {
		rootLen := b.RegisterRoot(fs, root, roots.Raw, "")
		if err := walkInto(fs, root, rawOpts, b, rootLen); err != nil {
			return nil, err
		}
	}
	derivOpts := walker.Options{IgnoreDirs: b.ignoreDirs, IgnoreFiles: b.ignoreFiles}
	for _, deriv := range derivatives {
		for _, root := range deriv.Paths {
			rootLen := b.RegisterRoot(fs, root, roots.Labelled, deriv.Label)
			if err := walkInto(fs, root, derivOpts, b, rootLen); err != nil {
				return nil, err
			}
		}
	}

	layout := b.Finalize(ctx)
	layout.fs = fs
	layout.validationWarnings = b.ValidationWarnings
	if len(b.ValidationWarnings) > 0 {
		log.WithField("count", len(b.ValidationWarnings)).Debug("build finished with strict-mode validation warnings")
	}
	return layout, nil
}

func walkInto(fs afero.Fs, root string, opts walker.Options, b *LayoutBuilder, rootLen int) error {
	return walker.Walk(fs, root, opts, func(path string) error {
		b.AddPath(path, rootLen)
		return nil
	})
}

// Parse classifies a single path outside a full build pass, resolving
// its root prefix against whichever registered root it falls under (or
// treating it as root-less if none match). Strict mode surfaces a
// validation failure rather than recording a warning, since there is no
// corpus build for the caller to otherwise inspect.
func (l *Layout) Parse(path string) (*bidspath.BidsPath, error) {
	rootLen := 0
	if root, ok := l.roots.LocateRoot(path); ok {
		rootLen = bidspath.RootLen(root)
	}
	bp := bidspath.Build(path, rootLen, l.mode, l.entities, l.scan)
	if bp.Invalid && l.mode == bidspath.Strict {
		return bp, &gobids.ErrValidation{Path: path, Partial: bp}
	}
	return bp, nil
}

// NumPaths is the total number of indexed paths, ignoring any view.
func (l *Layout) NumPaths() int { return len(l.paths) }

// Len is the number of paths visible through the current view.
func (l *Layout) Len() int {
	if l.view != nil {
		return len(l.view)
	}
	return len(l.paths)
}

// View returns the sorted path ids visible through this Layout.
func (l *Layout) View() []int {
	if l.view != nil {
		out := make([]int, len(l.view))
		copy(out, l.view)
		return out
	}
	out := make([]int, len(l.paths))
	for i := range out {
		out[i] = i
	}
	return out
}

func (l *Layout) viewSet() map[int]struct{} {
	set := make(map[int]struct{}, l.Len())
	if l.view != nil {
		for _, id := range l.view {
			set[id] = struct{}{}
		}
		return set
	}
	for i := range l.paths {
		set[i] = struct{}{}
	}
	return set
}

func (l *Layout) knownKeys() map[string]bool {
	keys := l.entities.Keys()
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}
	return out
}

// GetPath returns a resolved copy of the i'th visible path, with any
// uncertain parents promoted or dropped against this Layout's current
// confirmed entity-key set. i indexes into the view, not the raw
// corpus — see NumPaths for the size of the unfiltered id space.
func (l *Layout) GetPath(i int) (*bidspath.BidsPath, bool) {
	ix := i
	if l.view != nil {
		if i < 0 || i >= len(l.view) {
			return nil, false
		}
		ix = l.view[i]
	}
	if ix < 0 || ix >= len(l.paths) {
		return nil, false
	}
	bp := l.paths[ix].Clone()
	bp.UpdateParents(bp.Path, l.knownKeys())
	return bp, true
}

// GetPaths returns a resolved copy of every visible path, in view order.
func (l *Layout) GetPaths() []*bidspath.BidsPath {
	n := l.Len()
	out := make([]*bidspath.BidsPath, 0, n)
	known := l.knownKeys()
	ids := l.View()
	for _, ix := range ids {
		bp := l.paths[ix].Clone()
		bp.UpdateParents(bp.Path, known)
		out = append(out, bp)
	}
	return out
}

// GetRoots returns every registered root prefix visible through the
// current view.
func (l *Layout) GetRoots() []string { return l.filterRootKeys(func(roots.Category) bool { return true }) }

// GetRawRoots returns raw-category roots visible through the view.
func (l *Layout) GetRawRoots() []string {
	return l.filterRootKeys(func(c roots.Category) bool { return c == roots.Raw })
}

// GetDerivativeRoots returns derivative/labelled roots visible through
// the view.
func (l *Layout) GetDerivativeRoots() []string {
	return l.filterRootKeys(func(c roots.Category) bool { return c != roots.Raw })
}

func (l *Layout) filterRootKeys(keep func(roots.Category) bool) []string {
	view := l.view
	var out []string
	for _, key := range l.roots.Keys() {
		rec, ok := l.roots.Record(key)
		if !ok || !keep(rec.Category) {
			continue
		}
		if view == nil {
			out = append(out, key)
			continue
		}
		for _, id := range view {
			if rec.Ranges.Contains(id) {
				out = append(out, key)
				break
			}
		}
	}
	return out
}

// EntityKeys returns every confirmed entity key visible in this Layout.
func (l *Layout) EntityKeys() []string { return l.entities.Keys() }

// EntityVals returns the distinct values recorded for key.
func (l *Layout) EntityVals(key string) []string { return l.entities.Values(key) }

// EntityKeyVals returns every entity key mapped to its distinct values.
func (l *Layout) EntityKeyVals() map[string][]string {
	out := map[string][]string{}
	for _, key := range l.entities.Keys() {
		out[key] = l.entities.Values(key)
	}
	return out
}

// MetadataKeyVals returns the indexed metadata keys mapped to their
// distinct values, or nil if IndexMetadata has not run yet.
func (l *Layout) MetadataKeyVals() map[string][]string {
	if l.metadata == nil {
		return nil
	}
	out := map[string][]string{}
	for _, key := range l.metadata.Keys() {
		out[key] = l.metadata.Values(key)
	}
	return out
}

// UnresolvedScopes returns the scope names from the most recent Query
// call that matched no root, by literal/label/pipeline rule (spec.md
// §9 open question 2: suppressed rather than raised as an error).
func (l *Layout) UnresolvedScopes() []string { return l.unresolvedScopes }

// IndexMetadata builds the sidecar metadata index the first time it is
// called; later calls are no-ops (spec.md §4.7, single-assignment
// semantics per §5).
func (l *Layout) IndexMetadata() {
	l.metadataOnce.Do(func() {
		l.metadata = buildMetadataIndex(l)
	})
}

func (l *Layout) String() string {
	return fmt.Sprintf("Layout{paths=%d, view=%d, roots=%v}", len(l.paths), l.Len(), l.roots.Keys())
}
