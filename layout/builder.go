// Package layout implements the immutable Layout container and its
// build/query/metadata machinery from spec.md §4.6-§4.7: LayoutBuilder
// walks a corpus of paths into BidsPaths, confirming entities and
// registering roots as it goes; Finalize resolves every deferred
// decision once and hands back a read-only Layout.
//
// Grounded on original_source/src/layout.rs (Layout::create, Layout's
// field shape) and src/layout/builders/layout_builder.rs (register_root
// /add_path/finalize/normalize_roots), adapted to Go's entitytable/roots
// /filetree/bidspath packages instead of src/layout.rs's single-file
// EntityTable+DatasetRoot types.
package layout

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	gobids "github.com/pvandyken/gobids"
	"github.com/pvandyken/gobids/bidspath"
	"github.com/pvandyken/gobids/entitytable"
	"github.com/pvandyken/gobids/filetree"
	"github.com/pvandyken/gobids/gobidscontext"
	"github.com/pvandyken/gobids/pathcache"
	"github.com/pvandyken/gobids/roots"
	"github.com/spf13/afero"
)

// Option configures a LayoutBuilder.
type Option func(*LayoutBuilder)

// WithStrict selects strict parsing: a path whose final component isn't
// a valid suffix-bearing filename is recorded as a validation warning
// instead of a silent generic-mode guess (spec.md §9 note 4; generic
// stays the default per DESIGN.md's pinned decision).
func WithStrict(strict bool) Option {
	return func(b *LayoutBuilder) {
		if strict {
			b.mode = bidspath.Strict
		} else {
			b.mode = bidspath.Generic
		}
	}
}

// WithCache layers a pathcache.Provider in front of every component
// classification the build performs, via pathcache.CachingScanner —
// grounded on distribution's optional blob-descriptor cache tier, which
// sits in front of storage reads the same way without the core read
// path ever depending on one existing.
func WithCache(provider pathcache.Provider) Option {
	return func(b *LayoutBuilder) {
		if provider == nil {
			return
		}
		scanner := &pathcache.CachingScanner{Provider: provider}
		b.scan = scanner.ScanComponent
	}
}

// WithIgnore extends the walker's built-in ignore rules with
// corpus-wide directory and file names, pruned at any depth under
// every root Create walks (the config package's IgnoreDirs/IgnoreFiles
// fields feed this).
func WithIgnore(dirs, files []string) Option {
	return func(b *LayoutBuilder) {
		b.ignoreDirs = append(b.ignoreDirs, dirs...)
		b.ignoreFiles = append(b.ignoreFiles, files...)
	}
}

// pendingRoot is the root currently being populated: its range is
// closed out (End set to the current path count) the next time
// RegisterRoot or Finalize runs.
type pendingRoot struct {
	root     string
	category roots.Category
	label    string
	desc     *roots.DatasetDescription
	start    int
}

// LayoutBuilder accumulates paths, entities and roots during a single
// build pass. It is a single-owner transient: discard it once Finalize
// has produced a Layout (spec.md §5's concurrency model).
type LayoutBuilder struct {
	paths    []*bidspath.BidsPath
	entities *entitytable.Table
	registry *roots.Registry
	heads    map[string]map[int]struct{}
	mode     bidspath.Mode

	ignoreDirs  []string
	ignoreFiles []string
	scan        bidspath.Scanner

	pending *pendingRoot

	// ValidationWarnings accumulates strict-mode rejections encountered
	// during the build instead of aborting it (SPEC_FULL.md's validate
	// supplement, exposed through WithStrict, over src/layout.rs's bare
	// "ignoring validation errors for now").
	ValidationWarnings []error
}

// NewBuilder returns an empty LayoutBuilder.
func NewBuilder(opts ...Option) *LayoutBuilder {
	b := &LayoutBuilder{
		entities: entitytable.New(),
		registry: roots.NewRegistry(),
		heads:    map[string]map[int]struct{}{},
		mode:     bidspath.Generic,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *LayoutBuilder) currentPath() int { return len(b.paths) }

func (b *LayoutBuilder) closePending() {
	if b.pending == nil {
		return
	}
	rng := roots.Range{Start: b.pending.start, End: b.currentPath()}
	switch b.pending.category {
	case roots.Raw:
		b.registry.AddRaw(b.pending.root, rng, b.pending.desc)
	default:
		b.registry.AddDerivative(b.pending.root, rng, b.pending.label, b.pending.desc)
	}
	b.pending = nil
}

// RegisterRoot closes out whichever root was open and opens root as the
// new current one, returning the byte length AddPath should use as that
// root's prefix length for every path walked under it.
func (b *LayoutBuilder) RegisterRoot(fs afero.Fs, root string, category roots.Category, label string) int {
	b.closePending()
	desc, _ := roots.OpenDatasetDescription(fs, root)
	b.pending = &pendingRoot{root: root, category: category, label: label, desc: desc, start: b.currentPath()}
	return bidspath.RootLen(root)
}

// AddPath classifies path (rootLen from the RegisterRoot call that
// opened the currently active root) and folds its entities into the
// corpus-wide table. Validation failures never abort the build; in
// strict mode they are recorded on ValidationWarnings (spec.md §7's
// "ignoring validation errors for now", made inspectable rather than
// silently dropped).
func (b *LayoutBuilder) AddPath(path string, rootLen int) {
	id := b.currentPath()
	bp := bidspath.Build(path, rootLen, b.mode, b.entities, b.scan)

	for _, e := range bp.Entities {
		b.entities.AddConfirmed(id, e.Key, e.Value(path))
	}
	for _, up := range bp.UncertainParents {
		b.entities.Add(id, up.Key, up.ValSpan.Slice(path))
	}
	// datatype/suffix/extension are first-class entities alongside the
	// key-value pairs above (spec.md §3's entity-table invariant; generic.rs's
	// add_entity("datatype"/"suffix"/"extension", …) calls).
	if bp.Datatype != nil {
		b.entities.AddConfirmed(id, "datatype", bp.Datatype.Slice(path))
	}
	if bp.Suffix != nil {
		b.entities.AddConfirmed(id, "suffix", bp.Suffix.Slice(path))
	}
	if bp.Extension != nil {
		b.entities.AddConfirmed(id, "extension", bp.Extension.Slice(path))
	}

	head := path[:bp.Head]
	if b.heads[head] == nil {
		b.heads[head] = map[int]struct{}{}
	}
	b.heads[head][id] = struct{}{}

	if bp.Invalid && b.mode == bidspath.Strict {
		b.ValidationWarnings = append(b.ValidationWarnings, &gobids.ErrValidation{Path: path, Partial: bp})
	}

	b.paths = append(b.paths, bp)
}

// resolveUncertainDatatypes promotes, for each path, the deepest
// uncertain datatype candidate whose linked parent key ended up
// confirmed; everything shallower than that candidate is demoted to
// Parts, and everything deeper is discarded outright — this mirrors
// layout_builder.rs's pop-from-the-end first_valid_datatype search,
// which consumes (and drops) every deeper candidate it rejects before
// returning the first match.
func (b *LayoutBuilder) resolveUncertainDatatypes() {
	for _, bp := range b.paths {
		if len(bp.UncertainDatatypes) == 0 {
			continue
		}
		dts := bp.UncertainDatatypes
		bp.UncertainDatatypes = nil

		chosen := -1
		for i := len(dts) - 1; i >= 0; i-- {
			if b.entities.IsKnownEntity(dts[i].LinkedParentKey) {
				chosen = i
				break
			}
		}
		if chosen < 0 {
			continue
		}
		span := dts[chosen].Span
		bp.Datatype = &span
		for i := 0; i < chosen; i++ {
			bp.Parts = append(bp.Parts, dts[i].Span)
		}
	}
}

// dirDepth returns the number of named directory components leading up
// to path's filename, used to bucket paths for the metadata indexer's
// deepest-first sidecar scan.
func dirDepth(path string) int {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return 0
	}
	return len(filetree.SplitDir(path[:idx]))
}

// Finalize resolves every deferred decision — uncertain datatypes, root
// normalization against observed heads — and returns the immutable
// Layout. The builder must not be reused afterward.
func (b *LayoutBuilder) Finalize(ctx context.Context) *Layout {
	b.closePending()
	b.resolveUncertainDatatypes()

	heads := make([]string, 0, len(b.heads))
	for h := range b.heads {
		heads = append(heads, h)
	}
	b.registry.Normalize(heads, gobidscontext.Logger(ctx))

	tree := filetree.New()
	depths := map[int]map[int]struct{}{}
	for id, bp := range b.paths {
		dir := filepath.Dir(bp.Path)
		tree.Insert(filetree.SplitDir(dir), id)
		d := dirDepth(bp.Path)
		if depths[d] == nil {
			depths[d] = map[int]struct{}{}
		}
		depths[d][id] = struct{}{}
	}

	depthOrder := make([]int, 0, len(depths))
	for d := range depths {
		depthOrder = append(depthOrder, d)
	}
	sort.Ints(depthOrder)

	return &Layout{
		paths:      b.paths,
		entities:   b.entities,
		roots:      b.registry,
		filetree:   tree,
		depths:     depths,
		depthOrder: depthOrder,
		mode:       b.mode,
		scan:       b.scan,
	}
}
