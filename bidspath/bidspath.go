// Package bidspath implements the path classifier from spec.md §4.2: a
// small state machine that walks the ComponentType stream for one path
// and produces a fully-annotated BidsPath — entities, parents, datatype,
// suffix, extension, head, root — with a deferred-resolution channel for
// ambiguous parent/datatype decisions (spec.md §9).
//
// Grounded on original_source/src/layout/bidspath.rs and
// src/layout/builders/bidspath_builder.rs for the state machine's shape,
// and on distribution's reference.go sum-type-over-interface style for how
// the small closed variant types (Primitive, Elements, ComponentType) are
// expressed in grammar — here carried through as plain structs rather
// than interfaces, since none of the variants need distinct behavior.
package bidspath

import (
	"strings"

	"github.com/pvandyken/gobids/grammar"
)

// Mode selects strict or generic parsing (spec.md §4.2).
type Mode int

const (
	// Generic is the permissive mode: unknown keys are deferred rather
	// than rejected. It is gobids' default public mode (spec.md §9 note 4).
	Generic Mode = iota
	// Strict marks a path Invalid when its last component is not a
	// composite filename ending in a Suffix, or when a component fails to
	// scan. Entity and datatype recognition uses the same Knowledge as
	// Generic; names outside the built-in tables are not rejected.
	Strict
)

// Knowledge answers the classifier's "known-entity"/"known-datatype"
// questions. Implementations typically layer the built-in standards
// tables under the corpus' confirmed-entity set so far (see
// entitytable.Table.IsKnownEntity).
type Knowledge interface {
	IsKnownEntity(key string) bool
	IsDatatype(name string) bool
	Canonical(key string) string
}

// EntityKV is one resolved key-value pair: a canonical key plus the byte
// ranges of the key and value within the owning path string.
type EntityKV struct {
	Key     string
	KeySpan grammar.Span
	ValSpan grammar.Span
}

// Value slices the stored value out of path.
func (e EntityKV) Value(path string) string { return e.ValSpan.Slice(path) }

// UncertainParent is a directory-level KeyVal whose key was not a known
// entity at the time this path was parsed (spec.md §4.2, §9).
type UncertainParent struct {
	Key     string
	KeySpan grammar.Span
	ValSpan grammar.Span
}

// UncertainDatatype is a ZeroType directory component following an
// UncertainParent, deferred because it might be confirmed either as a
// known datatype or because its linked parent's key is later confirmed.
type UncertainDatatype struct {
	Name            string
	Span            grammar.Span
	LinkedParentKey string
}

// BidsPath is the fully-annotated parse of one path.
type BidsPath struct {
	Path string

	Root int
	Head int

	// Entities holds every resolved key-value pair on the path —
	// directory-level parents and filename-level entities alike —
	// keyed by first appearance, last write wins on repeats.
	Entities []EntityKV
	// Parents is the subset of Entities that annotate a directory
	// component rather than the filename itself.
	Parents []EntityKV

	Datatype  *grammar.Span
	Suffix    *grammar.Span // suffix text, extension excluded
	Extension *grammar.Span
	Parts     []grammar.Span

	UncertainParents   []UncertainParent
	UncertainDatatypes []UncertainDatatype

	// Invalid is set in Strict mode when the path fails validation; the
	// BidsPath is then "bare" (spec.md §7's ErrValidation payload) —
	// whatever was classified before the failure, with no guarantee the
	// remaining fields are complete.
	Invalid bool
}

// entityIndex returns the position of key in Entities, or -1.
func (bp *BidsPath) entityIndex(key string) int {
	for i, e := range bp.Entities {
		if e.Key == key {
			return i
		}
	}
	return -1
}

func (bp *BidsPath) setEntity(kv EntityKV) {
	if i := bp.entityIndex(kv.Key); i >= 0 {
		bp.Entities[i] = kv
		return
	}
	bp.Entities = append(bp.Entities, kv)
}

// Clone returns a deep-enough copy of bp: every slice field is copied so
// that mutating the clone (e.g. via UpdateParents) cannot affect a
// BidsPath shared by another Layout view over the same corpus.
func (bp *BidsPath) Clone() *BidsPath {
	cp := *bp
	cp.Entities = append([]EntityKV(nil), bp.Entities...)
	cp.Parents = append([]EntityKV(nil), bp.Parents...)
	cp.Parts = append([]grammar.Span(nil), bp.Parts...)
	cp.UncertainParents = append([]UncertainParent(nil), bp.UncertainParents...)
	cp.UncertainDatatypes = append([]UncertainDatatype(nil), bp.UncertainDatatypes...)
	return &cp
}

// UpdateParents resolves this path's deferred UncertainParents against
// the corpus-wide set of confirmed entity keys, promoting any whose key
// ended up confirmed into Parents and Entities and discarding the rest.
// It is a no-op once UncertainParents has already been drained, so
// callers may invoke it on every read without re-promoting twice.
func (bp *BidsPath) UpdateParents(path string, knownKeys map[string]bool) {
	if bp.UncertainParents == nil {
		return
	}
	for _, up := range bp.UncertainParents {
		if !knownKeys[up.Key] {
			continue
		}
		entry := EntityKV{Key: up.Key, KeySpan: up.KeySpan, ValSpan: up.ValSpan}
		bp.Parents = append(bp.Parents, entry)
		bp.setEntity(entry)
	}
	bp.UncertainParents = nil
}

// GetEntities returns the canonical-key -> value map for this path,
// including the datatype/suffix/extension entities alongside the
// key-value pairs in Entities (bidspath.rs's get_entities()).
func (bp *BidsPath) GetEntities(path string) map[string]string {
	out := make(map[string]string, len(bp.Entities)+3)
	for _, e := range bp.Entities {
		out[e.Key] = e.Value(path)
	}
	if bp.Datatype != nil {
		out["datatype"] = bp.Datatype.Slice(path)
	}
	if bp.Suffix != nil {
		out["suffix"] = bp.Suffix.Slice(path)
	}
	if bp.Extension != nil {
		out["extension"] = bp.Extension.Slice(path)
	}
	return out
}

// FullEntities is GetEntities with long-form keys, per spec.md §9's
// "get_full_entities" alias-expanded view.
func (bp *BidsPath) FullEntities(path string, known Knowledge) map[string]string {
	out := make(map[string]string, len(bp.Entities)+3)
	for _, e := range bp.Entities {
		out[longForm(known, e.Key)] = e.Value(path)
	}
	if bp.Datatype != nil {
		out[longForm(known, "datatype")] = bp.Datatype.Slice(path)
	}
	if bp.Suffix != nil {
		out[longForm(known, "suffix")] = bp.Suffix.Slice(path)
	}
	if bp.Extension != nil {
		out[longForm(known, "extension")] = bp.Extension.Slice(path)
	}
	return out
}

func longForm(known Knowledge, key string) string {
	type longFormer interface{ LongForm(string) string }
	if lf, ok := known.(longFormer); ok {
		return lf.LongForm(key)
	}
	return key
}

// classifyState tracks the state machine's last classification, per the
// table in spec.md §4.2.
type classifyState int

const (
	stateHead classifyState = iota
	stateParent
	stateName
	stateUncertainParent
)

// Scanner classifies one raw component's text into a ComponentType.
// grammar.ScanComponent is the zero-value behavior; a caller that wants
// a memoized classification (e.g. pathcache.CachingScanner.ScanComponent,
// for a corpus that repeats the same component text heavily) passes its
// own Scanner to Build.
type Scanner func(path string, base, end int) (grammar.ComponentType, error)

// Build parses path (rootLen is the byte length of the configured root
// prefix for this path, spec.md §4.2 "Root and head") into a BidsPath
// under the given mode and entity knowledge. scan overrides component
// classification; omit it to use grammar.ScanComponent directly.
func Build(path string, rootLen int, mode Mode, known Knowledge, scan ...Scanner) *BidsPath {
	var scanComponent Scanner = grammar.ScanComponent
	if len(scan) > 0 && scan[0] != nil {
		scanComponent = scan[0]
	}
	comps := splitComponentsFrom(path, rootLen)

	bp := &BidsPath{Path: path, Root: rootLen, Head: rootLen}

	state := stateHead
	var lastUncertainKey string
	head := rootLen

	for i, comp := range comps {
		isLast := i == len(comps)-1

		ct, err := scanComponent(path, comp.Start, comp.End)
		if err != nil {
			// A malformed component (e.g. a lone Part) is tolerated as
			// an opaque Part in generic mode; strict mode rejects it.
			if mode == Strict {
				bp.Invalid = true
			}
			bp.Parts = append(bp.Parts, comp)
			continue
		}

		if isLast && ct.Kind != grammar.Two {
			// The final component is the filename; a bare Zero/One
			// filename (no "_"-joined composite) is rejected in strict
			// mode (checked once, below, after the loop) but still
			// classified in generic mode (spec.md §9 note 4): a lone
			// Suffix becomes the suffix, a lone KeyVal is demoted to a Part.
			emitName(bp, path, ct)
			state = stateName
			continue
		}

		switch ct.Kind {
		case grammar.Two:
			emitName(bp, path, ct)
			state = stateName
			continue
		case grammar.Zero:
			handleZero(bp, path, comp, ct, known, &state, &head, &lastUncertainKey)
		case grammar.One:
			handleOne(bp, path, ct, known, &state, &head, &lastUncertainKey)
		}
	}

	bp.Head = head
	if bp.Root > bp.Head {
		bp.Root = bp.Head
	}

	if mode == Strict && len(comps) > 0 {
		last := comps[len(comps)-1]
		ct, err := scanComponent(path, last.Start, last.End)
		if err != nil || ct.Kind != grammar.Two || ct.Elements[len(ct.Elements)-1].Kind != grammar.ElemSuffix {
			bp.Invalid = true
		}
	}

	return bp
}

// emitName folds a TwoType (filename) component's elements into the
// BidsPath's entities/suffix/extension/parts.
func emitName(bp *BidsPath, path string, ct grammar.ComponentType) {
	elems := ct.Elements
	if elems[len(elems)-1].Kind != grammar.ElemSuffix {
		// Generic mode tolerates this by demoting the whole component
		// to Parts (spec.md §4.2); strict-mode rejection is applied by
		// the caller after the loop completes.
		elems = grammar.DemoteToParts(elems)
	}

	for i, e := range elems {
		switch e.Kind {
		case grammar.ElemKeyVal:
			bp.setEntity(EntityKV{
				Key:     e.KeyVal.Key(path),
				KeySpan: e.KeyVal.KeySpan,
				ValSpan: e.KeyVal.ValSpan,
			})
		case grammar.ElemSuffix:
			tail, ext, ok := grammar.SplitSuffixExtension(path, e.Span)
			s := tail
			bp.Suffix = &s
			if ok {
				e := ext
				bp.Extension = &e
			}
		case grammar.ElemPart:
			_ = i
			bp.Parts = append(bp.Parts, e.Span)
		}
	}
}

func handleZero(
	bp *BidsPath, path string, comp grammar.Span, ct grammar.ComponentType,
	known Knowledge, state *classifyState, head *int, lastUncertainKey *string,
) {
	name := ct.Elements[0].Span.Slice(path)

	switch *state {
	case stateHead:
		if known.IsDatatype(name) {
			s := ct.Elements[0].Span
			bp.Datatype = &s
			// The Datatype state shares the Datatype/Name row's
			// transitions, so it folds directly into stateName.
			*state = stateName
		} else {
			*head = comp.End
		}
	case stateParent:
		if known.IsDatatype(name) {
			s := ct.Elements[0].Span
			bp.Datatype = &s
		} else {
			bp.Parts = append(bp.Parts, comp)
		}
		*state = stateName
	case stateName:
		bp.Parts = append(bp.Parts, comp)
	case stateUncertainParent:
		if known.IsDatatype(name) {
			s := ct.Elements[0].Span
			bp.Datatype = &s
			*state = stateParent
		} else {
			bp.UncertainDatatypes = append(bp.UncertainDatatypes, UncertainDatatype{
				Name:            name,
				Span:            ct.Elements[0].Span,
				LinkedParentKey: *lastUncertainKey,
			})
		}
	}
}

func handleOne(
	bp *BidsPath, path string, ct grammar.ComponentType,
	known Knowledge, state *classifyState, head *int, lastUncertainKey *string,
) {
	kv := ct.Elements[0].KeyVal
	rawKey := kv.Key(path)
	key := known.Canonical(rawKey)

	switch *state {
	case stateHead:
		if known.IsKnownEntity(key) {
			entry := EntityKV{Key: key, KeySpan: kv.KeySpan, ValSpan: kv.ValSpan}
			bp.Parents = append(bp.Parents, entry)
			bp.setEntity(entry)
			*state = stateParent
		} else {
			bp.UncertainParents = append(bp.UncertainParents, UncertainParent{
				Key: key, KeySpan: kv.KeySpan, ValSpan: kv.ValSpan,
			})
			*lastUncertainKey = key
			*head = kv.ValSpan.End
			*state = stateUncertainParent
		}
	case stateParent:
		if known.IsKnownEntity(key) {
			entry := EntityKV{Key: key, KeySpan: kv.KeySpan, ValSpan: kv.ValSpan}
			bp.Parents = append(bp.Parents, entry)
			bp.setEntity(entry)
		} else {
			bp.Parts = append(bp.Parts, grammar.Span{Start: kv.KeySpan.Start, End: kv.ValSpan.End})
			*state = stateName
		}
	case stateName:
		if known.IsKnownEntity(key) {
			bp.setEntity(EntityKV{Key: key, KeySpan: kv.KeySpan, ValSpan: kv.ValSpan})
		} else {
			bp.Parts = append(bp.Parts, grammar.Span{Start: kv.KeySpan.Start, End: kv.ValSpan.End})
		}
	case stateUncertainParent:
		bp.UncertainParents = append(bp.UncertainParents, UncertainParent{
			Key: key, KeySpan: kv.KeySpan, ValSpan: kv.ValSpan,
		})
		*lastUncertainKey = key
	}
}

// splitComponentsFrom splits path[from:] on '/' into non-empty component
// spans, expressed as absolute offsets into path.
func splitComponentsFrom(path string, from int) []grammar.Span {
	if from > len(path) {
		from = len(path)
	}
	var spans []grammar.Span
	start := from
	for i := from; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				spans = append(spans, grammar.Span{Start: start, End: i})
			}
			start = i + 1
		}
	}
	return spans
}

// RootLen returns the byte length of root as a path prefix of path
// (spec.md §4.2's "root is the length of the configured root prefix").
// It does not validate that root is actually a prefix of path; callers
// establish that via the root registry.
func RootLen(root string) int {
	return len(strings.TrimSuffix(root, "/"))
}
