package roots

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
)

// Category classifies a registered root, spec.md §4.4's Raw /
// Derivative / Labelled(name) tag.
type Category int

const (
	Raw Category = iota
	Derivative
	Labelled
)

func (c Category) String() string {
	switch c {
	case Raw:
		return "raw"
	case Derivative:
		return "derivative"
	case Labelled:
		return "labelled"
	default:
		return "unknown"
	}
}

// RootRecord is one entry of the registry: the path-id ranges observed
// under a root, its category, and (for derivative roots) the pipeline
// label plus an optional dataset-description record.
type RootRecord struct {
	Ranges      *MultiRange
	Category    Category
	Label       string
	Description *DatasetDescription
}

// Registry is the root-prefix -> RootRecord mapping from spec.md §4.4.
type Registry struct {
	records map[string]*RootRecord
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{records: map[string]*RootRecord{}}
}

// RestoreRegistry rebuilds a Registry directly from previously captured
// records, bypassing the AddRaw/AddDerivative auto-labelling rules —
// used by the cache loader, whose serialized form already carries each
// record's resolved label and category.
func RestoreRegistry(records map[string]*RootRecord) *Registry {
	if records == nil {
		records = map[string]*RootRecord{}
	}
	return &Registry{records: records}
}

func (r *Registry) addRange(root string, rng Range, category Category, label string, desc *DatasetDescription) {
	rec, ok := r.records[root]
	if !ok {
		rec = &RootRecord{Ranges: NewMultiRange(), Category: category, Label: label, Description: desc}
		r.records[root] = rec
		rec.Ranges.Insert(rng)
		return
	}
	rec.Ranges.Insert(rng)
	if desc != nil {
		rec.Description = desc
	}
}

// AddRaw registers a range of path-ids under a raw dataset root.
func (r *Registry) AddRaw(root string, rng Range, desc *DatasetDescription) {
	r.addRange(root, rng, Raw, "", desc)
}

// AddDerivative registers a range of path-ids under a derivative root.
// When label is empty, it falls back to filepath.Base(root), whether or
// not desc is present; desc is stored but never used for the label.
func (r *Registry) AddDerivative(root string, rng Range, label string, desc *DatasetDescription) {
	if label == "" {
		label = filepath.Base(strings.TrimRight(root, string(filepath.Separator)))
	}
	r.addRange(root, rng, Labelled, label, desc)
}

// Keys returns every registered root prefix.
func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.records))
	for k := range r.records {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Record returns the RootRecord for root, if registered.
func (r *Registry) Record(root string) (*RootRecord, bool) {
	rec, ok := r.records[root]
	return rec, ok
}

func (r *Registry) keysByCategory(cat Category) []string {
	var out []string
	for k, rec := range r.records {
		if rec.Category == cat {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) keysByLabel(label string) []string {
	var out []string
	for k, rec := range r.records {
		if rec.Category == Labelled && rec.Label == label {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) keysByPipeline(name string) []string {
	var out []string
	for k, rec := range r.records {
		for _, pn := range rec.Description.PipelineNames() {
			if pn == name {
				out = append(out, k)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// ResolveScopes resolves scopes against the registry per spec.md §4.4's
// four-rule order: literal raw/self/derivatives/all, label equality,
// pipeline-name match, otherwise unresolved. matchAll reports "all" was
// present, short-circuiting any restriction. Unresolved scope names are
// returned rather than raised as an error (see DESIGN.md's open-question
// decision on suppressed scope-resolution errors).
func (r *Registry) ResolveScopes(scopes []string) (roots []string, matchAll bool, unresolved []string) {
	seen := map[string]bool{}
	add := func(keys []string) {
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				roots = append(roots, k)
			}
		}
	}
	for _, scope := range scopes {
		switch scope {
		case "raw", "self":
			add(r.keysByCategory(Raw))
		case "derivatives":
			add(r.keysByCategory(Derivative))
			add(r.keysByCategory(Labelled))
		case "all":
			return nil, true, nil
		default:
			if keys := r.keysByLabel(scope); len(keys) > 0 {
				add(keys)
				continue
			}
			if keys := r.keysByPipeline(scope); len(keys) > 0 {
				add(keys)
				continue
			}
			unresolved = append(unresolved, scope)
		}
	}
	sort.Strings(roots)
	return roots, false, unresolved
}

// GlobRoots returns the set of registered roots matching patterns,
// exact-matching against the registry first to avoid globbing paths
// that are not valid glob syntax (spec.md §4.6's root restriction).
func (r *Registry) GlobRoots(patterns []string) ([]string, error) {
	exact := map[string]bool{}
	var globs []string
	for _, p := range patterns {
		if _, ok := r.records[p]; ok {
			exact[p] = true
		} else {
			globs = append(globs, p)
		}
	}

	var out []string
	for k := range r.records {
		if exact[k] {
			out = append(out, k)
			continue
		}
		for _, g := range globs {
			ok, err := doublestar.Match(g, k)
			if err != nil {
				return nil, &globError{Pattern: g, Err: err}
			}
			if ok {
				out = append(out, k)
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// LocateRoot returns the longest registered root that path is stored
// under (a strict subpath or exact match), for resolving which root's
// prefix length to feed the classifier when a caller parses a single
// path outside a full build pass.
func (r *Registry) LocateRoot(path string) (string, bool) {
	best := ""
	found := false
	for root := range r.records {
		if root == path || isStrictSubpath(path, root) {
			if len(root) > len(best) {
				best = root
				found = true
			}
		}
	}
	return best, found
}

// isStrictSubpath reports whether root lies strictly under head as a
// path, not merely sharing a string prefix — "/a/bc" is not under
// "/a/b" even though strings.HasPrefix would say otherwise (spec.md §9,
// DESIGN.md's pinned divergence case).
func isStrictSubpath(root, head string) bool {
	head = strings.TrimRight(head, "/")
	if !strings.HasPrefix(root, head) {
		return false
	}
	rest := root[len(head):]
	return len(rest) > 0 && rest[0] == '/'
}

type globError struct {
	Pattern string
	Err     error
}

func (e *globError) Error() string { return "roots: invalid glob pattern " + e.Pattern + ": " + e.Err.Error() }
func (e *globError) Unwrap() error { return e.Err }

// Normalize collapses sibling subtree roots into a common discovered
// top-directory head: for every head in heads, a registered root that
// is a strict subpath of head (and is not itself one of heads) has its range
// merged up into head's record and is removed. Roots whose path is a
// parent of a registered root are left alone (spec.md §4.4).
func (r *Registry) Normalize(heads []string, log *logrus.Entry) {
	isHead := make(map[string]bool, len(heads))
	for _, h := range heads {
		isHead[h] = true
	}
	groups := map[string][]string{}
	for root := range r.records {
		if isHead[root] {
			continue
		}
		for _, h := range heads {
			if isStrictSubpath(root, h) {
				groups[h] = append(groups[h], root)
				break
			}
		}
	}

	for head, collapsedRoots := range groups {
		target, ok := r.records[head]
		for _, root := range collapsedRoots {
			rec := r.records[root]
			if !ok {
				target = &RootRecord{Ranges: NewMultiRange(), Category: rec.Category, Label: rec.Label, Description: rec.Description}
				r.records[head] = target
				ok = true
			}
			target.Ranges.Extend(rec.Ranges)
			delete(r.records, root)
			if log != nil {
				log.WithFields(logrus.Fields{"root": root, "head": head}).Debug("collapsed subtree root into head")
			}
		}
	}
}
