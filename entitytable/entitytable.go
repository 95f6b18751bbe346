// Package entitytable implements the two-level inverted index from
// spec.md §4.3: entity key -> value -> set of path ids, plus a pending
// twin table holding key-value pairs seen on directory components whose
// key was not yet a recognized entity.
//
// Grounded on original_source/src/layout/entity_table.rs's
// HashMap<String, HashMap<String, HashSet<usize>>> shape and on the
// confirm/add-and-confirm bookkeeping in
// src/layout/builders/layout_builder.rs, folded into a single type so it
// can directly satisfy bidspath.Knowledge during the build pass.
package entitytable

import (
	"sort"

	"github.com/pvandyken/gobids/standards"
)

// pathSet is the set of path ids carrying one entity=value pair.
type pathSet map[int]struct{}

func (s pathSet) add(id int) { s[id] = struct{}{} }

func (s pathSet) slice() []int {
	out := make([]int, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// valueIndex maps a value to the set of paths carrying it.
type valueIndex map[string]pathSet

// entityIndex maps an entity key to its valueIndex. It is a named map
// type solely so insert can be defined as a method on it.
type entityIndex map[string]valueIndex

// Table is the corpus-wide entity index built while paths are parsed.
// A zero Table is ready to use.
type Table struct {
	confirmed entityIndex
	pending   entityIndex
	// learned holds keys confirmed during this build that are not part
	// of the built-in standards table, so later paths recognize them as
	// known entities too (spec.md §9 note 2, "corpus-wide confirmation").
	learned map[string]bool
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		confirmed: entityIndex{},
		pending:   entityIndex{},
		learned:   map[string]bool{},
	}
}

// IsKnownEntity reports whether key is a recognized entity: either part
// of the built-in standards vocabulary or confirmed earlier in this
// build. Satisfies bidspath.Knowledge.
func (t *Table) IsKnownEntity(key string) bool {
	if standards.IsKnownEntity(key) {
		return true
	}
	return t.learned[key]
}

// IsDatatype satisfies bidspath.Knowledge by delegating to standards.
func (t *Table) IsDatatype(name string) bool { return standards.IsDatatype(name) }

// Canonical satisfies bidspath.Knowledge by delegating to standards.
func (t *Table) Canonical(key string) string { return standards.Canonical(key) }

// LongForm satisfies bidspath's optional longFormer interface.
func (t *Table) LongForm(key string) string { return standards.LongForm(key) }

func (idx entityIndex) insert(key, value string, id int) {
	vi, ok := idx[key]
	if !ok {
		vi = valueIndex{}
		idx[key] = vi
	}
	ps, ok := vi[value]
	if !ok {
		ps = pathSet{}
		vi[value] = ps
	}
	ps.add(id)
}

// Add records key=value for path id. If key is already known (built-in
// or previously confirmed) the pair goes straight into the confirmed
// table; otherwise it is held in the pending table until Confirm is
// called for key.
func (t *Table) Add(id int, key, value string) {
	if t.IsKnownEntity(key) {
		t.confirmed.insert(key, value, id)
		return
	}
	t.pending.insert(key, value, id)
}

// AddConfirmed records key=value for path id directly into the
// confirmed table and marks key as known from now on, regardless of
// whether it was recognized before. LayoutBuilder.AddPath records every
// entity bidspath.Build resolved (filename-level ones included, which
// are never deferred) through this rather than Add.
func (t *Table) AddConfirmed(id int, key, value string) {
	t.confirm(key)
	t.confirmed.insert(key, value, id)
}

// Confirm promotes every pending key=value pair recorded under key into
// the confirmed table, and marks key as known for any path parsed after
// this call.
func (t *Table) Confirm(key string) {
	t.confirm(key)
}

func (t *Table) confirm(key string) {
	if t.learned[key] {
		return
	}
	t.learned[key] = true
	if vi, ok := t.pending[key]; ok {
		for value, ps := range vi {
			for id := range ps {
				t.confirmed.insert(key, value, id)
			}
		}
		delete(t.pending, key)
	}
}

// Keys returns every confirmed entity key, sorted.
func (t *Table) Keys() []string {
	out := make([]string, 0, len(t.confirmed))
	for k := range t.confirmed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Values returns the distinct confirmed values recorded for key, sorted.
func (t *Table) Values(key string) []string {
	vi, ok := t.confirmed[key]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(vi))
	for v := range vi {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// PathIDs returns the sorted path ids carrying key=value in the
// confirmed table.
func (t *Table) PathIDs(key, value string) []int {
	vi, ok := t.confirmed[key]
	if !ok {
		return nil
	}
	return vi[value].slice()
}

// HasKey reports whether key has any confirmed values.
func (t *Table) HasKey(key string) bool {
	_, ok := t.confirmed[key]
	return ok
}

// Extend bulk-inserts key=value for every id in ids directly into the
// confirmed table (spec.md §4.3's "extend(entity, value, ids)"), used by
// the metadata indexer to assign a sidecar value to every surviving
// candidate path at once.
func (t *Table) Extend(key, value string, ids []int) {
	for _, id := range ids {
		t.confirmed.insert(key, value, id)
	}
}

// AllIDs returns the union, sorted, of every path id carrying any value
// for key in the confirmed table.
func (t *Table) AllIDs(key string) []int {
	vi, ok := t.confirmed[key]
	if !ok {
		return nil
	}
	set := map[int]struct{}{}
	for _, ps := range vi {
		for id := range ps {
			set[id] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Snapshot returns a deep copy of the confirmed table as plain maps,
// suitable for read-only iteration or for seeding FromSnapshot.
func (t *Table) Snapshot() map[string]map[string][]int {
	out := make(map[string]map[string][]int, len(t.confirmed))
	for key, vi := range t.confirmed {
		vals := make(map[string][]int, len(vi))
		for value, ps := range vi {
			vals[value] = ps.slice()
		}
		out[key] = vals
	}
	return out
}

// FromSnapshot builds a Table whose confirmed rows are the given
// entity -> value -> ids map; it carries no pending rows and no learned
// keys, since it is meant for already-resolved query-result tables
// rather than a build-time corpus index.
func FromSnapshot(snapshot map[string]map[string][]int) *Table {
	t := New()
	for key, vals := range snapshot {
		for value, ids := range vals {
			for _, id := range ids {
				t.confirmed.insert(key, value, id)
			}
		}
	}
	return t
}

// Filter returns a new Table (spec.md §4.3's "filter(mask) returning a
// new table where only ids in mask remain") keeping only ids present in
// mask; value rows and entity rows left empty by the restriction are
// dropped entirely.
func (t *Table) Filter(mask map[int]struct{}) *Table {
	out := New()
	for key, vi := range t.confirmed {
		for value, ps := range vi {
			for id := range ps {
				if _, ok := mask[id]; ok {
					out.confirmed.insert(key, value, id)
				}
			}
		}
	}
	return out
}

// PendingKeys returns the keys still awaiting confirmation, sorted.
// Exposed for diagnostics and tests; builders never need to act on it
// directly since confirmation happens during the build pass.
func (t *Table) PendingKeys() []string {
	out := make([]string, 0, len(t.pending))
	for k := range t.pending {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DropPending discards any still-unconfirmed pending entries for key.
// The layout builder does not call it; unconfirmed pending entries
// simply stay out of the confirmed table.
func (t *Table) DropPending(key string) {
	delete(t.pending, key)
}
