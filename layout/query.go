package layout

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	gobids "github.com/pvandyken/gobids"
	"github.com/pvandyken/gobids/entitytable"
	"github.com/pvandyken/gobids/standards"
)

// TermKind discriminates a QueryTerm's payload (spec.md §4.6's
// QueryTerm sum type, reduced to a tagged struct since Go has no
// variant types).
type TermKind int

const (
	TermString TermKind = iota
	TermNumber
	TermBool
	TermAny
)

// QueryTerm is one accepted value for an entity query, constructed via
// Str/Num/Bool/Any rather than a struct literal.
type QueryTerm struct {
	kind TermKind
	str  string
	num  uint64
	flag bool
}

// Str matches an entity value exactly.
func Str(s string) QueryTerm { return QueryTerm{kind: TermString, str: s} }

// Num matches an entity value that parses as the given unsigned integer.
func Num(n uint64) QueryTerm { return QueryTerm{kind: TermNumber, num: n} }

// Bool(true) accepts any value for the entity; Bool(false) accepts only
// ids carrying no value for it.
func Bool(b bool) QueryTerm { return QueryTerm{kind: TermBool, flag: b} }

// Any places no restriction on the entity beyond requiring it exist in
// the query map (used as a placeholder in generated queries).
func Any() QueryTerm { return QueryTerm{kind: TermAny} }

// Query maps entity keys (short or long alias, with an optional trailing
// underscore; matching is case-sensitive) to their accepted
// terms; multiple terms for one key are unioned before being
// intersected against every other queried key.
type Query map[string][]QueryTerm

func normalizeQuery(q Query) Query {
	out := make(Query, len(q))
	for key, terms := range q {
		canon := standards.Canonical(strings.TrimSuffix(key, "_"))
		out[canon] = append(out[canon], terms...)
	}
	return out
}

// queryEntity resolves one entity's accepted terms against a table
// (regular or metadata) and the current view, returning the set of
// matching ids.
func queryEntity(table *entitytable.Table, view map[int]struct{}, key string, terms []QueryTerm) (map[int]struct{}, error) {
	if !table.HasKey(key) {
		for _, t := range terms {
			if t.kind == TermBool && !t.flag {
				// Bool(false) against a wholly-absent entity matches
				// the entire view; no MissingEntity failure in that
				// case since there is nothing to be missing.
				out := map[int]struct{}{}
				for id := range view {
					out[id] = struct{}{}
				}
				return out, nil
			}
		}
		return nil, &gobids.ErrMissingEntity{Keys: []string{key}}
	}

	result := map[int]struct{}{}
	for _, term := range terms {
		switch term.kind {
		case TermAny:
			for id := range view {
				result[id] = struct{}{}
			}
		case TermBool:
			if term.flag {
				for _, id := range table.AllIDs(key) {
					result[id] = struct{}{}
				}
			} else {
				present := map[int]struct{}{}
				for _, id := range table.AllIDs(key) {
					present[id] = struct{}{}
				}
				for id := range view {
					if _, ok := present[id]; !ok {
						result[id] = struct{}{}
					}
				}
			}
		case TermString:
			ids := table.PathIDs(key, term.str)
			if len(ids) == 0 {
				return nil, &gobids.ErrMissingVal{Key: key, Vals: []string{term.str}}
			}
			for _, id := range ids {
				result[id] = struct{}{}
			}
		case TermNumber:
			var matchedValue string
			matchedValues := map[string]struct{}{}
			for _, val := range table.Values(key) {
				n, err := strconv.ParseUint(val, 10, 64)
				if err != nil || n != term.num {
					continue
				}
				matchedValue = val
				matchedValues[val] = struct{}{}
			}
			if len(matchedValues) > 1 {
				matches := make([]string, 0, len(matchedValues))
				for v := range matchedValues {
					matches = append(matches, v)
				}
				return nil, &gobids.ErrAmbiguousQuery{Key: key, Number: term.num, Matches: matches}
			}
			if len(matchedValues) == 0 {
				return nil, &gobids.ErrMissingVal{Key: key, Vals: []string{strconv.FormatUint(term.num, 10)}}
			}
			for _, id := range table.PathIDs(key, matchedValue) {
				result[id] = struct{}{}
			}
		}
	}
	return result, nil
}

// Query resolves q against this Layout, restricts to rootScopes (exact
// root paths or glob patterns) if given, intersects with mask if given,
// and returns a new Layout whose view is the surviving id set. A nil
// receiver view means "every path"; the result is always sorted.
func (l *Layout) Query(q Query, rootScopes []string, mask map[int]struct{}) (*Layout, error) {
	view := l.viewSet()

	var intersection map[int]struct{}
	if len(q) > 0 {
		norm := normalizeQuery(q)
		for key, terms := range norm {
			regular, err := queryEntity(l.entities, view, key, terms)
			if _, missing := err.(*gobids.ErrMissingEntity); missing && l.metadata != nil && l.metadata.HasKey(key) {
				// A key known only to the metadata table is not missing.
				regular, err = map[int]struct{}{}, nil
			}
			if err != nil {
				return nil, err
			}
			selected := regular
			if l.metadata != nil {
				meta, err := queryEntity(l.metadata, view, key, terms)
				if err == nil {
					for id := range meta {
						selected[id] = struct{}{}
					}
				}
			}
			if intersection == nil {
				intersection = selected
			} else {
				intersection = intersectSets(intersection, selected)
			}
		}
	} else {
		intersection = view
	}

	var unresolvedScopes []string
	if len(rootScopes) > 0 {
		resolved, all, unresolved := l.roots.ResolveScopes(rootScopes)
		matched := resolved
		if !all && len(unresolved) > 0 {
			// Scopes matching neither a registry rule nor a glob/literal
			// root are suppressed rather than raised as an error.
			for _, scope := range unresolved {
				globMatched, err := l.roots.GlobRoots([]string{scope})
				if err != nil {
					return nil, &gobids.ErrGlob{Pattern: scope, Err: errors.Unwrap(err)}
				}
				if len(globMatched) == 0 {
					unresolvedScopes = append(unresolvedScopes, scope)
					continue
				}
				matched = append(matched, globMatched...)
			}
		}

		if !all {
			rootSet := map[int]struct{}{}
			for _, root := range matched {
				rec, ok := l.roots.Record(root)
				if !ok {
					continue
				}
				for _, id := range rec.Ranges.IDs() {
					rootSet[id] = struct{}{}
				}
			}
			intersection = intersectSets(intersection, rootSet)
		}
	}

	if mask != nil {
		intersection = intersectSets(intersection, mask)
	}

	intersection = intersectSets(intersection, view)

	ids := make([]int, 0, len(intersection))
	for id := range intersection {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := &Layout{
		paths:              l.paths,
		entities:           l.entities.Filter(intersection),
		roots:              l.roots,
		filetree:           l.filetree,
		depths:             l.depths,
		depthOrder:         l.depthOrder,
		mode:               l.mode,
		scan:               l.scan,
		fs:                 l.fs,
		view:               ids,
		unresolvedScopes:   unresolvedScopes,
		validationWarnings: l.validationWarnings,
	}
	if l.metadata != nil {
		out.metadata = l.metadata.Filter(intersection)
		out.metadataOnce.Do(func() {})
	}
	return out, nil
}

func intersectSets(a, b map[int]struct{}) map[int]struct{} {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	out := map[int]struct{}{}
	for id := range small {
		if _, ok := big[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}
