// Package pathcache provides a pluggable cache of parsed path
// components, keyed by raw component text (e.g. "sub-01" or
// "T1w.nii.gz"), so a large corpus that repeats the same directory and
// filename shapes thousands of times does not re-run the tokenizer on
// every occurrence.
//
// Adapted directly from distribution's blob-descriptor cache: the
// Register/Get backend-provider registry in
// registry/storage/cache/cache.go + cache/provider/cacheprovider.go,
// retargeted from "cache blob descriptors by digest" to "cache
// component classifications by text".
package pathcache

import (
	"fmt"

	"github.com/pvandyken/gobids/grammar"
)

// Provider caches ComponentType classifications by raw component text.
type Provider interface {
	Get(component string) (grammar.ComponentType, bool)
	Set(component string, ct grammar.ComponentType)
}

// InitFunc constructs a Provider from backend-specific options, the way
// registry/storage/cache/memory.NewBlobDescriptorCacheProvider does.
type InitFunc func(options map[string]interface{}) (Provider, error)

var providers map[string]InitFunc

// Register adds an InitFunc under name. Backend packages call this from
// an init() function, the way cache/memory does.
func Register(name string, initFunc InitFunc) error {
	if providers == nil {
		providers = make(map[string]InitFunc)
	}
	if _, exists := providers[name]; exists {
		return fmt.Errorf("pathcache: name already registered: %s", name)
	}
	providers[name] = initFunc
	return nil
}

// Get constructs a Provider using the named backend.
func Get(name string, options map[string]interface{}) (Provider, error) {
	initFunc, exists := providers[name]
	if !exists {
		return nil, fmt.Errorf("pathcache: no provider registered with name: %s", name)
	}
	return initFunc(options)
}

// CachingScanner wraps grammar.ScanComponent with a Provider, splitting
// the cache key out of the path substring itself so repeated component
// text across many paths shares one cache entry regardless of its byte
// offset in any particular path.
type CachingScanner struct {
	Provider Provider
}

// ScanComponent behaves like grammar.ScanComponent, consulting and
// populating the cache on the component's raw text. Scan errors
// (e.g. grammar.ErrLoneParts) are not cached, since spec.md §9 treats
// them as per-occurrence parser-tolerance decisions rather than a
// property of the text alone — caching them would be harmless today,
// but the failure path is rare enough that skipping it keeps the cache
// free of BidsPath.Invalid-driving results under future callers that
// change how errors are surfaced.
func (c *CachingScanner) ScanComponent(path string, base, end int) (grammar.ComponentType, error) {
	key := path[base:end]
	if ct, ok := c.Provider.Get(key); ok {
		return rebase(ct, base), nil
	}
	ct, err := grammar.ScanComponent(path, base, end)
	if err != nil {
		return ct, err
	}
	c.Provider.Set(key, rebase(ct, -base))
	return ct, nil
}

// rebase shifts every span in ct by delta, converting between a
// cached, zero-based ComponentType and one positioned at a particular
// path offset.
func rebase(ct grammar.ComponentType, delta int) grammar.ComponentType {
	if delta == 0 && isZeroBased(ct) {
		return ct
	}
	out := grammar.ComponentType{Kind: ct.Kind, Elements: make([]grammar.Element, len(ct.Elements))}
	for i, e := range ct.Elements {
		ne := e
		switch e.Kind {
		case grammar.ElemKeyVal:
			ne.KeyVal = grammar.KeyVal{
				KeySpan: shift(e.KeyVal.KeySpan, delta),
				ValSpan: shift(e.KeyVal.ValSpan, delta),
			}
		default:
			ne.Span = shift(e.Span, delta)
		}
		out.Elements[i] = ne
	}
	return out
}

func shift(s grammar.Span, delta int) grammar.Span {
	return grammar.Span{Start: s.Start + delta, End: s.End + delta}
}

// isZeroBased reports whether ct's first span already starts at 0,
// letting ScanComponent skip a reallocation when base == 0.
func isZeroBased(ct grammar.ComponentType) bool {
	if len(ct.Elements) == 0 {
		return true
	}
	e := ct.Elements[0]
	if e.Kind == grammar.ElemKeyVal {
		return e.KeyVal.KeySpan.Start == 0
	}
	return e.Span.Start == 0
}
