package gobids

import "fmt"

// Sentinel errors for conditions that carry no extra context.
var (
	// ErrInterrupt names a host-signalled cancellation during a directory
	// walk (spec.md §7). No gobids function returns it: the walker has no
	// cancellation hook.
	ErrInterrupt = fmt.Errorf("gobids: walk interrupted")

	// ErrNoView names an operation that needs a materialized view (e.g. a
	// query result) on a Layout that has none. No gobids function returns
	// it.
	ErrNoView = fmt.Errorf("gobids: layout has no materialized view")
)

// ErrEncoding names a filesystem path that is not valid UTF-8. No gobids
// function returns it: walked paths are passed on without a UTF-8 check.
type ErrEncoding struct {
	Path string
}

func (e *ErrEncoding) Error() string {
	return fmt.Sprintf("gobids: path is not valid utf-8: %q", e.Path)
}

// ErrValidation is returned when strict-mode parsing rejects a path. Path
// is the raw path string; Partial carries whatever bare, unannotated
// classification the parser had produced before rejecting — callers that
// need the concrete type assert it to *bidspath.BidsPath.
type ErrValidation struct {
	Path    string
	Partial interface{}
	Reason  string
}

func (e *ErrValidation) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("gobids: validation failed for %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("gobids: validation failed for %q", e.Path)
}

// ErrIO wraps a filesystem access failure (including not-found) that
// occurred while walking or reading a path.
type ErrIO struct {
	Path string
	Err  error
}

func (e *ErrIO) Error() string {
	return fmt.Sprintf("gobids: io error on %q: %v", e.Path, e.Err)
}

func (e *ErrIO) Unwrap() error { return e.Err }

// ErrGlob is returned when a root scope pattern fails to compile.
type ErrGlob struct {
	Pattern string
	Err     error
}

func (e *ErrGlob) Error() string {
	return fmt.Sprintf("gobids: invalid glob pattern %q: %v", e.Pattern, e.Err)
}

func (e *ErrGlob) Unwrap() error { return e.Err }

// ErrMissingEntity is returned when a query references entity keys the
// layout has never observed.
type ErrMissingEntity struct {
	Keys []string
}

func (e *ErrMissingEntity) Error() string {
	return fmt.Sprintf("gobids: unknown entities %v", e.Keys)
}

// ErrMissingVal is returned when a query references entity values that
// are not present among the stored values for that entity.
type ErrMissingVal struct {
	Key  string
	Vals []string
}

func (e *ErrMissingVal) Error() string {
	return fmt.Sprintf("gobids: could not find values %v for entity %q", e.Vals, e.Key)
}

// ErrAmbiguousQuery is returned when a numeric query term matches more than
// one distinct stored string value for the entity.
type ErrAmbiguousQuery struct {
	Key     string
	Number  uint64
	Matches []string
}

func (e *ErrAmbiguousQuery) Error() string {
	return fmt.Sprintf(
		"gobids: query '%s=%d' matched multiple possible values: %v; use a string query to be more specific",
		e.Key, e.Number, e.Matches,
	)
}

// ErrSerde wraps a (de)serialization failure encountered while saving or
// loading a cached Layout.
type ErrSerde struct {
	Err error
}

func (e *ErrSerde) Error() string { return fmt.Sprintf("gobids: serialization error: %v", e.Err) }

func (e *ErrSerde) Unwrap() error { return e.Err }

// ErrCache is returned when a cache file fails its format checks, such as
// a magic-declaration mismatch.
type ErrCache struct {
	Reason string
}

func (e *ErrCache) Error() string { return fmt.Sprintf("gobids: cache error: %s", e.Reason) }

// ErrMetadataRead names a JSON sidecar that cannot be opened or read. No
// gobids function returns it: the metadata indexer skips such sidecars.
type ErrMetadataRead struct {
	Path string
	Err  error
}

func (e *ErrMetadataRead) Error() string {
	return fmt.Sprintf("gobids: could not read sidecar %q: %v", e.Path, e.Err)
}

func (e *ErrMetadataRead) Unwrap() error { return e.Err }

// ErrMetadataFormat names a JSON sidecar that does not decode to a flat
// object. No gobids function returns it: the metadata indexer skips such
// sidecars.
type ErrMetadataFormat struct {
	Path string
}

func (e *ErrMetadataFormat) Error() string {
	return fmt.Sprintf("gobids: sidecar %q is not a flat json object", e.Path)
}
