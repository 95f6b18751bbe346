// Package walker implements the reference filesystem walk from spec.md
// §6: skip dot-prefixed entries, skip dataset_description.json during
// data collection, and skip the derivatives/sourcedata/code directories
// immediately under a raw dataset root (they are either re-entered as
// derivative roots by the caller or ignored entirely).
//
// Grounded on the afero-based directory walk idiom in upbound-up's
// pkg/project/build collector (afero.Walk over a virtual or real
// filesystem, filepath.SkipDir to prune subtrees) rather than the
// teacher's storagedriver.Walk, which is built around the storage
// driver's own non-POSIX path abstraction and has no notion of a
// caller-supplied skip-name set.
package walker

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Options configures one Walk call.
type Options struct {
	// SkipTopLevelDirs are directory names pruned only when they are an
	// immediate child of root (spec.md §6's raw-root exclusions).
	SkipTopLevelDirs []string

	// IgnoreDirs / IgnoreFiles are exact names pruned at any depth,
	// layered on top of SkipTopLevelDirs (config's corpus-wide
	// ignoredirs/ignorefiles supplement over the fixed raw-root rule).
	IgnoreDirs  []string
	IgnoreFiles []string
}

// Walk visits every regular file reachable from root, invoking fn with
// its path. If root itself is a file, fn is called once with root.
func Walk(fs_ afero.Fs, root string, opts Options, fn func(path string) error) error {
	info, err := fs_.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fn(root)
	}

	skipTop := make(map[string]bool, len(opts.SkipTopLevelDirs))
	for _, name := range opts.SkipTopLevelDirs {
		skipTop[name] = true
	}
	ignoreDirs := make(map[string]bool, len(opts.IgnoreDirs))
	for _, name := range opts.IgnoreDirs {
		ignoreDirs[name] = true
	}
	ignoreFiles := make(map[string]bool, len(opts.IgnoreFiles))
	for _, name := range opts.IgnoreFiles {
		ignoreFiles[name] = true
	}

	return afero.Walk(fs_, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()

		if strings.HasPrefix(name, ".") && path != root {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if path != root && skipTop[name] && filepath.Dir(path) == filepath.Clean(root) {
				return filepath.SkipDir
			}
			if path != root && ignoreDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}

		if name == "dataset_description.json" {
			return nil
		}
		if ignoreFiles[name] {
			return nil
		}
		return fn(path)
	})
}
