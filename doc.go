// Package gobids indexes a corpus of BIDS-style dataset file paths into an
// in-memory Layout: entities, datatypes, suffixes and extensions parsed out
// of each path, plus inverted indexes supporting filtered sub-views and
// sidecar metadata propagation under the dataset inheritance rule.
//
// The package itself holds only the shared error vocabulary; the actual
// index lives in the layout subpackage, built on top of grammar, bidspath,
// entitytable, roots and filetree.
package gobids
