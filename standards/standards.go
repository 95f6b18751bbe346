// Package standards holds the built-in, bit-stable configuration tables
// from spec.md §6: the bi-directional short/long entity alias map and the
// fixed datatype set. Grounded on original_source/src/standards.rs,
// which keeps the same two tables as static sets.
//
// Changing these tables is a breaking change, per spec.md §6. No other
// gobids package extends them at run time: config.Config.Aliases and
// Datatypes are parsed but not applied here.
package standards

// aliasPairs is the short/long alias table. Short keys with no long-form
// alias (the rest of the recognized BIDS entity vocabulary) get identity
// rows so IsKnownEntity/Canonical/LongForm treat them uniformly.
var aliasPairs = [][2]string{
	{"sub", "subject"},
	{"ses", "session"},
	{"acq", "acquisition"},
	{"ce", "ceagent"},
	{"trc", "tracer"},
	{"rec", "reconstruction"},
	{"dir", "direction"},
	{"mod", "modality"},
	{"hemi", "hemisphere"},
	{"den", "density"},
	{"desc", "description"},
}

// identityKeys are recognized short entity keys with no distinct
// long-form alias.
var identityKeys = []string{
	"datatype", "extension", "suffix", "sample", "task", "stain", "run",
	"proc", "echo", "flip", "inv", "mt", "part", "recording", "space",
	"chunk", "split", "atlas", "roi", "label", "from", "to", "mode",
	"res", "model", "subset",
}

// Datatypes is the fixed set of recognized datatype directory names.
var Datatypes = map[string]bool{
	"anat": true, "beh": true, "dwi": true, "eeg": true, "fmap": true,
	"func": true, "ieeg": true, "meg": true, "motion": true, "micr": true,
	"nirs": true, "perf": true, "pet": true,
}

// shortToLong and longToShort hold the resolved alias table, built once
// at init from aliasPairs and identityKeys.
var (
	shortToLong = map[string]string{}
	longToShort = map[string]string{}
	knownShort  = map[string]bool{}
)

func init() {
	for _, pair := range aliasPairs {
		short, long := pair[0], pair[1]
		shortToLong[short] = long
		longToShort[long] = short
		knownShort[short] = true
	}
	for _, short := range identityKeys {
		shortToLong[short] = short
		longToShort[short] = short
		knownShort[short] = true
	}
}

// IsKnownEntity reports whether key (in either short or long form) is part
// of the built-in alias table.
func IsKnownEntity(key string) bool {
	if knownShort[key] {
		return true
	}
	_, ok := longToShort[key]
	return ok
}

// IsDatatype reports whether name is one of the fixed datatype directory
// names.
func IsDatatype(name string) bool {
	return Datatypes[name]
}

// Canonical resolves key (short or long form) to its canonical short
// form. Unknown keys are returned unchanged, so callers can still index
// uncertain/unconfirmed entities by their raw key.
func Canonical(key string) string {
	if short, ok := longToShort[key]; ok {
		return short
	}
	return key
}

// LongForm returns the long-form alias of a canonical short key, or the
// key itself if it has no distinct long form or is not recognized.
func LongForm(key string) string {
	if long, ok := shortToLong[key]; ok {
		return long
	}
	return key
}
