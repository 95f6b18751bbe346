// Package config implements the gobids YAML configuration schema and
// its environment-variable override layer.
//
// Grounded on distribution's configuration/configuration.go (the
// yaml-tagged struct shape, loglevel/log/cache sub-structs) and
// configuration/parser.go (the env-override pass), simplified to
// gobids' single-version schema: no VersionedParseInfo/ConversionFunc
// dispatch, since gobids has shipped exactly one config version so far.
package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Version is a major.minor pair, the same shape as distribution's
// configuration.Version.
type Version string

// MajorMinorVersion constructs a Version from its components.
func MajorMinorVersion(major, minor uint) Version {
	return Version(fmt.Sprintf("%d.%d", major, minor))
}

func (v Version) parts() []string { return strings.SplitN(string(v), ".", 2) }

// Major returns the major version component, or 0 if unparsable.
func (v Version) Major() uint {
	p := v.parts()
	if len(p) == 0 {
		return 0
	}
	n, _ := strconv.ParseUint(p[0], 10, 0)
	return uint(n)
}

// Minor returns the minor version component, or 0 if unparsable.
func (v Version) Minor() uint {
	p := v.parts()
	if len(p) < 2 {
		return 0
	}
	n, _ := strconv.ParseUint(p[1], 10, 0)
	return uint(n)
}

// CurrentVersion is the only configuration version gobids understands.
const CurrentVersion Version = "1.0"

// CacheConfig selects and configures a pathcache.Provider backend.
type CacheConfig struct {
	Provider string                 `yaml:"provider,omitempty"`
	Params   map[string]interface{} `yaml:"params,omitempty"`
}

// LogConfig configures the logrus root logger, the way distribution's
// Log sub-struct does.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`
	Formatter string `yaml:"formatter,omitempty"`
}

// Config is gobids' top-level, YAML-loadable configuration.
type Config struct {
	// Version is the configuration schema version; Parse rejects any
	// value other than CurrentVersion and defaults an absent one to it.
	Version Version `yaml:"version"`

	// Aliases holds short/long entity alias entries (spec.md §6). It is
	// parsed but no gobids component reads it; the built-in alias table
	// in standards is used unchanged.
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// Datatypes holds datatype directory names. It is parsed but no
	// gobids component reads it; the built-in datatype set is used
	// unchanged.
	Datatypes []string `yaml:"datatypes,omitempty"`

	// Strict sets the default parser mode; generic remains the
	// hard-coded library default, so this only affects callers that
	// build their Knowledge/mode from a loaded Config.
	Strict bool `yaml:"strict,omitempty"`

	// IgnoreDirs / IgnoreFiles extend the built-in walker ignore rules.
	IgnoreDirs  []string `yaml:"ignoredirs,omitempty"`
	IgnoreFiles []string `yaml:"ignorefiles,omitempty"`

	Cache CacheConfig `yaml:"cache,omitempty"`
	Log   LogConfig   `yaml:"log,omitempty"`
}

// Default returns the zero-value configuration with CurrentVersion set.
func Default() *Config {
	return &Config{Version: CurrentVersion}
}

// Parse reads YAML from r, then overlays environment variables
// prefixed envPrefix (see OverwriteFromEnv).
func Parse(r io.Reader, envPrefix string) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var versioned struct {
		Version Version `yaml:"version"`
	}
	if err := yaml.Unmarshal(data, &versioned); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if versioned.Version != "" && versioned.Version != CurrentVersion {
		return nil, fmt.Errorf("config: unsupported version %q", versioned.Version)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := OverwriteFromEnv(cfg, envPrefix); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
