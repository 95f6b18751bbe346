package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasicYAML(t *testing.T) {
	yaml := `
version: "1.0"
strict: true
aliases:
  site: location
datatypes:
  - xyz
cache:
  provider: inmemory
  params:
    size: 500
log:
  level: debug
`
	cfg, err := Parse(strings.NewReader(yaml), "GOBIDS_TEST_UNUSED")
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "location", cfg.Aliases["site"])
	assert.Equal(t, []string{"xyz"}, cfg.Datatypes)
	assert.Equal(t, "inmemory", cfg.Cache.Provider)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	_, err := Parse(strings.NewReader(`version: "2.0"`), "GOBIDS_TEST_UNUSED")
	assert.Error(t, err)
}

func TestParseDefaultsVersionWhenAbsent(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`strict: true`), "GOBIDS_TEST_UNUSED")
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, cfg.Version)
}

func TestOverwriteFromEnvOverridesScalarAndNestedFields(t *testing.T) {
	const prefix = "GOBIDS_OVERRIDE_TEST"
	os.Setenv(prefix+"_STRICT", "true")
	os.Setenv(prefix+"_LOG_LEVEL", "warn")
	defer os.Unsetenv(prefix + "_STRICT")
	defer os.Unsetenv(prefix + "_LOG_LEVEL")

	cfg := Default()
	cfg.Strict = false
	cfg.Log.Level = "info"

	require.NoError(t, OverwriteFromEnv(cfg, prefix))
	assert.True(t, cfg.Strict)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestOverwriteFromEnvFillsMapEntries(t *testing.T) {
	const prefix = "GOBIDS_OVERRIDE_MAP"
	os.Setenv(prefix+"_ALIASES_SITE", "location")
	defer os.Unsetenv(prefix + "_ALIASES_SITE")

	cfg := Default()
	require.NoError(t, OverwriteFromEnv(cfg, prefix))
	assert.Equal(t, "location", cfg.Aliases["site"])
}
