package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvandyken/gobids/layout"
)

func TestParseDerivativesSplitsLabel(t *testing.T) {
	specs, err := parseDerivatives([]string{"/ds/derivatives/fmriprep=fmriprep", "/ds/derivatives/mriqc"})
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, layout.DerivativeSpec{Paths: []string{"/ds/derivatives/fmriprep"}, Label: "fmriprep"}, specs[0])
	assert.Equal(t, layout.DerivativeSpec{Paths: []string{"/ds/derivatives/mriqc"}, Label: ""}, specs[1])
}

func TestParseDerivativesRejectsEmptyPath(t *testing.T) {
	_, err := parseDerivatives([]string{"=fmriprep"})
	assert.Error(t, err)
}
