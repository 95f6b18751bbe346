package layout

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexMetadataAssignsFromNearestSidecar(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/ds/RepetitionTime.json", `{"RepetitionTime":3.0}`)
	writeFile(t, fs, "/ds/sub-01/ses-pre/anat/sub-01_ses-pre_T1w.json", `{"RepetitionTime":2.0}`)
	writeFile(t, fs, "/ds/sub-01/ses-pre/anat/sub-01_ses-pre_T1w.nii.gz", "x")

	l, err := Create(context.Background(), fs, []string{"/ds"}, nil)
	require.NoError(t, err)
	l.AttachFS(fs)
	l.IndexMetadata()

	// Both the sidecar and its data file satisfy entity-compatibility
	// with themselves, so both pick up the nearer RepetitionTime=2
	// value rather than the shallower RepetitionTime=3 one.
	res, err := l.Query(Query{"RepetitionTime": {Str("2")}}, nil, nil)
	require.NoError(t, err)
	var sawData bool
	for _, bp := range res.GetPaths() {
		if bp.Extension != nil && bp.Extension.Slice(bp.Path) == ".nii.gz" {
			sawData = true
		}
	}
	assert.True(t, sawData, "data file should inherit the nearest sidecar's value")
}

func TestIndexMetadataIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/ds/sub-01/anat/sub-01_T1w.json", `{"Flip":"A"}`)
	writeFile(t, fs, "/ds/sub-01/anat/sub-01_T1w.nii.gz", "x")

	l, err := Create(context.Background(), fs, []string{"/ds"}, nil)
	require.NoError(t, err)
	l.AttachFS(fs)

	l.IndexMetadata()
	first := l.MetadataKeyVals()
	l.IndexMetadata()
	second := l.MetadataKeyVals()
	assert.Equal(t, first, second)
}

func TestIndexMetadataDoesNotLeakAcrossDifferingSuffix(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/ds/sub-01/anat/sub-01_T1w.json", `{"RepetitionTime":2.0}`)
	writeFile(t, fs, "/ds/sub-01/anat/sub-01_T1w.nii.gz", "x")
	writeFile(t, fs, "/ds/sub-01/func/sub-01_task-rest_bold.nii.gz", "x")

	l, err := Create(context.Background(), fs, []string{"/ds"}, nil)
	require.NoError(t, err)
	l.AttachFS(fs)
	l.IndexMetadata()

	// sub-01_T1w.json shares "sub" with the bold file but differs on
	// datatype/suffix, so it must not propagate RepetitionTime there.
	res, err := l.Query(Query{"RepetitionTime": {Str("2")}}, nil, nil)
	require.NoError(t, err)
	for _, bp := range res.GetPaths() {
		assert.NotContains(t, bp.Path, "bold", "RepetitionTime from the T1w sidecar leaked into a differing-suffix sibling")
	}
}

func TestIndexMetadataIgnoresNestedValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/ds/sub-01/anat/sub-01_T1w.json", `{"Flat":"yes","Nested":{"a":1},"List":[1,2]}`)
	writeFile(t, fs, "/ds/sub-01/anat/sub-01_T1w.nii.gz", "x")

	l, err := Create(context.Background(), fs, []string{"/ds"}, nil)
	require.NoError(t, err)
	l.AttachFS(fs)
	l.IndexMetadata()

	keys := l.MetadataKeyVals()
	assert.Contains(t, keys, "Flat")
	assert.NotContains(t, keys, "Nested")
	assert.NotContains(t, keys, "List")
}
