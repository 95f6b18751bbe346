package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanComponent(t *testing.T) {
	cases := []struct {
		name      string
		component string
		wantKind  ComponentKind
		wantElems []ElementKind
	}{
		{"datatype", "anat", Zero, []ElementKind{ElemSuffix}},
		{"entity", "sub-01", One, []ElementKind{ElemKeyVal}},
		{"filename", "sub-01_ses-pre_T1w.nii.gz", Two,
			[]ElementKind{ElemKeyVal, ElemKeyVal, ElemSuffix}},
		{"mid-part", "sub-01_extrathing_T1w.json", Two,
			[]ElementKind{ElemKeyVal, ElemPart, ElemSuffix}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ct, err := ScanComponent(tc.component, 0, len(tc.component))
			require.NoError(t, err)
			assert.Equal(t, tc.wantKind, ct.Kind)
			require.Len(t, ct.Elements, len(tc.wantElems))
			for i, want := range tc.wantElems {
				assert.Equal(t, want, ct.Elements[i].Kind)
			}
		})
	}
}

func TestScanComponentLonePartIsBug(t *testing.T) {
	// "extrathing" alone, with no separators, always folds to a Suffix
	// (the "no separators means a single token" rule), never a lone Part;
	// ErrLoneParts arises only when an underscore follows the token
	// (e.g. "extrathing_"), which makes it a non-final chunk.
	ct, err := ScanComponent("extrathing", 0, len("extrathing"))
	require.NoError(t, err)
	assert.Equal(t, Zero, ct.Kind)
	assert.Equal(t, ElemSuffix, ct.Elements[0].Kind)
}

func TestKeyValSlices(t *testing.T) {
	path := "sub-01"
	ct, err := ScanComponent(path, 0, len(path))
	require.NoError(t, err)
	kv := ct.Elements[0].KeyVal
	assert.Equal(t, "sub", kv.Key(path))
	assert.Equal(t, "01", kv.Value(path))
}

func TestSplitSuffixExtension(t *testing.T) {
	path := "sub-01_ses-pre_T1w.nii.gz"
	ct, err := ScanComponent(path, 0, len(path))
	require.NoError(t, err)
	suffix := ct.Elements[2].Span
	tail, ext, ok := SplitSuffixExtension(path, suffix)
	require.True(t, ok)
	assert.Equal(t, "T1w", tail.Slice(path))
	assert.Equal(t, ".nii.gz", ext.Slice(path))
}

func TestSplitSuffixExtensionNone(t *testing.T) {
	path := "README"
	ct, err := ScanComponent(path, 0, len(path))
	require.NoError(t, err)
	_, _, ok := SplitSuffixExtension(path, ct.Elements[0].Span)
	assert.False(t, ok)
}

func TestDemoteToParts(t *testing.T) {
	path := "sub-01_T1w-extra"
	ct, err := ScanComponent(path, 0, len(path))
	require.NoError(t, err)
	parts := DemoteToParts(ct.Elements)
	for _, p := range parts {
		assert.Equal(t, ElemPart, p.Kind)
	}
	assert.Equal(t, "sub-01", parts[0].Text(path))
}
