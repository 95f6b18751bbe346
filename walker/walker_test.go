package walker

import (
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte("x"), 0o644))
}

func TestWalkSkipsDotPrefixedAndDescriptionFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/ds/dataset_description.json")
	writeFile(t, fs, "/ds/sub-01/anat/sub-01_T1w.nii.gz")
	writeFile(t, fs, "/ds/.git/config")
	writeFile(t, fs, "/ds/.hidden")

	var got []string
	err := Walk(fs, "/ds", Options{}, func(path string) error {
		got = append(got, path)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(got)
	assert.Equal(t, []string{"/ds/sub-01/anat/sub-01_T1w.nii.gz"}, got)
}

func TestWalkSkipsTopLevelDirsOnlyAtRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/ds/derivatives/fmriprep/sub-01/file.nii.gz")
	writeFile(t, fs, "/ds/code/runall.sh")
	writeFile(t, fs, "/ds/sub-01/derivatives/weird.txt") // nested, not top-level: must be kept
	writeFile(t, fs, "/ds/sub-01/anat/sub-01_T1w.nii.gz")

	var got []string
	err := Walk(fs, "/ds", Options{SkipTopLevelDirs: []string{"derivatives", "sourcedata", "code"}}, func(path string) error {
		got = append(got, path)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(got)
	assert.Equal(t, []string{
		"/ds/sub-01/anat/sub-01_T1w.nii.gz",
		"/ds/sub-01/derivatives/weird.txt",
	}, got)
}

func TestWalkSinglePathIsAFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/ds/only.txt")

	var got []string
	err := Walk(fs, "/ds/only.txt", Options{}, func(path string) error {
		got = append(got, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/ds/only.txt"}, got)
}
