package filetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertAndSubfiles(t *testing.T) {
	tree := New()
	tree.Insert([]string{"sub-01", "anat"}, 0)
	tree.Insert([]string{"sub-01", "anat"}, 1)
	tree.Insert([]string{"sub-01", "func"}, 2)
	tree.Insert([]string{"sub-02", "anat"}, 3)

	assert.ElementsMatch(t, []int{0, 1}, tree.Subfiles([]string{"sub-01", "anat"}))
	assert.ElementsMatch(t, []int{0, 1, 2}, tree.Subfiles([]string{"sub-01"}))
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, tree.Subfiles(nil))
}

func TestSubfilesMissingNodeReturnsNil(t *testing.T) {
	tree := New()
	tree.Insert([]string{"sub-01"}, 0)
	assert.Nil(t, tree.Subfiles([]string{"sub-99"}))
}

func TestSplitDir(t *testing.T) {
	assert.Equal(t, []string{"sub-01", "anat"}, SplitDir("/sub-01/anat"))
	assert.Equal(t, []string{"sub-01", "anat"}, SplitDir("sub-01/anat/"))
	assert.Empty(t, SplitDir(""))
	assert.Empty(t, SplitDir("/"))
}
