package entitytable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddKnownEntityGoesStraightToConfirmed(t *testing.T) {
	tbl := New()
	tbl.Add(0, "sub", "01")
	tbl.Add(1, "sub", "02")
	tbl.Add(2, "sub", "01")

	assert.ElementsMatch(t, []string{"01", "02"}, tbl.Values("sub"))
	assert.Equal(t, []int{0, 2}, tbl.PathIDs("sub", "01"))
	assert.Empty(t, tbl.PendingKeys())
}

func TestAddUnknownEntityStaysPendingUntilConfirmed(t *testing.T) {
	tbl := New()
	tbl.Add(0, "site", "a")
	tbl.Add(1, "site", "b")

	assert.False(t, tbl.IsKnownEntity("site"))
	assert.Empty(t, tbl.Values("site"))
	assert.Equal(t, []string{"site"}, tbl.PendingKeys())

	tbl.Confirm("site")

	assert.True(t, tbl.IsKnownEntity("site"))
	assert.ElementsMatch(t, []string{"a", "b"}, tbl.Values("site"))
	assert.Empty(t, tbl.PendingKeys())

	// Confirmation is sticky: a later Add for "site" goes straight to
	// confirmed without needing another Confirm call.
	tbl.Add(2, "site", "c")
	assert.ElementsMatch(t, []string{"a", "b", "c"}, tbl.Values("site"))
}

func TestAddConfirmedPromotesPendingEntriesUnderSameKey(t *testing.T) {
	tbl := New()
	tbl.Add(0, "site", "a")
	tbl.Add(1, "site", "b")

	tbl.AddConfirmed(2, "site", "c")

	assert.True(t, tbl.IsKnownEntity("site"))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, tbl.Values("site"))
	assert.Equal(t, []int{0}, tbl.PathIDs("site", "a"))
	assert.Equal(t, []int{2}, tbl.PathIDs("site", "c"))
}

func TestDropPendingDiscardsUnresolvedKey(t *testing.T) {
	tbl := New()
	tbl.Add(0, "site", "a")

	tbl.DropPending("site")

	assert.False(t, tbl.IsKnownEntity("site"))
	assert.Empty(t, tbl.PendingKeys())
	tbl.Confirm("site")
	assert.Empty(t, tbl.Values("site"), "dropped pending entries must not resurrect on confirm")
}

func TestBuiltinEntitiesAreKnownWithoutAdd(t *testing.T) {
	tbl := New()
	require.True(t, tbl.IsKnownEntity("sub"))
	require.True(t, tbl.IsKnownEntity("subject"))
	assert.True(t, tbl.IsDatatype("anat"))
	assert.Equal(t, "sub", tbl.Canonical("subject"))
	assert.Equal(t, "subject", tbl.LongForm("sub"))
}

func TestHasKeyAndKeys(t *testing.T) {
	tbl := New()
	assert.False(t, tbl.HasKey("sub"))
	tbl.Add(0, "sub", "01")
	assert.True(t, tbl.HasKey("sub"))
	assert.Equal(t, []string{"sub"}, tbl.Keys())
}

func TestExtendBulkInsertsAcrossIDs(t *testing.T) {
	tbl := New()
	tbl.Extend("RepetitionTime", "2.0", []int{3, 5, 7})
	assert.Equal(t, []int{3, 5, 7}, tbl.PathIDs("RepetitionTime", "2.0"))
}

func TestAllIDsUnionsAcrossValues(t *testing.T) {
	tbl := New()
	tbl.Add(0, "run", "01")
	tbl.Add(1, "run", "02")
	tbl.Add(2, "run", "01")
	assert.Equal(t, []int{0, 1, 2}, tbl.AllIDs("run"))
	assert.Nil(t, tbl.AllIDs("missing"))
}

func TestSnapshotAndFromSnapshotRoundTrip(t *testing.T) {
	tbl := New()
	tbl.Add(0, "sub", "01")
	tbl.Add(1, "sub", "02")

	snap := tbl.Snapshot()
	rebuilt := FromSnapshot(snap)
	assert.ElementsMatch(t, []string{"01", "02"}, rebuilt.Values("sub"))
	assert.Equal(t, []int{0}, rebuilt.PathIDs("sub", "01"))
}

func TestFilterDropsIDsAndEmptyRows(t *testing.T) {
	tbl := New()
	tbl.Add(0, "sub", "01")
	tbl.Add(1, "sub", "02")
	tbl.Add(2, "ses", "pre")

	filtered := tbl.Filter(map[int]struct{}{0: {}, 2: {}})
	assert.Equal(t, []int{0}, filtered.PathIDs("sub", "01"))
	assert.Empty(t, filtered.PathIDs("sub", "02"))
	assert.True(t, filtered.HasKey("sub"))
	assert.True(t, filtered.HasKey("ses"))
}
