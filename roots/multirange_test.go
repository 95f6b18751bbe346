package roots

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiRangeInsertCoalescesAdjacent(t *testing.T) {
	m := NewMultiRange()
	m.Insert(Range{0, 3})
	m.Insert(Range{3, 5})
	assert.Equal(t, []Range{{0, 5}}, m.Ranges())
}

func TestMultiRangeInsertAppendsDisjoint(t *testing.T) {
	m := NewMultiRange()
	m.Insert(Range{0, 3})
	m.Insert(Range{10, 12})
	assert.Equal(t, []Range{{0, 3}, {10, 12}}, m.Ranges())
}

func TestMultiRangeInsertOutOfOrderMerges(t *testing.T) {
	m := NewMultiRange()
	m.Insert(Range{10, 12})
	m.Insert(Range{0, 3})
	assert.Equal(t, []Range{{0, 3}, {10, 12}}, m.Ranges())
}

func TestMultiRangeInsertOverlapping(t *testing.T) {
	m := NewMultiRange()
	m.Insert(Range{0, 5})
	m.Insert(Range{3, 8})
	assert.Equal(t, []Range{{0, 8}}, m.Ranges())
}

func TestMultiRangeContains(t *testing.T) {
	m := NewMultiRange()
	m.Insert(Range{0, 3})
	m.Insert(Range{10, 12})
	assert.True(t, m.Contains(1))
	assert.True(t, m.Contains(11))
	assert.False(t, m.Contains(5))
	assert.False(t, m.Contains(12))
}

func TestMultiRangeExtend(t *testing.T) {
	a := NewMultiRange()
	a.Insert(Range{0, 3})
	b := NewMultiRange()
	b.Insert(Range{3, 6})
	b.Insert(Range{20, 22})

	a.Extend(b)
	assert.Equal(t, []Range{{0, 6}, {20, 22}}, a.Ranges())
}

func TestMultiRangeIDs(t *testing.T) {
	m := NewMultiRange()
	m.Insert(Range{0, 3})
	m.Insert(Range{5, 7})
	assert.Equal(t, []int{0, 1, 2, 5, 6}, m.IDs())
}
