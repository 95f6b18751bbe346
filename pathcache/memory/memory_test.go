package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvandyken/gobids/grammar"
	"github.com/pvandyken/gobids/pathcache"
)

func TestNewDefaultSize(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestNewHonorsSizeOption(t *testing.T) {
	p, err := New(map[string]interface{}{"size": 2})
	require.NoError(t, err)

	ct := grammar.ComponentType{Kind: grammar.Zero, Elements: []grammar.Element{
		{Kind: grammar.ElemSuffix, Span: grammar.Span{Start: 0, End: 4}},
	}}
	p.Set("a", ct)
	p.Set("b", ct)
	p.Set("c", ct) // evicts "a" under an LRU cache bounded to size 2

	_, ok := p.Get("a")
	assert.False(t, ok)
	_, ok = p.Get("c")
	assert.True(t, ok)
}

func TestRegisteredUnderInmemory(t *testing.T) {
	p, err := pathcache.Get("inmemory", nil)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestGetSetRoundTrip(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)

	ct := grammar.ComponentType{Kind: grammar.One}
	p.Set("sub-01", ct)

	got, ok := p.Get("sub-01")
	require.True(t, ok)
	assert.Equal(t, ct, got)

	_, ok = p.Get("missing")
	assert.False(t, ok)
}
