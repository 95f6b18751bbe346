package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRunLayout(t *testing.T) *Layout {
	fs := sampleFS(t)
	l, err := Create(context.Background(), fs, []string{"/ds"}, []DerivativeSpec{
		{Paths: []string{"/ds/derivatives/fmriprep"}},
	})
	require.NoError(t, err)
	return l
}

func TestQueryEmptyReturnsFullView(t *testing.T) {
	l := buildRunLayout(t)
	res, err := l.Query(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, l.Len(), res.Len())
}

func TestQueryNumberMatchesSingleRun(t *testing.T) {
	l := buildRunLayout(t)
	res, err := l.Query(Query{"run": {Num(1)}}, nil, nil)
	require.NoError(t, err)
	for _, bp := range res.GetPaths() {
		assert.Equal(t, "01", bp.GetEntities(bp.Path)["run"])
	}
	assert.Equal(t, 1, res.Len())
}

func TestQueryBoolTrueMatchesAnyRunValue(t *testing.T) {
	l := buildRunLayout(t)
	res, err := l.Query(Query{"run": {Bool(true)}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Len())
}

func TestQueryBoolFalseExcludesEntityBearingPaths(t *testing.T) {
	l := buildRunLayout(t)
	res, err := l.Query(Query{"run": {Bool(false)}}, nil, nil)
	require.NoError(t, err)
	for _, bp := range res.GetPaths() {
		_, ok := bp.GetEntities(bp.Path)["run"]
		assert.False(t, ok)
	}
}

func TestQueryUnknownEntityFails(t *testing.T) {
	l := buildRunLayout(t)
	_, err := l.Query(Query{"nosuchentity": {Str("x")}}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nosuchentity")
}

func TestQueryMissingValueFails(t *testing.T) {
	l := buildRunLayout(t)
	_, err := l.Query(Query{"run": {Num(99)}}, nil, nil)
	require.Error(t, err)
}

func TestQueryRootScopeRestrictsToDerivatives(t *testing.T) {
	l := buildRunLayout(t)
	res, err := l.Query(nil, []string{"derivatives"}, nil)
	require.NoError(t, err)
	for _, root := range res.GetRoots() {
		assert.Contains(t, root, "derivatives")
	}
	assert.Empty(t, res.UnresolvedScopes())
}

func TestQueryUnresolvedScopeIsAccumulatedNotAnError(t *testing.T) {
	l := buildRunLayout(t)
	res, err := l.Query(nil, []string{"raw", "totally-bogus-scope"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"totally-bogus-scope"}, res.UnresolvedScopes())
}

func TestQueryIsIdempotent(t *testing.T) {
	l := buildRunLayout(t)
	once, err := l.Query(Query{"run": {Str("01")}}, nil, nil)
	require.NoError(t, err)
	twice, err := once.Query(Query{"run": {Str("01")}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, once.View(), twice.View())
}
