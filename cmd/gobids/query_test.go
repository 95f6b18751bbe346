package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvandyken/gobids/layout"
)

func TestParseQueryArgsNumericValuesBecomeNum(t *testing.T) {
	q, err := parseQueryArgs([]string{"run=01"})
	require.NoError(t, err)
	require.Len(t, q["run"], 1)
	assert.Equal(t, layout.Num(1), q["run"][0])
}

func TestParseQueryArgsStringValuesStayString(t *testing.T) {
	q, err := parseQueryArgs([]string{"task=rest"})
	require.NoError(t, err)
	assert.Equal(t, layout.Str("rest"), q["task"][0])
}

func TestParseQueryArgsWildcardAndNegation(t *testing.T) {
	q, err := parseQueryArgs([]string{"run=*", "ses=!"})
	require.NoError(t, err)
	assert.Equal(t, layout.Bool(true), q["run"][0])
	assert.Equal(t, layout.Bool(false), q["ses"][0])
}

func TestParseQueryArgsCommaSeparatedUnions(t *testing.T) {
	q, err := parseQueryArgs([]string{"task=rest,nback"})
	require.NoError(t, err)
	assert.Equal(t, []layout.QueryTerm{layout.Str("rest"), layout.Str("nback")}, q["task"])
}

func TestParseQueryArgsRejectsMalformed(t *testing.T) {
	_, err := parseQueryArgs([]string{"norunequals"})
	assert.Error(t, err)
}
