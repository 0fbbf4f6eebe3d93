package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListRoundTrip(t *testing.T) {
	list := StringList{"a", "b", "c"}

	value, err := list.Value()
	require.NoError(t, err)

	var got StringList
	require.NoError(t, got.Scan(value))
	assert.Equal(t, list, got)
}

func TestStringListScanNil(t *testing.T) {
	var got StringList
	require.NoError(t, got.Scan(nil))
	assert.Empty(t, got)
}

func TestStringListScanBytes(t *testing.T) {
	var got StringList
	require.NoError(t, got.Scan([]byte(`["x","y"]`)))
	assert.Equal(t, StringList{"x", "y"}, got)
}
