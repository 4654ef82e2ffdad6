package dbtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListValueAndScan(t *testing.T) {
	list := StringList{"a", "b"}
	value, err := list.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, value)

	var scanned StringList
	require.NoError(t, scanned.Scan([]byte(`["a","b"]`)))
	assert.True(t, scanned.Equal(list))
}

func TestStringListNilHandling(t *testing.T) {
	var list StringList
	value, err := list.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	require.NoError(t, list.Scan(nil))
	assert.NotNil(t, list)
	assert.True(t, list.Equal(StringList{}))
}

func TestStringListScanRejectsUnknownType(t *testing.T) {
	var list StringList
	assert.Error(t, list.Scan(42))
	assert.Error(t, list.Scan("not json"))
}
