package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	z := NewSortedSet(18, nil)
	require.Equal(t, ZAddOK, z.ZAdd(10, "alice"))
	require.Equal(t, ZAddOK, z.ZAdd(20, "bob"))

	path := filepath.Join(t.TempDir(), "snapshot.txt")
	require.NoError(t, SaveSnapshot(z, path))

	loaded := NewSortedSet(18, nil)
	require.NoError(t, LoadSnapshot(loaded, path))

	assert.Equal(t, int64(2), loaded.ZCard())
	score, ok := loaded.ZScore("alice")
	require.True(t, ok)
	assert.Equal(t, int64(10), score)
	score, ok = loaded.ZScore("bob")
	require.True(t, ok)
	assert.Equal(t, int64(20), score)
}

func TestLoadSnapshotMissingFileIsNonFatal(t *testing.T) {
	z := NewSortedSet(18, nil)
	err := LoadSnapshot(z, filepath.Join(t.TempDir(), "does-not-exist.txt"))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), z.ZCard())
}

func TestParseSnapshotLineDelimiter(t *testing.T) {
	score, member, ok := parseSnapshotLine("10: alice")
	require.True(t, ok)
	assert.Equal(t, int64(10), score)
	assert.Equal(t, "alice", member)

	_, _, ok = parseSnapshotLine("malformed line")
	assert.False(t, ok)
}
