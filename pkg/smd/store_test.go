package smd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/infod/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "smd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreSetAndGet(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Set(types.SMDModuleSindex, "idx_age", "def1"))

	v, ok := s.Get(types.SMDModuleSindex, "idx_age")
	assert.True(t, ok)
	assert.Equal(t, "def1", v)
}

func TestStoreGetMissingKey(t *testing.T) {
	s := openTestStore(t)
	_, ok := s.Get(types.SMDModuleSindex, "no-such-key")
	assert.False(t, ok)
}

func TestStoreDeleteTombstonesKey(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Set(types.SMDModuleRoster, "test", "n1,n2"))
	require.NoError(t, s.Delete(types.SMDModuleRoster, "test"))

	_, ok := s.Get(types.SMDModuleRoster, "test")
	assert.False(t, ok)
}

func TestStoreSetClearsPriorTombstone(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Set(types.SMDModuleRoster, "test", "n1"))
	require.NoError(t, s.Delete(types.SMDModuleRoster, "test"))
	require.NoError(t, s.Set(types.SMDModuleRoster, "test", "n1,n2"))

	v, ok := s.Get(types.SMDModuleRoster, "test")
	assert.True(t, ok)
	assert.Equal(t, "n1,n2", v)
}

func TestStoreGetAllSkipsTombstones(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Set(types.SMDModuleSindex, "idx_a", "a"))
	require.NoError(t, s.Set(types.SMDModuleSindex, "idx_b", "b"))
	require.NoError(t, s.Delete(types.SMDModuleSindex, "idx_b"))

	var keys []string
	err := s.GetAll(types.SMDModuleSindex, func(key, value string) bool {
		keys = append(keys, key)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"idx_a"}, keys)
}

func TestStoreGetAllVisitorStopsEarly(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Set(types.SMDModuleSindex, "idx_a", "a"))
	require.NoError(t, s.Set(types.SMDModuleSindex, "idx_b", "b"))

	var visited int
	err := s.GetAll(types.SMDModuleSindex, func(key, value string) bool {
		visited++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, visited)
}

func TestStoreSnapshotReturnsLiveRecords(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Set(types.SMDModuleSindex, "idx_a", "a"))
	require.NoError(t, s.Set(types.SMDModuleSindex, "idx_b", "b"))
	require.NoError(t, s.Delete(types.SMDModuleSindex, "idx_b"))

	recs, err := s.Snapshot(types.SMDModuleSindex)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "idx_a", recs[0].Key)
	assert.Equal(t, "a", recs[0].Value)
}

func TestStoreSetUnknownModule(t *testing.T) {
	s := openTestStore(t)
	err := s.Set(types.SMDModule("bogus"), "k", "v")
	assert.Error(t, err)
}
