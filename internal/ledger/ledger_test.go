package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id string) Record {
	return Record{
		ID: id, Latitude: "40.0", Longitude: "-3.0",
		Country: "Spain", City: "Madrid",
		Material: "2", LLRS: "3", CodeLevel: "1", Stories: "4",
		Occupancy: "Residential", BlockPosition: "1",
		ImageRef: "https://example.com/" + id + ".jpg",
	}
}

func TestNewTableAllNull(t *testing.T) {
	tbl := NewTable(3)
	assert.Equal(t, 9, tbl.Len())
	assert.Equal(t, 3, tbl.Buildings())
	assert.Equal(t, 0, tbl.NonNullRows())
	assert.Equal(t, -1, tbl.ResumeCursor())
}

func TestSetViewpointRecomputesTaxonomy(t *testing.T) {
	tbl := NewTable(1)
	require.NoError(t, tbl.SetViewpoint(0, 1, testRecord("1")))

	got := tbl.Row(1)
	assert.Equal(t, "2/3/HEX:4/CODE:1", got.Taxonomy)
	assert.True(t, tbl.Row(0).IsNull())
	assert.True(t, tbl.Row(2).IsNull())
}

func TestSetViewpointBounds(t *testing.T) {
	tbl := NewTable(2)
	assert.Error(t, tbl.SetViewpoint(0, 3, Record{}))
	assert.Error(t, tbl.SetViewpoint(2, 0, Record{}))
	assert.Error(t, tbl.SetViewpoint(-1, 0, Record{}))
}

func TestMergeFromDiskPrefixOverwrite(t *testing.T) {
	dir := t.TempDir()
	aiPath := filepath.Join(dir, "ai.csv")
	expoPath := filepath.Join(dir, "expo.csv")

	// Save a ledger with 6 written rows out of 9.
	saved := NewTable(3)
	for b := 0; b < 2; b++ {
		for v := 0; v < 3; v++ {
			require.NoError(t, saved.SetViewpoint(b, v, testRecord("1")))
		}
	}
	require.NoError(t, saved.Flush(aiPath, expoPath))

	// A fresh null table of the same size merges the 6 rows back in place.
	fresh := NewTable(3)
	require.NoError(t, fresh.MergeFromDisk(aiPath))

	assert.Equal(t, 6, fresh.NonNullRows())
	for i := 0; i < 6; i++ {
		if diff := cmp.Diff(saved.Row(i), fresh.Row(i)); diff != "" {
			t.Errorf("row %d mismatch (-saved +merged):\n%s", i, diff)
		}
	}
	for i := 6; i < 9; i++ {
		assert.True(t, fresh.Row(i).IsNull(), "row %d must stay null", i)
	}
	assert.Equal(t, 1, fresh.ResumeCursor())
}

func TestMergeFromDiskMissingFile(t *testing.T) {
	tbl := NewTable(2)
	require.NoError(t, tbl.MergeFromDisk(filepath.Join(t.TempDir(), "absent.csv")))
	assert.Equal(t, 0, tbl.NonNullRows())
}

func TestMergeFromDiskLongerSavedTable(t *testing.T) {
	dir := t.TempDir()
	aiPath := filepath.Join(dir, "ai.csv")

	big := NewTable(3)
	require.NoError(t, big.Flush(aiPath, filepath.Join(dir, "expo.csv")))

	small := NewTable(2)
	err := small.MergeFromDisk(aiPath)
	assert.ErrorIs(t, err, ErrSavedTableTooLong)
}

func TestFlushIdempotent(t *testing.T) {
	dir := t.TempDir()
	aiPath := filepath.Join(dir, "ai.csv")
	expoPath := filepath.Join(dir, "expo.csv")

	tbl := NewTable(2)
	require.NoError(t, tbl.SetViewpoint(0, 0, testRecord("1")))
	require.NoError(t, tbl.SetExposure(0, testRecord("1")))

	require.NoError(t, tbl.Flush(aiPath, expoPath))
	first, err := os.ReadFile(aiPath)
	require.NoError(t, err)
	firstExpo, err := os.ReadFile(expoPath)
	require.NoError(t, err)

	require.NoError(t, tbl.Flush(aiPath, expoPath))
	second, err := os.ReadFile(aiPath)
	require.NoError(t, err)
	secondExpo, err := os.ReadFile(expoPath)
	require.NoError(t, err)

	assert.Equal(t, first, second, "save with no edits is byte-identical")
	assert.Equal(t, firstExpo, secondExpo)
}

func TestFlushInaccessibleTarget(t *testing.T) {
	tbl := NewTable(1)
	require.NoError(t, tbl.SetViewpoint(0, 0, testRecord("1")))

	err := tbl.Flush("/nonexistent-dir/ai.csv", "/nonexistent-dir/expo.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileAccess)
	assert.Equal(t, 1, tbl.NonNullRows(), "in-memory state preserved for retry")
}

func TestFlushLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	tbl := NewTable(1)
	require.NoError(t, tbl.Flush(filepath.Join(dir, "ai.csv"), filepath.Join(dir, "expo.csv")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSearchBuilding(t *testing.T) {
	tbl := NewTable(3)
	require.NoError(t, tbl.SetViewpoint(1, 0, testRecord("2")))

	idx, ok := tbl.SearchBuilding("2")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = tbl.SearchBuilding("99")
	assert.False(t, ok)

	_, ok = tbl.SearchBuilding("")
	assert.False(t, ok, "empty search term matches nothing")
}

func TestTaxonomyClearedWhenConstituentsEmpty(t *testing.T) {
	r := Record{Taxonomy: "stale"}
	r.RecomputeTaxonomy()
	assert.Empty(t, r.Taxonomy)
}
