package testcase

import (
	"path/filepath"
	"testing"

	"github.com/cloudkitchen/fulfillment-runner/internal/kitchen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndLoad_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.json")
	store := NewStore(path)

	seed := int64(99)
	f := File{
		TestID: "abc-123",
		Orders: []kitchen.Order{
			{ID: "o1", Name: "banana split", Temp: kitchen.Cold, Price: 5.5, Budget: 60},
		},
		RateMicros:      500_000,
		MinPickupMicros: 4_000_000,
		MaxPickupMicros: 8_000_000,
		Seed:            &seed,
	}

	require.NoError(t, store.Save(f, 1_000))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, f.TestID, loaded.TestID)
	assert.Equal(t, f.Orders, loaded.Orders)
	assert.Equal(t, int64(1_000), loaded.Timestamp)
	require.NotNil(t, loaded.Seed)
	assert.Equal(t, seed, *loaded.Seed)
}

func TestStore_Save_DoesNotOverwriteExistingTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.json")
	store := NewStore(path)

	require.NoError(t, store.Save(File{TestID: "t1"}, 1_000))
	f, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, int64(1_000), f.Timestamp)

	require.NoError(t, store.Save(f, 9_999))
	f, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), f.Timestamp, "timestamp must not be clobbered by a later save")
}

func TestStore_Load_MissingFileReturnsErrNotFound(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.json"))
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateResult_FirstWriteSetsTimestampNotRerun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.json")
	store := NewStore(path)
	require.NoError(t, store.Save(File{TestID: "t1"}, 0))

	require.NoError(t, store.UpdateResult("PASSED", 5_000, false))

	f, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "PASSED", f.Result)
	assert.Equal(t, int64(5_000), f.Timestamp)
	assert.Equal(t, int64(0), f.RerunTimestamp)
}

func TestStore_UpdateResult_RerunSetsRerunTimestampOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.json")
	store := NewStore(path)
	require.NoError(t, store.Save(File{TestID: "t1", Timestamp: 1_000}, 1_000))

	require.NoError(t, store.UpdateResult("PASSED", 7_000, true))

	f, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "PASSED", f.Result)
	assert.Equal(t, int64(1_000), f.Timestamp, "original timestamp survives a rerun")
	assert.Equal(t, int64(7_000), f.RerunTimestamp)
}
