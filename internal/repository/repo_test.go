package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kjannette/pi-tracker/internal/models"
	"github.com/kjannette/pi-tracker/internal/repository"
	"github.com/kjannette/pi-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleHistory() []models.PriceSample {
	base := time.Date(2025, 2, 20, 10, 0, 0, 0, time.Local)
	return []models.PriceSample{
		models.NewPriceSample(base, 1.6521),
		models.NewPriceSample(base.Add(time.Hour), 0),
		models.NewPriceSample(base.Add(2*time.Hour), 1.7004),
	}
}

func assertSameHistory(t *testing.T, want, got []models.PriceSample) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Time.Equal(got[i].Time), "time %d: want %s got %s", i, want[i].Time, got[i].Time)
		assert.Equal(t, want[i].Price, got[i].Price, "price %d", i)
	}
}

// ---------- JSONFileStore ----------

func TestJSONFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_history.json")
	store := repository.NewJSONFileStore(path, zap.NewNop())
	ctx := context.Background()

	want := sampleHistory()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assertSameHistory(t, want, got)
}

func TestJSONFileStore_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_history.json")
	store := repository.NewJSONFileStore(path, zap.NewNop())

	ts := time.Date(2025, 2, 20, 10, 0, 0, 0, time.Local)
	require.NoError(t, store.Save(context.Background(), []models.PriceSample{models.NewPriceSample(ts, 1.5)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "[\n    {\n        \"time\": \"2025-02-20 10:00:00\",\n        \"price\": 1.5\n    }\n]\n"
	assert.Equal(t, want, string(data))
}

func TestJSONFileStore_MissingFile(t *testing.T) {
	store := repository.NewJSONFileStore(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestJSONFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_history.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"time": "2025-02-20 10:00:00", "price": `), 0o644))
	store := repository.NewJSONFileStore(path, zap.NewNop())

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONFileStore_SaveReplacesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_history.json")
	store := repository.NewJSONFileStore(path, zap.NewNop())
	ctx := context.Background()

	history := sampleHistory()
	require.NoError(t, store.Save(ctx, history))
	require.NoError(t, store.Save(ctx, history[:1]))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assertSameHistory(t, history[:1], got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

// ---------- WALStore ----------

func TestWALStore_RoundTripAndReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	history := sampleHistory()

	store, err := repository.NewWALStore(dir, zap.NewNop())
	require.NoError(t, err)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Save(ctx, history[:2]))
	// saving the full sequence appends only the new tail
	require.NoError(t, store.Save(ctx, history))
	require.NoError(t, store.Close())

	reopened, err := repository.NewWALStore(dir, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err = reopened.Load(ctx)
	require.NoError(t, err)
	assertSameHistory(t, history, got)

	// unchanged history writes nothing
	require.NoError(t, reopened.Save(ctx, history))
	got, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(history))
}

func TestWALStore_RejectsShrink(t *testing.T) {
	store, err := repository.NewWALStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	history := sampleHistory()
	require.NoError(t, store.Save(ctx, history))
	require.Error(t, store.Save(ctx, history[:1]))
}

// ---------- PostgresStore ----------

func TestPostgresStore(t *testing.T) {
	pool := testutil.SetupPool(t)
	store := repository.NewPostgresStore(pool)
	ctx := context.Background()

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	history := sampleHistory()
	require.NoError(t, store.Save(ctx, history[:1]))
	require.NoError(t, store.Save(ctx, history))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assertSameHistory(t, history, got)

	latest, err = store.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, history[2].Price, latest.Price)
}
