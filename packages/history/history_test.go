package history

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestParseConnectionString(t *testing.T) {
	assert.Equal(t, "./runs.db", parseConnectionString("sqlite://./runs.db"))
	assert.Equal(t, "runs.db", parseConnectionString("sqlite:runs.db"))
	assert.Equal(t, "/tmp/runs.db", parseConnectionString(" /tmp/runs.db "))
	assert.Equal(t, ":memory:", parseConnectionString("sqlite::memory:"))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestStore_RecordAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 30, 0, 123_000_000, time.UTC)
	run := &Run{
		Kind:      KindBulk,
		Name:      "smoke suite",
		Status:    "failed",
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Summary:   json.RawMessage(`{"total":3,"failed":1}`),
	}
	require.NoError(t, store.Record(ctx, run))
	require.NotEmpty(t, run.ID)

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, KindBulk, got.Kind)
	assert.Equal(t, "smoke suite", got.Name)
	assert.Equal(t, "failed", got.Status)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.JSONEq(t, `{"total":3,"failed":1}`, string(got.Summary))
}

func TestStore_GetNotFound(t *testing.T) {
	store := openStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_List(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	runs := []*Run{
		{ID: "r1", Kind: KindRun, Status: "passed", StartedAt: base},
		{ID: "c1", Kind: KindChain, Status: "passed", StartedAt: base.Add(time.Second)},
		{ID: "r2", Kind: KindRun, Status: "failed", StartedAt: base.Add(1500 * time.Millisecond)},
		{ID: "b1", Kind: KindBulk, Status: "passed", StartedAt: base.Add(2 * time.Second)},
	}
	for _, r := range runs {
		require.NoError(t, store.Record(ctx, r))
	}

	t.Run("newest first", func(t *testing.T) {
		all, err := store.List(ctx, ListOptions{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, []string{"b1", "r2", "c1", "r1"}, []string{all[0].ID, all[1].ID, all[2].ID, all[3].ID})
		assert.Nil(t, all[0].Summary)
	})

	t.Run("filter by kind", func(t *testing.T) {
		only, err := store.List(ctx, ListOptions{Kind: KindRun})
		require.NoError(t, err)
		require.Len(t, only, 2)
		assert.Equal(t, "r2", only[0].ID)
		assert.Equal(t, "r1", only[1].ID)
	})

	t.Run("limit", func(t *testing.T) {
		limited, err := store.List(ctx, ListOptions{Limit: 1})
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, "b1", limited[0].ID)
	})
}

func TestStore_DuplicateID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, &Run{ID: "same", Kind: KindRun, Status: "passed"}))
	err := store.Record(ctx, &Run{ID: "same", Kind: KindRun, Status: "passed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recording run")
}
