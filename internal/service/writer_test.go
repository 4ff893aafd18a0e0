package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/phimhub/internal/model"
)

func TestClock_StrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClock(func() time.Time { return fixed })

	first := clock.Now()
	second := clock.Now()
	assert.Equal(t, fixed, first)
	assert.True(t, second.After(first))
	assert.Equal(t, time.Millisecond, second.Sub(first))
}

func TestClock_TruncatesToMillisecond(t *testing.T) {
	clock := NewClock(func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 1_500_000, time.FixedZone("ICT", 7*3600))
	})
	now := clock.Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Equal(t, 1_000_000, now.Nanosecond())
}

func TestClock_Concurrent(t *testing.T) {
	clock := NewClock(nil)
	var (
		mu   sync.Mutex
		seen = make(map[time.Time]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ts := clock.Now()
				mu.Lock()
				seen[ts] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 400)
}

func TestCatalogWriter_SecondWriteWins(t *testing.T) {
	store := newMemoryStore()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writer := NewCatalogWriter(store, NewClock(func() time.Time { return fixed }))
	ctx := context.Background()

	outcome, err := writer.Upsert(ctx, &model.MovieRecord{Slug: "x", Name: "Tên cũ", Quality: "HD"})
	require.NoError(t, err)
	assert.Equal(t, model.UpsertInserted, outcome)
	first := store.get("x")

	outcome, err = writer.Upsert(ctx, &model.MovieRecord{Slug: "x", Name: "Tên mới", Quality: "FHD"})
	require.NoError(t, err)
	assert.Equal(t, model.UpsertUpdated, outcome)

	second := store.get("x")
	assert.Equal(t, "Tên mới", second.Name)
	assert.Equal(t, "FHD", second.Quality)
	assert.True(t, second.LastSyncedAt.After(first.LastSyncedAt))
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	count, _ := store.Count(ctx)
	assert.EqualValues(t, 1, count)
}

func TestCatalogWriter_UpsertError(t *testing.T) {
	store := newMemoryStore()
	store.failSlugs["x"] = true
	writer := NewCatalogWriter(store, nil)

	_, err := writer.Upsert(context.Background(), &model.MovieRecord{Slug: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteFailure)

	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, "x", we.Slug)
}

func TestCatalogWriter_UpsertBatch(t *testing.T) {
	store := newMemoryStore()
	writer := NewCatalogWriter(store, nil)
	ctx := context.Background()

	stats, err := writer.UpsertBatch(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, model.UpsertStats{}, stats)
	assert.Equal(t, 0, store.batches)

	recs := []*model.MovieRecord{{Slug: "a"}, {Slug: "b"}}
	stats, err = writer.UpsertBatch(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Inserted)
	assert.True(t, recs[1].LastSyncedAt.After(recs[0].LastSyncedAt))

	store.batchErr = errors.New("connection reset")
	stats, err = writer.UpsertBatch(ctx, []*model.MovieRecord{{Slug: "c"}, {Slug: "d"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteFailure)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, []string{"c", "d"}, stats.FailedSlugs)
}
