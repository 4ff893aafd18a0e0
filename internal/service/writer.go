package service

import (
	"context"
	"sync"
	"time"

	"github.com/user/phimhub/internal/model"
)

// CatalogStore 影片目录存储（repository.MovieRepository 实现）
type CatalogStore interface {
	// UpsertOne 以 slug 为键插入或覆盖（created_at 除外）
	UpsertOne(ctx context.Context, rec *model.MovieRecord) (model.UpsertOutcome, error)

	// UpsertMany 无序批量写入，单条失败不影响其它记录
	UpsertMany(ctx context.Context, recs []*model.MovieRecord) (model.UpsertStats, error)

	// Watermark 本地最大的 upstream_modified_at，空库返回零值
	Watermark(ctx context.Context) (time.Time, error)

	// Count 记录总数
	Count(ctx context.Context) (int64, error)
}

// Clock 返回严格递增的时间（毫秒精度，与 BSON 日期一致）
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewClock now 为 nil 时使用 time.Now
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Now 保证每次返回值都晚于上一次
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Millisecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}

// CatalogWriter 写入目录记录并打上 last_synced_at
type CatalogWriter struct {
	store CatalogStore
	clock *Clock
}

// NewCatalogWriter 创建写入器
func NewCatalogWriter(store CatalogStore, clock *Clock) *CatalogWriter {
	if clock == nil {
		clock = NewClock(nil)
	}
	return &CatalogWriter{store: store, clock: clock}
}

// Upsert 写入单条记录
func (w *CatalogWriter) Upsert(ctx context.Context, rec *model.MovieRecord) (model.UpsertOutcome, error) {
	rec.LastSyncedAt = w.clock.Now()
	outcome, err := w.store.UpsertOne(ctx, rec)
	if err != nil {
		return 0, &WriteError{Slug: rec.Slug, Err: err}
	}
	return outcome, nil
}

// UpsertBatch 批量写入；整批失败时返回 *WriteError，单条失败记录在 stats.FailedSlugs
func (w *CatalogWriter) UpsertBatch(ctx context.Context, recs []*model.MovieRecord) (model.UpsertStats, error) {
	if len(recs) == 0 {
		return model.UpsertStats{}, nil
	}
	for _, rec := range recs {
		rec.LastSyncedAt = w.clock.Now()
	}
	stats, err := w.store.UpsertMany(ctx, recs)
	if err != nil {
		failed := model.UpsertStats{Failed: len(recs)}
		for _, rec := range recs {
			failed.FailedSlugs = append(failed.FailedSlugs, rec.Slug)
		}
		return failed, &WriteError{Err: err}
	}
	return stats, nil
}
