package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/phimhub/internal/model"
)

// memoryStore 内存实现的 CatalogStore / CatalogReader
type memoryStore struct {
	mu        sync.Mutex
	records   map[string]*model.MovieRecord
	failSlugs map[string]bool
	batchErr  error
	batches   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		records:   make(map[string]*model.MovieRecord),
		failSlugs: make(map[string]bool),
	}
}

func (s *memoryStore) put(rec *model.MovieRecord) model.UpsertOutcome {
	cp := *rec
	if old, ok := s.records[rec.Slug]; ok {
		cp.CreatedAt = old.CreatedAt
		s.records[rec.Slug] = &cp
		return model.UpsertUpdated
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.LastSyncedAt
	}
	s.records[rec.Slug] = &cp
	return model.UpsertInserted
}

func (s *memoryStore) UpsertOne(_ context.Context, rec *model.MovieRecord) (model.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSlugs[rec.Slug] {
		return 0, fmt.Errorf("duplicate key %s", rec.Slug)
	}
	return s.put(rec), nil
}

func (s *memoryStore) UpsertMany(_ context.Context, recs []*model.MovieRecord) (model.UpsertStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	var stats model.UpsertStats
	if s.batchErr != nil {
		return stats, s.batchErr
	}
	for _, rec := range recs {
		if s.failSlugs[rec.Slug] {
			stats.Failed++
			stats.FailedSlugs = append(stats.FailedSlugs, rec.Slug)
			continue
		}
		switch s.put(rec) {
		case model.UpsertInserted:
			stats.Inserted++
		case model.UpsertUpdated:
			stats.Updated++
		}
	}
	return stats, nil
}

func (s *memoryStore) Watermark(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var wm time.Time
	for _, r := range s.records {
		if r.UpstreamModifiedAt.After(wm) {
			wm = r.UpstreamModifiedAt
		}
	}
	return wm, nil
}

func (s *memoryStore) LastSyncedAt(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last time.Time
	for _, r := range s.records {
		if r.LastSyncedAt.After(last) {
			last = r.LastSyncedAt
		}
	}
	return last, nil
}

func (s *memoryStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.records)), nil
}

func (s *memoryStore) CountByType(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64)
	for _, r := range s.records {
		out[r.Type]++
	}
	return out, nil
}

func (s *memoryStore) FindBySlug(_ context.Context, slug string) (*model.MovieRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[slug]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *memoryStore) sorted(match func(*model.MovieRecord) bool) []*model.MovieRecord {
	var out []*model.MovieRecord
	for _, r := range s.records {
		if match(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpstreamModifiedAt.Equal(out[j].UpstreamModifiedAt) {
			return out[i].UpstreamModifiedAt.After(out[j].UpstreamModifiedAt)
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

func paginate(all []*model.MovieRecord, page, limit int) []*model.MovieRecord {
	start := (page - 1) * limit
	if start >= len(all) {
		return []*model.MovieRecord{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func (s *memoryStore) ListNew(_ context.Context, page, limit int) ([]*model.MovieRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sorted(func(*model.MovieRecord) bool { return true })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (s *memoryStore) Search(_ context.Context, q model.MovieQuery) ([]*model.MovieRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kw := strings.ToLower(q.Keyword)
	all := s.sorted(func(r *model.MovieRecord) bool {
		if kw != "" && !strings.Contains(strings.ToLower(r.Name), kw) && !strings.Contains(r.Slug, kw) {
			return false
		}
		return q.Type == "" || r.Type == q.Type
	})
	return paginate(all, q.Page, q.Limit), int64(len(all)), nil
}

func (s *memoryStore) get(slug string) *model.MovieRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[slug]
}

// fakeSource 按页返回固定数据的 CatalogSource
type fakeSource struct {
	mu      sync.Mutex
	pages   [][]model.RawMovie
	errs    map[int]error
	details map[string]model.RawMovie
	fetched []int

	// blockPage 非 0 时，获取该页前先通知 reached 并等待 release
	blockPage int
	reached   chan struct{}
	release   chan struct{}
}

func newFakeSource(pages ...[]model.RawMovie) *fakeSource {
	return &fakeSource{
		pages:   pages,
		errs:    make(map[int]error),
		details: make(map[string]model.RawMovie),
	}
}

func (f *fakeSource) FetchPage(ctx context.Context, page int) (*model.UpstreamPage, error) {
	if page < 1 {
		return nil, ErrInvalidInput
	}
	if f.blockPage == page {
		close(f.reached)
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, page)
	if err, ok := f.errs[page]; ok {
		return nil, err
	}
	if page > len(f.pages) {
		return &model.UpstreamPage{CurrentPage: page, TotalPages: len(f.pages)}, nil
	}
	items := make([]model.RawMovie, len(f.pages[page-1]))
	for i, raw := range f.pages[page-1] {
		items[i] = copyRaw(raw)
	}
	return &model.UpstreamPage{
		Items:       items,
		CurrentPage: page,
		TotalPages:  len(f.pages),
		HasMore:     page < len(f.pages),
	}, nil
}

func (f *fakeSource) FetchDetail(_ context.Context, slug string) (model.RawMovie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[slug]
	if !ok {
		return nil, fmt.Errorf("phim %s: %w", slug, ErrNotFound)
	}
	return copyRaw(d), nil
}

func (f *fakeSource) fetchedPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.fetched...)
}

func copyRaw(raw model.RawMovie) model.RawMovie {
	cp := make(model.RawMovie, len(raw))
	for k, v := range raw {
		cp[k] = v
	}
	return cp
}

// rawMovie 构造上游列表条目
func rawMovie(slug string, modified time.Time) model.RawMovie {
	return model.RawMovie{
		"_id":         "id-" + slug,
		"slug":        slug,
		"name":        "Phim " + slug,
		"origin_name": "Movie " + slug,
		"year":        float64(2024),
		"modified":    map[string]any{"time": modified.UTC().Format(time.RFC3339)},
	}
}

func newTestSync(src CatalogSource, store *memoryStore, opts SyncOptions) *SyncService {
	writer := NewCatalogWriter(store, NewClock(nil))
	return NewSyncService(src, NewNormalizer("https://phimimg.com"), writer, store, opts)
}
