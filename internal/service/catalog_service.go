package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/user/phimhub/internal/logger"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
)

const (
	DefaultPageLimit = 24
	MaxPageLimit     = 64
	// MaxPage 超出后返回空页，同时保证 skip 不溢出
	MaxPage = 100000

	statsCacheKey = "catalog:stats"
	statsCacheTTL = time.Minute
)

// CatalogReader 本地目录只读查询（repository.MovieRepository 实现）
type CatalogReader interface {
	FindBySlug(ctx context.Context, slug string) (*model.MovieRecord, error)
	ListNew(ctx context.Context, page, limit int) ([]*model.MovieRecord, int64, error)
	Search(ctx context.Context, q model.MovieQuery) ([]*model.MovieRecord, int64, error)
	Count(ctx context.Context) (int64, error)
	CountByType(ctx context.Context) (map[string]int64, error)
	Watermark(ctx context.Context) (time.Time, error)
	LastSyncedAt(ctx context.Context) (time.Time, error)
}

// MoviePage 分页结果
type MoviePage struct {
	Items []*model.MovieRecord
	Total int64
	Page  int
	Limit int
}

// CatalogService 目录查询服务
// 列表与搜索结果放在 LRU 缓存里，同步完成后整体失效
type CatalogService struct {
	reader CatalogReader
	cache  *utils.SearchCache[*MoviePage]
	log    *logrus.Entry
}

// NewCatalogService 创建目录查询服务
func NewCatalogService(reader CatalogReader, cacheSize int, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		reader: reader,
		cache:  utils.NewSearchCache[*MoviePage](cacheSize, cacheTTL),
		log:    logger.New("CatalogService"),
	}
}

// NormalizePaging 页码从 1 开始且不超过 MaxPage，limit 默认 24，最大 64
func NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// GetBySlug 获取单部影片，不存在返回 ErrNotFound
func (s *CatalogService) GetBySlug(ctx context.Context, slug string) (*model.MovieRecord, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("empty slug: %w", ErrInvalidInput)
	}
	movie, err := s.reader.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, fmt.Errorf("movie %s: %w", slug, ErrNotFound)
	}
	return movie, nil
}

// ListNew 最新更新
func (s *CatalogService) ListNew(ctx context.Context, page, limit int) (*MoviePage, error) {
	page, limit = NormalizePaging(page, limit)
	key := fmt.Sprintf("new:%d:%d", page, limit)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	items, total, err := s.reader.ListNew(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := &MoviePage{Items: items, Total: total, Page: page, Limit: limit}
	s.cache.Set(key, result)
	return result, nil
}

// Search 关键词与分类、国家、年份过滤
func (s *CatalogService) Search(ctx context.Context, q model.MovieQuery) (*MoviePage, error) {
	q.Keyword = utils.CollapseSpaces(q.Keyword)
	q.Page, q.Limit = NormalizePaging(q.Page, q.Limit)
	if q.Year < 0 {
		return nil, fmt.Errorf("year %d: %w", q.Year, ErrInvalidInput)
	}

	key := searchCacheKey(q)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	items, total, err := s.reader.Search(ctx, q)
	if err != nil {
		s.log.WithError(err).Errorf("[CatalogService] 搜索失败: %s", q.Keyword)
		return nil, err
	}
	result := &MoviePage{Items: items, Total: total, Page: q.Page, Limit: q.Limit}
	s.cache.Set(key, result)
	return result, nil
}

func searchCacheKey(q model.MovieQuery) string {
	return fmt.Sprintf("search:%s|%s|%s|%s|%d|%d|%d",
		strings.ToLower(q.Keyword), q.Type, q.Category, q.Country, q.Year, q.Page, q.Limit)
}

// Stats 目录统计（短时缓存，并发请求只查一次）
func (s *CatalogService) Stats(ctx context.Context) (*model.MovieStats, error) {
	v, err := utils.CacheGetOrLoad(statsCacheKey, statsCacheTTL, func() (interface{}, error) {
		return s.loadStats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.MovieStats), nil
}

func (s *CatalogService) loadStats(ctx context.Context) (*model.MovieStats, error) {
	total, err := s.reader.Count(ctx)
	if err != nil {
		return nil, err
	}
	byType, err := s.reader.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	stats := &model.MovieStats{Total: total, ByType: byType}

	wm, err := s.reader.Watermark(ctx)
	if err != nil {
		return nil, err
	}
	if !wm.IsZero() {
		stats.Watermark = &wm
	}
	last, err := s.reader.LastSyncedAt(ctx)
	if err != nil {
		return nil, err
	}
	if !last.IsZero() {
		stats.LastSync = &last
	}
	return stats, nil
}

// Invalidate 清空查询缓存（同步完成后调用）
func (s *CatalogService) Invalidate() {
	s.cache.Clear()
	utils.CacheDelete(statsCacheKey)
}

// OnSyncComplete 作为 SyncOptions.OnComplete 使用
func (s *CatalogService) OnSyncComplete(report *model.SyncReport) {
	if report.Inserted == 0 && report.Updated == 0 {
		return
	}
	s.Invalidate()
	s.log.Debugf("[CatalogService] 同步写入 %d 条，查询缓存已清空", report.Inserted+report.Updated)
}
