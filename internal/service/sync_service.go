package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/user/phimhub/internal/logger"
	"github.com/user/phimhub/internal/metrics"
	"github.com/user/phimhub/internal/model"
)

// SyncState 同步状态
type SyncState int32

const (
	StateIdle SyncState = iota
	StateFullSyncRunning
	StateIncrementalSyncRunning
)

func (s SyncState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFullSyncRunning:
		return "full_sync_running"
	case StateIncrementalSyncRunning:
		return "incremental_sync_running"
	default:
		return "unknown"
	}
}

// SyncOptions 同步参数
type SyncOptions struct {
	// Interval 增量同步周期，<=0 时不启动定时器
	Interval time.Duration
	// FullOnStart 启动时执行一次全量同步
	FullOnStart bool
	// FetchDetail 逐条拉取详情补全分类、国家、简介等字段
	FetchDetail bool
	// MaxPages 单次最多翻页数，0 表示不限制
	MaxPages int
	// OnComplete 每次运行结束后回调（用于清理查询缓存）
	OnComplete func(report *model.SyncReport)
}

// SyncService 目录同步服务
// 同一时间只允许一个同步任务运行，运行中收到的触发直接丢弃
type SyncService struct {
	source     CatalogSource
	normalizer *Normalizer
	writer     *CatalogWriter
	store      CatalogStore
	opts       SyncOptions
	log        *logrus.Entry

	state atomic.Int32

	mu      sync.RWMutex
	reports map[model.SyncKind]*model.SyncReport

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// NewSyncService 创建同步服务
func NewSyncService(source CatalogSource, normalizer *Normalizer, writer *CatalogWriter, store CatalogStore, opts SyncOptions) *SyncService {
	return &SyncService{
		source:     source,
		normalizer: normalizer,
		writer:     writer,
		store:      store,
		opts:       opts,
		log:        logger.New("SyncService"),
		reports:    make(map[model.SyncKind]*model.SyncReport),
		done:       make(chan struct{}),
	}
}

// State 当前状态
func (s *SyncService) State() SyncState {
	return SyncState(s.state.Load())
}

// IsRunning 是否有同步任务在运行
func (s *SyncService) IsRunning() bool {
	return s.State() != StateIdle
}

// LastReport 最近一次指定类型的运行报告
func (s *SyncService) LastReport(kind model.SyncKind) *model.SyncReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.reports[kind]; ok {
		cp := *r
		return &cp
	}
	return nil
}

// RunFull 同步执行全量同步
func (s *SyncService) RunFull(ctx context.Context) (*model.SyncReport, error) {
	if !s.acquire(model.SyncFull) {
		return nil, ErrSyncInProgress
	}
	return s.execute(ctx, model.SyncFull)
}

// RunIncremental 同步执行增量同步
func (s *SyncService) RunIncremental(ctx context.Context) (*model.SyncReport, error) {
	if !s.acquire(model.SyncIncremental) {
		return nil, ErrSyncInProgress
	}
	return s.execute(ctx, model.SyncIncremental)
}

// TriggerFull 异步触发全量同步，被丢弃时返回 false
func (s *SyncService) TriggerFull() bool {
	return s.trigger(model.SyncFull)
}

// TriggerIncremental 异步触发增量同步，被丢弃时返回 false
func (s *SyncService) TriggerIncremental() bool {
	return s.trigger(model.SyncIncremental)
}

func (s *SyncService) trigger(kind model.SyncKind) bool {
	if !s.acquire(kind) {
		return false
	}
	go func() {
		_, _ = s.execute(context.Background(), kind)
	}()
	return true
}

// Start 启动定时增量同步，重复调用无效
func (s *SyncService) Start() {
	s.startOnce.Do(s.start)
}

func (s *SyncService) start() {
	if s.opts.FullOnStart {
		s.TriggerFull()
	}
	if s.opts.Interval <= 0 {
		s.log.Info("[SyncService] 未配置同步周期，定时同步已关闭")
		return
	}

	ticker := time.NewTicker(s.opts.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.TriggerIncremental()
			case <-s.done:
				return
			}
		}
	}()
	s.log.Infof("[SyncService] 定时增量同步已启动，周期 %s", s.opts.Interval)
}

// Stop 停止定时器，不会中断正在运行的同步，可重复调用
func (s *SyncService) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

func (s *SyncService) acquire(kind model.SyncKind) bool {
	target := StateFullSyncRunning
	if kind == model.SyncIncremental {
		target = StateIncrementalSyncRunning
	}
	if s.state.CompareAndSwap(int32(StateIdle), int32(target)) {
		return true
	}
	metrics.SyncDropped.WithLabelValues(string(kind)).Inc()
	s.log.Infof("[SyncService] %s 同步被忽略：当前状态 %s", kind, s.State())
	return false
}

// execute 调用前必须已通过 acquire 获得运行权
func (s *SyncService) execute(ctx context.Context, kind model.SyncKind) (*model.SyncReport, error) {
	defer s.state.Store(int32(StateIdle))

	report := &model.SyncReport{
		RunID:     uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now(),
	}
	log := s.log.WithFields(logrus.Fields{"run_id": report.RunID, "kind": kind})
	log.Info("[SyncService] 开始同步")

	err := s.crawl(ctx, kind, report, log)

	report.FinishedAt = time.Now()
	result := "ok"
	if err != nil {
		result = "error"
		report.Error = err.Error()
		log.WithError(err).Errorf("[SyncService] 同步中止，已处理 %d 页", report.Pages)
	} else {
		log.Infof("[SyncService] 同步完成：%d 页，新增 %d，更新 %d，跳过 %d，拒绝 %d，写入失败 %d，耗时 %s",
			report.Pages, report.Inserted, report.Updated, report.Skipped, report.Rejected, report.WriteFailed,
			report.Duration().Round(time.Millisecond))
	}
	metrics.SyncRuns.WithLabelValues(string(kind), result).Inc()

	s.mu.Lock()
	s.reports[kind] = report
	s.mu.Unlock()

	if s.opts.OnComplete != nil {
		s.opts.OnComplete(report)
	}

	out := *report
	return &out, err
}

func (s *SyncService) crawl(ctx context.Context, kind model.SyncKind, report *model.SyncReport, log *logrus.Entry) error {
	var watermark time.Time
	if kind == model.SyncIncremental {
		wm, err := s.store.Watermark(ctx)
		if err != nil {
			return fmt.Errorf("读取水位失败: %w", err)
		}
		watermark = wm
		if !wm.IsZero() {
			report.Watermark = &wm
		} else {
			log.Info("[SyncService] 本地目录为空，增量同步按全量处理")
		}
	}

	for page := 1; ; page++ {
		if s.opts.MaxPages > 0 && page > s.opts.MaxPages {
			log.Infof("[SyncService] 已达到最大页数 %d", s.opts.MaxPages)
			return nil
		}

		p, err := s.source.FetchPage(ctx, page)
		if err != nil {
			return fmt.Errorf("第 %d 页: %w", page, err)
		}
		if len(p.Items) == 0 {
			return nil
		}

		newest, ordered := pageNewest(p.Items)
		if !ordered {
			log.Warnf("[SyncService] 第 %d 页未按更新时间倒序排列", page)
		}
		if !watermark.IsZero() && !newest.IsZero() && newest.Before(watermark) {
			report.StoppedAtWatermark = true
			log.Infof("[SyncService] 第 %d 页最新记录 %s 早于水位 %s，停止翻页",
				page, newest.Format(time.RFC3339), watermark.Format(time.RFC3339))
			return nil
		}

		report.Pages++
		report.Fetched += len(p.Items)
		s.processPage(ctx, p.Items, watermark, report, log)

		if !p.HasMore {
			return nil
		}
	}
}

// processPage 单条记录的错误只记录并跳过
func (s *SyncService) processPage(ctx context.Context, items []model.RawMovie, watermark time.Time, report *model.SyncReport, log *logrus.Entry) {
	recs := make([]*model.MovieRecord, 0, len(items))
	for _, raw := range items {
		if !watermark.IsZero() {
			if mod := raw.ModifiedAt(); !mod.IsZero() && mod.Before(watermark) {
				report.Skipped++
				continue
			}
		}

		if s.opts.FetchDetail {
			raw = s.enrich(ctx, raw, log)
		}

		rec, err := s.normalizer.Normalize(raw)
		if err != nil {
			report.Rejected++
			metrics.SyncRecords.WithLabelValues("rejected").Inc()
			log.WithError(err).Warn("[SyncService] 记录被拒绝")
			continue
		}
		recs = append(recs, rec)
	}

	stats, err := s.writer.UpsertBatch(ctx, recs)
	if err != nil {
		log.WithError(err).Errorf("[SyncService] 批量写入失败，跳过 %d 条", len(recs))
	} else if stats.Failed > 0 {
		log.Warnf("[SyncService] %d 条写入失败: %v", stats.Failed, stats.FailedSlugs)
	}
	report.Inserted += stats.Inserted
	report.Updated += stats.Updated
	report.WriteFailed += stats.Failed
	metrics.SyncRecords.WithLabelValues("inserted").Add(float64(stats.Inserted))
	metrics.SyncRecords.WithLabelValues("updated").Add(float64(stats.Updated))
	metrics.SyncRecords.WithLabelValues("write_failed").Add(float64(stats.Failed))
}

// enrich 用详情替换列表条目，失败时保留列表数据
func (s *SyncService) enrich(ctx context.Context, raw model.RawMovie, log *logrus.Entry) model.RawMovie {
	slug := raw.Slug()
	if slug == "" {
		return raw
	}
	detail, err := s.source.FetchDetail(ctx, slug)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).Warnf("[SyncService] 获取详情失败，使用列表数据: %s", slug)
		}
		return raw
	}
	// 详情缺失的字段用列表补齐（如 modified）
	for k, v := range raw {
		if _, ok := detail[k]; !ok {
			detail[k] = v
		}
	}
	return detail
}

// pageNewest 返回页内最新的修改时间，以及是否按倒序排列
func pageNewest(items []model.RawMovie) (time.Time, bool) {
	var newest, prev time.Time
	ordered := true
	for _, raw := range items {
		mod := raw.ModifiedAt()
		if mod.IsZero() {
			continue
		}
		if !prev.IsZero() && mod.After(prev) {
			ordered = false
		}
		prev = mod
		if mod.After(newest) {
			newest = mod
		}
	}
	return newest, ordered
}
