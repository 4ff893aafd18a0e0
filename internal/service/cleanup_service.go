package service

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/user/phimhub/internal/logger"
)

// HistoryPruner 观影历史清理（repository.HistoryRepository 实现）
type HistoryPruner interface {
	DeleteBefore(before time.Time) (int64, error)
}

// CleanupService 清理服务
type CleanupService struct {
	history   HistoryPruner
	retention time.Duration
	interval  time.Duration
	log       *logrus.Entry

	stopOnce sync.Once
	done     chan struct{}
}

// NewCleanupService retentionDays <= 0 时不做清理
func NewCleanupService(history HistoryPruner, retentionDays int) *CleanupService {
	return &CleanupService{
		history:   history,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  24 * time.Hour,
		log:       logger.New("CleanupService"),
		done:      make(chan struct{}),
	}
}

// Start 启动定时清理任务（每天一次，启动时先运行一次）
func (s *CleanupService) Start() {
	if s.retention <= 0 {
		s.log.Info("[CleanupService] 未配置保留天数，跳过清理")
		return
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		s.RunOnce(time.Now())
		for {
			select {
			case <-ticker.C:
				s.RunOnce(time.Now())
			case <-s.done:
				return
			}
		}
	}()
}

// Stop 停止定时任务
func (s *CleanupService) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// RunOnce 清理 now - retention 之前的观影记录
func (s *CleanupService) RunOnce(now time.Time) int64 {
	if s.retention <= 0 {
		return 0
	}
	cutoff := now.Add(-s.retention)
	affected, err := s.history.DeleteBefore(cutoff)
	if err != nil {
		s.log.WithError(err).Error("[CleanupService] 清理观影历史失败")
		return 0
	}
	if affected > 0 {
		s.log.Infof("[CleanupService] 已清理 %d 条 %s 之前的观影历史", affected, cutoff.Format("2006-01-02"))
	}
	return affected
}
