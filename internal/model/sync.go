package model

import (
	"time"
)

// UpsertOutcome 单条写入结果
type UpsertOutcome int

const (
	UpsertInserted UpsertOutcome = iota + 1
	UpsertUpdated
)

func (o UpsertOutcome) String() string {
	switch o {
	case UpsertInserted:
		return "inserted"
	case UpsertUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// UpsertStats 批量写入统计
type UpsertStats struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
	// FailedSlugs 写入失败的记录
	FailedSlugs []string `json:"failed_slugs,omitempty"`
}

// Add 合并统计
func (s *UpsertStats) Add(o UpsertStats) {
	s.Inserted += o.Inserted
	s.Updated += o.Updated
	s.Failed += o.Failed
	s.FailedSlugs = append(s.FailedSlugs, o.FailedSlugs...)
}

// SyncKind 同步类型
type SyncKind string

const (
	SyncFull        SyncKind = "full"
	SyncIncremental SyncKind = "incremental"
)

// SyncReport 单次同步运行报告
type SyncReport struct {
	RunID              string     `json:"run_id"`
	Kind               SyncKind   `json:"kind"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         time.Time  `json:"finished_at"`
	Pages              int        `json:"pages"`
	Fetched            int        `json:"fetched"`
	Inserted           int        `json:"inserted"`
	Updated            int        `json:"updated"`
	Skipped            int        `json:"skipped"`
	Rejected           int        `json:"rejected"`
	WriteFailed        int        `json:"write_failed"`
	Watermark          *time.Time `json:"watermark,omitempty"`
	StoppedAtWatermark bool       `json:"stopped_at_watermark"`
	Error              string     `json:"error,omitempty"`
}

// Duration 运行耗时
func (r *SyncReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
