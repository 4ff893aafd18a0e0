package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable 上游网络错误或非 2xx 响应，调用方可重试
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotFound 上游或本地不存在该影片
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput 参数不合法（页码 < 1、空 slug 等）
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedRecord 记录无法归一化
	ErrMalformedRecord = errors.New("malformed record")

	// ErrWriteFailure 存储层拒绝写入
	ErrWriteFailure = errors.New("write failure")

	// ErrSyncInProgress 已有同步任务在运行，本次触发被丢弃
	ErrSyncInProgress = errors.New("sync already in progress")
)

// UpstreamError 上游请求失败
type UpstreamError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s %s: status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap 使 errors.Is(err, ErrUpstreamUnavailable) 成立
func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}

// RejectedRecord 归一化拒绝的记录
type RejectedRecord struct {
	Slug   string
	Reason string
}

func (e *RejectedRecord) Error() string {
	if e.Slug == "" {
		return "rejected record: " + e.Reason
	}
	return fmt.Sprintf("rejected record %s: %s", e.Slug, e.Reason)
}

func (e *RejectedRecord) Unwrap() error {
	return ErrMalformedRecord
}

// WriteError 存储写入失败
type WriteError struct {
	Slug string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Slug == "" {
		return fmt.Sprintf("write failed: %v", e.Err)
	}
	return fmt.Sprintf("write %s failed: %v", e.Slug, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrWriteFailure, e.Err}
}
