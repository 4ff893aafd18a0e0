package model

import (
	"strconv"
	"strings"
	"time"
)

// RawMovie 上游返回的原始影片数据（未校验）
type RawMovie map[string]any

// UpstreamPage 上游分页结果
type UpstreamPage struct {
	Items       []RawMovie
	CurrentPage int
	TotalPages  int
	HasMore     bool
}

// String 读取字符串字段，数字会被格式化
func (r RawMovie) String(key string) string {
	return anyToString(r[key])
}

// Map 读取嵌套对象
func (r RawMovie) Map(key string) (map[string]any, bool) {
	m, ok := r[key].(map[string]any)
	return m, ok
}

// Slug 上游 slug
func (r RawMovie) Slug() string {
	return strings.TrimSpace(r.String("slug"))
}

// ModifiedAt 解析 modified.time，缺失或格式错误时返回零值
func (r RawMovie) ModifiedAt() time.Time {
	mod, ok := r.Map("modified")
	if !ok {
		return ParseUpstreamTime(r.String("modified"))
	}
	return ParseUpstreamTime(anyToString(mod["time"]))
}

var upstreamTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseUpstreamTime 兼容上游多种时间格式
func ParseUpstreamTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range upstreamTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// anyToString 将任意类型转换为 string
func anyToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// JSON 数字默认解析为 float64
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
