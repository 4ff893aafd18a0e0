package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/user/phimhub/internal/metrics"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
	"golang.org/x/sync/singleflight"
)

// CatalogSource 上游影片目录
// 不做并发，只负责单次请求，翻页由调用方控制
type CatalogSource interface {
	// FetchPage 获取最新更新列表的第 page 页（从 1 开始）
	FetchPage(ctx context.Context, page int) (*model.UpstreamPage, error)

	// FetchDetail 根据 slug 获取详情，不存在时返回 ErrNotFound
	FetchDetail(ctx context.Context, slug string) (model.RawMovie, error)
}

// PhimAPIClient KKPhim / phimapi 客户端
type PhimAPIClient struct {
	baseURL string
	http    *utils.HTTPClient
	group   singleflight.Group
}

// NewPhimAPIClient 创建上游客户端
func NewPhimAPIClient(baseURL string, timeout time.Duration) *PhimAPIClient {
	return &PhimAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    utils.NewHTTPClient(timeout),
	}
}

// flexInt 兼容上游数字字段有时是字符串
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

type pagination struct {
	TotalItems        flexInt `json:"totalItems"`
	TotalItemsPerPage flexInt `json:"totalItemsPerPage"`
	CurrentPage       flexInt `json:"currentPage"`
	TotalPages        flexInt `json:"totalPages"`
}

// listResponse 列表接口响应
// phim-moi-cap-nhat 直接返回 items/pagination，v1 分类接口包在 data 里
type listResponse struct {
	Status     interface{}      `json:"status"`
	Items      []model.RawMovie `json:"items"`
	Pagination *pagination      `json:"pagination"`
	Data       *struct {
		Items  []model.RawMovie `json:"items"`
		Params struct {
			Pagination *pagination `json:"pagination"`
		} `json:"params"`
	} `json:"data"`
}

// detailResponse 详情接口响应
type detailResponse struct {
	Status   interface{}    `json:"status"`
	Msg      string         `json:"msg"`
	Movie    model.RawMovie `json:"movie"`
	Episodes []interface{}  `json:"episodes"`
}

// FetchPage 获取列表页
func (c *PhimAPIClient) FetchPage(ctx context.Context, page int) (*model.UpstreamPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("page %d: %w", page, ErrInvalidInput)
	}
	apiURL := fmt.Sprintf("%s/danh-sach/phim-moi-cap-nhat?page=%d", c.baseURL, page)

	start := time.Now()
	var resp listResponse
	err := c.http.GetJSON(ctx, apiURL, &resp)
	metrics.ObserveFetch("page", err, time.Since(start))
	if err != nil {
		return nil, c.wrapErr("fetch page", apiURL, err)
	}

	items, pg := resp.Items, resp.Pagination
	if len(items) == 0 && resp.Data != nil {
		items, pg = resp.Data.Items, resp.Data.Params.Pagination
	}

	result := &model.UpstreamPage{
		Items:       items,
		CurrentPage: page,
	}
	if pg != nil {
		if pg.CurrentPage > 0 {
			result.CurrentPage = int(pg.CurrentPage)
		}
		result.TotalPages = int(pg.TotalPages)
	}
	result.HasMore = len(items) > 0 && result.CurrentPage < result.TotalPages
	return result, nil
}

// FetchDetail 获取详情（同一 slug 的并发请求只发一次）
func (c *PhimAPIClient) FetchDetail(ctx context.Context, slug string) (model.RawMovie, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("empty slug: %w", ErrInvalidInput)
	}

	val, err, _ := c.group.Do(slug, func() (interface{}, error) {
		return c.fetchDetail(ctx, slug)
	})
	if err != nil {
		return nil, err
	}
	return val.(model.RawMovie), nil
}

func (c *PhimAPIClient) fetchDetail(ctx context.Context, slug string) (model.RawMovie, error) {
	apiURL := fmt.Sprintf("%s/phim/%s", c.baseURL, url.PathEscape(slug))

	start := time.Now()
	var resp detailResponse
	err := c.http.GetJSON(ctx, apiURL, &resp)
	metrics.ObserveFetch("detail", err, time.Since(start))
	if err != nil {
		var se *utils.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("phim %s: %w", slug, ErrNotFound)
		}
		return nil, c.wrapErr("fetch detail", apiURL, err)
	}

	if status, ok := resp.Status.(bool); (ok && !status) || resp.Movie == nil {
		return nil, fmt.Errorf("phim %s: %w", slug, ErrNotFound)
	}

	raw := resp.Movie
	if len(resp.Episodes) > 0 {
		raw["episodes"] = resp.Episodes
	}
	return raw, nil
}

func (c *PhimAPIClient) wrapErr(op, apiURL string, err error) error {
	ue := &UpstreamError{Op: op, URL: apiURL, Err: err}
	var se *utils.StatusError
	if errors.As(err, &se) {
		ue.StatusCode = se.StatusCode
	}
	return ue
}
