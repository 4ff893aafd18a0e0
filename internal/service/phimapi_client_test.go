package service

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T, handler http.HandlerFunc) *PhimAPIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPhimAPIClient(srv.URL+"/", 2*time.Second)
}

func TestPhimAPIClient_FetchPage(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/danh-sach/phim-moi-cap-nhat", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Contains(t, r.Header.Get("Accept-Language"), "vi-VN")
		_, _ = w.Write([]byte(`{
			"status": true,
			"items": [
				{"_id": "1", "slug": "a", "name": "A", "modified": {"time": "2024-06-01T10:00:00.000Z"}},
				{"_id": "2", "slug": "b", "name": "B", "year": 2023}
			],
			"pagination": {"totalItems": 50, "totalItemsPerPage": "10", "currentPage": 2, "totalPages": "5"}
		}`))
	})

	page, err := client.FetchPage(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].Slug())
	assert.False(t, page.Items[0].ModifiedAt().IsZero())
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 5, page.TotalPages)
	assert.True(t, page.HasMore)
}

func TestPhimAPIClient_FetchPageNestedShape(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {
				"items": [{"slug": "x"}],
				"params": {"pagination": {"currentPage": 3, "totalPages": 3}}
			}
		}`))
	})

	page, err := client.FetchPage(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)
}

func TestPhimAPIClient_FetchPageGzip(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		_ = json.NewEncoder(gz).Encode(map[string]any{
			"items":      []map[string]any{{"slug": "z"}},
			"pagination": map[string]any{"currentPage": 1, "totalPages": 1},
		})
	})

	page, err := client.FetchPage(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "z", page.Items[0].Slug())
}

func TestPhimAPIClient_FetchPageErrors(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchPage(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = client.FetchPage(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadGateway, ue.StatusCode)
}

func TestPhimAPIClient_FetchPageTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	client := NewPhimAPIClient(srv.URL, 20*time.Millisecond)

	_, err := client.FetchPage(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestPhimAPIClient_FetchDetail(t *testing.T) {
	var hits atomic.Int32
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/phim/dao-hai-tac":
			_, _ = w.Write([]byte(`{
				"status": true,
				"msg": "",
				"movie": {"_id": "1", "slug": "dao-hai-tac", "name": "Đảo Hải Tặc", "content": "<p>x</p>"},
				"episodes": [{"server_name": "#Hà Nội", "server_data": [{"name": "1", "slug": "tap-1"}]}]
			}`))
		case "/phim/gone":
			_, _ = w.Write([]byte(`{"status": false, "msg": "Movie not found", "movie": null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	raw, err := client.FetchDetail(ctx, "dao-hai-tac")
	require.NoError(t, err)
	assert.Equal(t, "Đảo Hải Tặc", raw.String("name"))
	assert.Len(t, raw["episodes"], 1)

	_, err = client.FetchDetail(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.FetchDetail(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrUpstreamUnavailable)

	_, err = client.FetchDetail(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.EqualValues(t, 3, hits.Load())
}
