package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
)

// ListNew 最新更新
func (h *Handler) ListNew(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.Catalog.ListNew(c.Request.Context(), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, utils.NewPageData(result.Items, result.Page, result.Limit, result.Total))
}

// SearchMovies 关键词 + 过滤搜索
func (h *Handler) SearchMovies(c *gin.Context) {
	page, limit := pageParams(c)
	q := model.MovieQuery{
		Keyword:  c.Query("keyword"),
		Type:     strings.ToLower(strings.TrimSpace(c.Query("type"))),
		Category: strings.TrimSpace(c.Query("category")),
		Country:  strings.TrimSpace(c.Query("country")),
		Page:     page,
		Limit:    limit,
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil || year <= 0 {
			utils.BadRequest(c, "Năm không hợp lệ")
			return
		}
		q.Year = year
	}

	result, err := h.Catalog.Search(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, utils.NewPageData(result.Items, result.Page, result.Limit, result.Total))
}

// MovieStats 目录统计
func (h *Handler) MovieStats(c *gin.Context) {
	stats, err := h.Catalog.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, stats)
}

// MovieDetail 单部影片
func (h *Handler) MovieDetail(c *gin.Context) {
	movie, err := h.Catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, movie)
}
