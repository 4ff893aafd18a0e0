package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/middleware"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
)

// ---------- 收藏 ----------

// ListFavorites 我的收藏
func (h *Handler) ListFavorites(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := pageParams(c)

	items, err := h.Repos.Favorite.ListByUser(userID, c.Query("category"), limit, (page-1)*limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	total, err := h.Repos.Favorite.CountByUser(userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, utils.NewPageData(items, page, limit, int64(total)))
}

// AddFavorite 收藏影片（影片必须已在目录中）
func (h *Handler) AddFavorite(c *gin.Context) {
	userID := middleware.GetUserID(c)
	movie, err := h.Catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	fav := &model.Favorite{
		UserID:        userID,
		MovieSlug:     movie.Slug,
		MovieSnapshot: model.SnapshotOf(movie),
	}
	if err := h.Repos.Favorite.Add(fav); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, fav)
}

// RemoveFavorite 取消收藏
func (h *Handler) RemoveFavorite(c *gin.Context) {
	if err := h.Repos.Favorite.Remove(middleware.GetUserID(c), c.Param("slug")); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, nil)
}

// ---------- 待看 ----------

type watchlistReq struct {
	Note string `json:"note" binding:"max=500"`
}

// ListWatchlist 我的待看
func (h *Handler) ListWatchlist(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := pageParams(c)

	items, err := h.Repos.Watchlist.ListByUser(userID, limit, (page-1)*limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	total, err := h.Repos.Watchlist.CountByUser(userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, utils.NewPageData(items, page, limit, int64(total)))
}

// AddWatchlist 加入待看（重复加入会更新备注）
func (h *Handler) AddWatchlist(c *gin.Context) {
	var req watchlistReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequest(c, "Dữ liệu không hợp lệ")
			return
		}
	}

	movie, err := h.Catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	item := &model.WatchlistItem{
		UserID:        middleware.GetUserID(c),
		MovieSlug:     movie.Slug,
		MovieSnapshot: model.SnapshotOf(movie),
		Note:          strings.TrimSpace(req.Note),
	}
	if err := h.Repos.Watchlist.Upsert(item); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, item)
}

// RemoveWatchlist 移出待看
func (h *Handler) RemoveWatchlist(c *gin.Context) {
	if err := h.Repos.Watchlist.Remove(middleware.GetUserID(c), c.Param("slug")); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, nil)
}

// ---------- 观影历史 ----------

// historyDTO 观影记录（watched_at 为毫秒时间戳）
type historyDTO struct {
	MovieSlug string  `json:"movie_slug" binding:"required"`
	Episode   string  `json:"episode"`
	Name      string  `json:"name"`
	PosterURL string  `json:"poster_url"`
	Progress  int     `json:"progress" binding:"min=0,max=100"`
	LastTime  float64 `json:"last_time" binding:"min=0"`
	Duration  float64 `json:"duration" binding:"min=0"`
	WatchedAt int64   `json:"watched_at"`
}

func (d historyDTO) toModel(userID int) *model.WatchHistory {
	rec := &model.WatchHistory{
		UserID:    userID,
		MovieSlug: strings.TrimSpace(d.MovieSlug),
		Episode:   strings.TrimSpace(d.Episode),
		Name:      d.Name,
		PosterURL: d.PosterURL,
		Progress:  d.Progress,
		LastTime:  d.LastTime,
		Duration:  d.Duration,
	}
	if d.WatchedAt > 0 {
		rec.WatchedAt = time.UnixMilli(d.WatchedAt)
	}
	return rec
}

// ListHistory 观影历史
func (h *Handler) ListHistory(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := pageParams(c)

	items, err := h.Repos.History.ListByUser(userID, limit, (page-1)*limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	total, err := h.Repos.History.CountByUser(userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, utils.NewPageData(items, page, limit, int64(total)))
}

// SaveHistory 保存单条播放进度
func (h *Handler) SaveHistory(c *gin.Context) {
	var req historyDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Dữ liệu không hợp lệ")
		return
	}
	rec := req.toModel(middleware.GetUserID(c))
	h.fillHistorySnapshot(c, rec)
	if err := h.Repos.History.Upsert(rec); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, rec)
}

// fillHistorySnapshot 客户端没带名称和海报时从目录补全
func (h *Handler) fillHistorySnapshot(c *gin.Context, rec *model.WatchHistory) {
	if rec.Name != "" && rec.PosterURL != "" {
		return
	}
	movie, err := h.Catalog.GetBySlug(c.Request.Context(), rec.MovieSlug)
	if err != nil {
		return
	}
	if rec.Name == "" {
		rec.Name = movie.Name
	}
	if rec.PosterURL == "" {
		rec.PosterURL = movie.PosterURL
	}
}

type syncHistoryReq struct {
	Records    []historyDTO `json:"records" binding:"dive"`
	LastSyncAt int64        `json:"last_sync_at"`
}

// SyncHistory 多端同步：先保存客户端记录，再返回 last_sync_at 之后服务端的记录
func (h *Handler) SyncHistory(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req syncHistoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Dữ liệu không hợp lệ")
		return
	}

	for _, dto := range req.Records {
		if err := h.Repos.History.Upsert(dto.toModel(userID)); err != nil {
			h.log.WithError(err).Warnf("[SyncHistory] 保存记录失败: %s", dto.MovieSlug)
		}
	}

	serverRecords, err := h.Repos.History.GetAfter(userID, time.UnixMilli(req.LastSyncAt))
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"server_records": serverRecords,
		"synced_at":      time.Now().UnixMilli(),
	})
}

// RemoveHistory 删除历史记录
func (h *Handler) RemoveHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.BadRequest(c, "ID không hợp lệ")
		return
	}
	if err := h.Repos.History.Delete(middleware.GetUserID(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, nil)
}

// ---------- 评论 ----------

type commentReq struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// ListComments 影片评论（公开）
func (h *Handler) ListComments(c *gin.Context) {
	slug := c.Param("slug")
	page, limit := pageParams(c)

	items, err := h.Repos.Comment.ListByMovie(slug, limit, (page-1)*limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	total, err := h.Repos.Comment.CountByMovie(slug)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, utils.NewPageData(items, page, limit, total))
}

// CreateComment 发表评论
func (h *Handler) CreateComment(c *gin.Context) {
	var req commentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Nội dung bình luận không hợp lệ")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		utils.BadRequest(c, "Nội dung bình luận không được để trống")
		return
	}

	movie, err := h.Catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	comment := &model.Comment{
		UserID:    middleware.GetUserID(c),
		Username:  middleware.GetUsername(c),
		MovieSlug: movie.Slug,
		Content:   content,
	}
	if err := h.Repos.Comment.Create(comment); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, comment)
}

// DeleteComment 删除自己的评论
func (h *Handler) DeleteComment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.BadRequest(c, "ID không hợp lệ")
		return
	}
	userID := middleware.GetUserID(c)

	comment, err := h.Repos.Comment.FindByID(id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if comment == nil {
		utils.NotFound(c, "")
		return
	}
	if comment.UserID != userID {
		utils.Forbidden(c, "")
		return
	}
	if _, err := h.Repos.Comment.DeleteByOwner(userID, id); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, nil)
}
