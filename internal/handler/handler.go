package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/user/phimhub/internal/config"
	"github.com/user/phimhub/internal/logger"
	"github.com/user/phimhub/internal/repository"
	"github.com/user/phimhub/internal/service"
	"github.com/user/phimhub/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Repos   *repository.Repositories
	Config  *config.Config
	Catalog *service.CatalogService
	Sync    *service.SyncService
	log     *logrus.Entry
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config, catalog *service.CatalogService, sync *service.SyncService) *Handler {
	return &Handler{
		Repos:   repos,
		Config:  cfg,
		Catalog: catalog,
		Sync:    sync,
		log:     logger.New("Handler"),
	}
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	data := gin.H{"status": "ok"}
	if h.Sync != nil {
		data["sync_state"] = h.Sync.State().String()
	}
	utils.Success(c, data)
}

// pageParams 读取 page / limit 查询参数
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return service.NormalizePaging(page, limit)
}

// respondError 将服务层错误映射为 HTTP 状态码
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		utils.NotFound(c, "")
	case errors.Is(err, service.ErrSyncInProgress):
		utils.Conflict(c, "Đang đồng bộ, vui lòng thử lại sau")
	case errors.Is(err, service.ErrUpstreamUnavailable):
		utils.Error(c, http.StatusBadGateway, "Nguồn dữ liệu tạm thời không khả dụng")
	default:
		h.log.WithError(err).Errorf("[Handler] %s %s 失败", c.Request.Method, c.FullPath())
		utils.InternalServerError(c, "")
	}
}
