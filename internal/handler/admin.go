package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/middleware"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
)

// AdminSyncFull 触发全量同步
func (h *Handler) AdminSyncFull(c *gin.Context) {
	h.triggerSync(c, model.SyncFull)
}

// AdminSyncIncremental 触发增量同步
func (h *Handler) AdminSyncIncremental(c *gin.Context) {
	h.triggerSync(c, model.SyncIncremental)
}

func (h *Handler) triggerSync(c *gin.Context, kind model.SyncKind) {
	var started bool
	if kind == model.SyncFull {
		started = h.Sync.TriggerFull()
	} else {
		started = h.Sync.TriggerIncremental()
	}
	if !started {
		utils.Conflict(c, "Đang đồng bộ, vui lòng thử lại sau")
		return
	}
	h.log.Infof("[Admin] 用户 %d 触发 %s 同步", middleware.GetUserID(c), kind)
	utils.Accepted(c, "Đã bắt đầu đồng bộ", gin.H{"kind": kind})
}

// AdminSyncStatus 同步状态与最近一次报告
func (h *Handler) AdminSyncStatus(c *gin.Context) {
	utils.Success(c, gin.H{
		"state":       h.Sync.State().String(),
		"running":     h.Sync.IsRunning(),
		"full":        h.Sync.LastReport(model.SyncFull),
		"incremental": h.Sync.LastReport(model.SyncIncremental),
	})
}
