package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/panchen451161722/daoaiagent/internal/monitor"
)

// StatusProvider 监控状态来源
type StatusProvider interface {
	Status() monitor.Status
}

type MonitorHandler struct {
	provider StatusProvider
}

// NewMonitorHandler provider 为 nil 表示未启用链上同步
func NewMonitorHandler(provider StatusProvider) *MonitorHandler {
	return &MonitorHandler{provider: provider}
}

// GetStatus 获取监控状态
func (h *MonitorHandler) GetStatus(c *gin.Context) {
	if h.provider == nil {
		ErrorResponse(c, http.StatusServiceUnavailable, "chain sync is disabled")
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", h.provider.Status())
}
