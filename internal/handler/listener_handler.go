package handler

import (
	"net/http"

	"github.com/blues/cmns/internal/listener"
	"github.com/gin-gonic/gin"
)

type ListenerHandler struct {
	service *listener.Service
}

func NewListenerHandler(service *listener.Service) *ListenerHandler {
	return &ListenerHandler{service: service}
}

// GetStatus 获取监听服务运行状态
func (h *ListenerHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}

// GetTodayStats 统计今日的会员动态
// 节点不可用时返回零值统计
func (h *ListenerHandler) GetTodayStats(c *gin.Context) {
	stats, err := h.service.GetTodayStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, &listener.TodayStats{})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CheckConnection 主动检测节点连接
func (h *ListenerHandler) CheckConnection(c *gin.Context) {
	if err := h.service.CheckConnection(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"healthy": false,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"healthy": true})
}
