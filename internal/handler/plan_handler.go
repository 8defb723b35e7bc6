package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cmns/internal/logger"
	"github.com/blues/cmns/internal/logic"
	"github.com/blues/cmns/internal/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PlanHandler struct {
	planLogic *logic.PlanLogic
}

func NewPlanHandler(db *gorm.DB) *PlanHandler {
	return &PlanHandler{
		planLogic: logic.NewPlanLogic(db),
	}
}

// GetPlans 获取计划列表
// 查询失败时返回空列表, 前端展示不因快照缺失而中断
func (h *PlanHandler) GetPlans(c *gin.Context) {
	plans, err := h.planLogic.GetPlans()
	if err != nil {
		logger.Error("Failed to load plans: %v", err)
		c.JSON(http.StatusOK, gin.H{"plans": []model.Plan{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// GetPlan 获取单个计划详情
func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的计划ID"})
		return
	}

	plan, err := h.planLogic.GetPlanById(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if plan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "计划不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}
