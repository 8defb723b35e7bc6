package scheduler

import (
	"context"
	"time"

	"github.com/blues/cmns/internal/config"
	"github.com/blues/cmns/internal/gateway"
	"github.com/blues/cmns/internal/logger"
	"github.com/blues/cmns/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// PlanSyncJob 计划快照同步任务
// 周期性地从链上拉取全部计划, 修正事件漏投造成的快照偏差
type PlanSyncJob struct {
	planLogic *logic.PlanLogic
	gateway   *gateway.Gateway
	config    *config.Config
}

// NewPlanSyncJob 创建计划快照同步任务
func NewPlanSyncJob(db *gorm.DB, gw *gateway.Gateway, cfg *config.Config) *PlanSyncJob {
	return &PlanSyncJob{
		planLogic: logic.NewPlanLogic(db),
		gateway:   gw,
		config:    cfg,
	}
}

// GetName 获取任务名称
func (j *PlanSyncJob) GetName() string {
	return "plan_snapshot_sync"
}

// GetSchedule 获取调度配置
func (j *PlanSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.PlanSyncInterval) * time.Second)
}

// Execute 执行任务
func (j *PlanSyncJob) Execute() {
	logger.Info("Starting plan snapshot sync")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	synced, err := j.planLogic.SyncPlansFromChain(ctx, j.gateway)
	if err != nil {
		logger.Error("Plan snapshot sync failed: %v", err)
		return
	}
	logger.Info("Plan snapshot sync completed, %d plans updated", synced)
}
