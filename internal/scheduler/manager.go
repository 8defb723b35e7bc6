package scheduler

import (
	"github.com/blues/cmns/internal/config"
	"github.com/blues/cmns/internal/gateway"
	"github.com/blues/cmns/internal/logger"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	gateway   *gateway.Gateway
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, gw *gateway.Gateway, cfg *config.Config) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler: s,
		db:        db,
		gateway:   gw,
		config:    cfg,
	}, nil
}

// Start 注册全部任务并启动调度器
func (m *Manager) Start() {
	m.registerPlanSyncJob()
	m.scheduler.Start()
	logger.Info("Task manager started")
}

// registerPlanSyncJob 注册计划快照同步任务
func (m *Manager) registerPlanSyncJob() {
	job := NewPlanSyncJob(m.db, m.gateway, m.config)
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
