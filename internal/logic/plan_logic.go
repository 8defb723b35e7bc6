package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blues/cmns/internal/gateway"
	"github.com/blues/cmns/internal/logger"
	"github.com/blues/cmns/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlanReader 计划同步所需的链上读取能力
type PlanReader interface {
	GetAllPlans(ctx context.Context) ([]*gateway.PlanInfo, error)
}

// PlanLogic 计划快照业务逻辑
type PlanLogic struct {
	db *gorm.DB
}

// NewPlanLogic 创建计划快照业务逻辑
func NewPlanLogic(db *gorm.DB) *PlanLogic {
	return &PlanLogic{db: db}
}

// SyncPlan 按计划ID更新本地快照, 不存在时创建
func (l *PlanLogic) SyncPlan(plan *model.Plan) error {
	if plan.Id <= 0 {
		return fmt.Errorf("invalid plan id: %d", plan.Id)
	}
	plan.LastSynced = time.Now()

	err := l.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "price", "members_per_cycle", "current_cycle",
			"members_in_current_cycle", "is_active", "image_uri",
			"last_synced",
		}),
	}).Create(plan).Error
	if err != nil {
		return fmt.Errorf("failed to sync plan %d: %w", plan.Id, err)
	}
	return nil
}

// UpdatePlanCycle 进入新周期, 重置当前周期会员数
func (l *PlanLogic) UpdatePlanCycle(planId int64, cycleNumber int64) error {
	err := l.db.Model(&model.Plan{}).
		Where("id = ?", planId).
		Updates(map[string]interface{}{
			"current_cycle":            cycleNumber,
			"members_in_current_cycle": 0,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update plan %d cycle: %w", planId, err)
	}
	return nil
}

// UpdatePlanImageURI 更新计划默认图片
func (l *PlanLogic) UpdatePlanImageURI(planId int64, imageURI string) error {
	err := l.db.Model(&model.Plan{}).
		Where("id = ?", planId).
		Update("image_uri", imageURI).Error
	if err != nil {
		return fmt.Errorf("failed to update plan %d image: %w", planId, err)
	}
	return nil
}

// GetPlans 查询全部计划快照
func (l *PlanLogic) GetPlans() ([]model.Plan, error) {
	var plans []model.Plan
	if err := l.db.Order("id ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	return plans, nil
}

// GetPlanById 按ID查询计划快照, 未找到时返回nil
func (l *PlanLogic) GetPlanById(planId int64) (*model.Plan, error) {
	var plan model.Plan
	err := l.db.Where("id = ?", planId).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query plan %d: %w", planId, err)
	}
	return &plan, nil
}

// SyncPlansFromChain 从链上全量同步计划快照
func (l *PlanLogic) SyncPlansFromChain(ctx context.Context, reader PlanReader) (int, error) {
	plans, err := reader.GetAllPlans(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch plans from chain: %w", err)
	}

	synced := 0
	for _, p := range plans {
		err := l.SyncPlan(&model.Plan{
			Id:                    p.Id,
			Name:                  p.Name,
			Price:                 p.Price,
			MembersPerCycle:       p.MembersPerCycle,
			CurrentCycle:          p.CurrentCycle,
			MembersInCurrentCycle: p.MembersInCurrentCycle,
			IsActive:              p.IsActive,
			ImageURI:              p.ImageURI,
		})
		if err != nil {
			logger.Error("Failed to sync plan %d: %v", p.Id, err)
			continue
		}
		synced++
	}
	logger.Info("Plan sync finished, %d/%d plans updated", synced, len(plans))
	return synced, nil
}
