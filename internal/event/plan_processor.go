package event

import (
	"context"
	"fmt"

	"github.com/blues/cmns/internal/chain"
	"github.com/blues/cmns/internal/logger"
	"github.com/blues/cmns/internal/logic"
	"github.com/blues/cmns/internal/model"
)

// PlanProcessor 计划管理事件处理器
type PlanProcessor struct {
	plans         *logic.PlanLogic
	notifications *logic.NotificationLogic
}

// NewPlanProcessor 创建计划事件处理器
func NewPlanProcessor(plans *logic.PlanLogic, notifications *logic.NotificationLogic) *PlanProcessor {
	return &PlanProcessor{
		plans:         plans,
		notifications: notifications,
	}
}

// HandlePlanCreated 处理计划创建事件
func (p *PlanProcessor) HandlePlanCreated(ctx context.Context, ev *chain.Event) error {
	planId := ev.Int64("planId")
	name := ev.String("name")
	price := chain.FromWei(ev.BigInt("price"))
	membersPerCycle := ev.Int64("membersPerCycle")

	logger.Info("PlanCreated: plan %d (%s), price %s, members per cycle %d",
		planId, name, price, membersPerCycle)

	if err := p.plans.SyncPlan(&model.Plan{
		Id:                    planId,
		Name:                  name,
		Price:                 price,
		MembersPerCycle:       membersPerCycle,
		CurrentCycle:          1,
		MembersInCurrentCycle: 0,
		IsActive:              true,
	}); err != nil {
		return err
	}

	return p.notifications.NotifyAdmins(model.NotifyPlanCreated,
		"新计划已创建",
		fmt.Sprintf("计划 %d (%s) 已创建, 价格 %s USDT, 每周期 %d 名会员",
			planId, name, price, membersPerCycle),
		map[string]interface{}{
			"plan_id":           planId,
			"name":              name,
			"price":             price,
			"members_per_cycle": membersPerCycle,
			"tx_hash":           ev.TxHash,
		})
}

// HandleNewCycleStarted 处理新周期开始事件
func (p *PlanProcessor) HandleNewCycleStarted(ctx context.Context, ev *chain.Event) error {
	planId := ev.Int64("planId")
	cycleNumber := ev.Int64("cycleNumber")

	logger.Info("NewCycleStarted: plan %d, cycle %d", planId, cycleNumber)

	if err := p.plans.UpdatePlanCycle(planId, cycleNumber); err != nil {
		return err
	}

	return p.notifications.NotifyAdmins(model.NotifyNewCycle,
		"新周期开始",
		fmt.Sprintf("计划 %d 已进入第 %d 周期", planId, cycleNumber),
		map[string]interface{}{
			"plan_id":      planId,
			"cycle_number": cycleNumber,
			"tx_hash":      ev.TxHash,
		})
}

// HandlePlanDefaultImageSet 处理计划默认图片更新事件
func (p *PlanProcessor) HandlePlanDefaultImageSet(ctx context.Context, ev *chain.Event) error {
	planId := ev.Int64("planId")
	imageURI := ev.String("imageURI")

	logger.Info("PlanDefaultImageSet: plan %d", planId)

	if err := p.plans.UpdatePlanImageURI(planId, imageURI); err != nil {
		return err
	}

	return p.notifications.NotifyAdmins(model.NotifyPlanImageUpdated,
		"计划图片已更新",
		fmt.Sprintf("计划 %d 的默认图片已更新", planId),
		map[string]interface{}{
			"plan_id":   planId,
			"image_uri": imageURI,
			"tx_hash":   ev.TxHash,
		})
}
