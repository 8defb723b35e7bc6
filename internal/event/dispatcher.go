package event

import (
	"context"

	"github.com/blues/cmns/internal/gateway"
	"github.com/blues/cmns/internal/listener"
	"github.com/blues/cmns/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// ContractReader 事件处理所需的链上即时读取能力
type ContractReader interface {
	CheckCycleStatus(ctx context.Context, planId int64) (*gateway.CycleStatus, error)
	GetMemberInfo(ctx context.Context, address common.Address) (*gateway.MemberInfo, error)
}

// Dispatcher 事件分发器
// 将各事件种类绑定到对应的处理器方法
type Dispatcher struct {
	members   *MemberProcessor
	referrals *ReferralProcessor
	plans     *PlanProcessor
	system    *SystemProcessor
}

// NewDispatcher 创建事件分发器及全部处理器
func NewDispatcher(db *gorm.DB, reader ContractReader) *Dispatcher {
	users := logic.NewUserLogic(db)
	transactions := logic.NewTransactionLogic(db)
	referrals := logic.NewReferralLogic(db)
	plans := logic.NewPlanLogic(db)
	notifications := logic.NewNotificationLogic(db, users)

	return &Dispatcher{
		members:   NewMemberProcessor(users, transactions, notifications, reader),
		referrals: NewReferralProcessor(users, transactions, referrals, notifications, reader),
		plans:     NewPlanProcessor(plans, notifications),
		system:    NewSystemProcessor(notifications),
	}
}

// Release 释放处理器持有的资源
func (d *Dispatcher) Release() {
	d.members.notifications.Release()
}

// Subscriptions 声明全部事件订阅
func (d *Dispatcher) Subscriptions() []listener.Subscription {
	return []listener.Subscription{
		{Event: "MemberRegistered", Handler: d.members.HandleMemberRegistered},
		{Event: "PlanUpgraded", Handler: d.members.HandlePlanUpgraded},
		{Event: "MemberExited", Handler: d.members.HandleMemberExited},
		{Event: "UplineNotified", Handler: d.members.HandleUplineNotified},
		{Event: "ReferralPaid", Handler: d.referrals.HandleReferralPaid},
		{Event: "PlanCreated", Handler: d.plans.HandlePlanCreated},
		{Event: "NewCycleStarted", Handler: d.plans.HandleNewCycleStarted},
		{Event: "PlanDefaultImageSet", Handler: d.plans.HandlePlanDefaultImageSet},
		{Event: "ContractPaused", Handler: d.system.HandleContractPaused},
		{Event: "EmergencyWithdrawRequested", Handler: d.system.HandleEmergencyWithdrawRequested},
		{Event: "EmergencyWithdraw", Handler: d.system.HandleEmergencyWithdraw},
	}
}
