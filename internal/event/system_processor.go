package event

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/cmns/internal/chain"
	"github.com/blues/cmns/internal/logger"
	"github.com/blues/cmns/internal/logic"
	"github.com/blues/cmns/internal/model"
)

// emergencyWithdrawDelay 紧急提现请求到可执行之间的锁定期
const emergencyWithdrawDelay = 2 * 24 * time.Hour

// SystemProcessor 系统级事件处理器
type SystemProcessor struct {
	notifications *logic.NotificationLogic
}

// NewSystemProcessor 创建系统事件处理器
func NewSystemProcessor(notifications *logic.NotificationLogic) *SystemProcessor {
	return &SystemProcessor{notifications: notifications}
}

// HandleContractPaused 处理合约暂停状态变更事件
func (p *SystemProcessor) HandleContractPaused(ctx context.Context, ev *chain.Event) error {
	paused := ev.Bool("status")

	logger.Info("ContractPaused: %v", paused)

	title := "系统已恢复"
	message := "系统已恢复运行, 所有功能正常"
	if paused {
		title = "系统已暂停"
		message = "系统已暂停, 链上操作暂时不可用"
	}

	return p.notifications.NotifyAdmins(model.NotifyContractStatus, title, message,
		map[string]interface{}{
			"paused":  paused,
			"tx_hash": ev.TxHash,
		})
}

// HandleEmergencyWithdrawRequested 处理紧急提现请求事件
// timestamp为0表示请求被取消, 只通知管理员; 否则同时警告全部会员
func (p *SystemProcessor) HandleEmergencyWithdrawRequested(ctx context.Context, ev *chain.Event) error {
	timestamp := ev.Int64("timestamp")

	if timestamp == 0 {
		logger.Info("EmergencyWithdrawRequested: request canceled")
		return p.notifications.NotifyAdmins(model.NotifyEmergencyWithdrawCanceled,
			"紧急提现已取消",
			"紧急提现请求已取消",
			map[string]interface{}{
				"tx_hash": ev.TxHash,
			})
	}

	completionTime := time.Unix(timestamp, 0).Add(emergencyWithdrawDelay)
	logger.Info("EmergencyWithdrawRequested: requested at %d, executable after %s",
		timestamp, completionTime.Format(time.RFC3339))

	data := map[string]interface{}{
		"timestamp":       timestamp,
		"completion_time": completionTime.Unix(),
		"tx_hash":         ev.TxHash,
	}

	if err := p.notifications.NotifyAdmins(model.NotifyEmergencyWithdrawRequest,
		"紧急提现请求",
		fmt.Sprintf("收到紧急提现请求, %s 后可执行", completionTime.Format("2006-01-02 15:04:05")),
		data); err != nil {
		return err
	}

	return p.notifications.NotifyMembers(model.NotifyEmergencyWithdrawWarning,
		"紧急提现警告",
		fmt.Sprintf("系统收到紧急提现请求, 将于 %s 后可执行, 请关注您的资产",
			completionTime.Format("2006-01-02 15:04:05")),
		data)
}

// HandleEmergencyWithdraw 处理紧急提现完成事件
func (p *SystemProcessor) HandleEmergencyWithdraw(ctx context.Context, ev *chain.Event) error {
	to := ev.Address("to")
	amount := chain.FromWei(ev.BigInt("amount"))

	logger.Info("EmergencyWithdraw: %s USDT withdrawn to %s", amount, chain.ShortAddress(to))

	data := map[string]interface{}{
		"to":      to.Hex(),
		"amount":  amount,
		"tx_hash": ev.TxHash,
	}

	if err := p.notifications.NotifyAdmins(model.NotifyEmergencyWithdrawDone,
		"紧急提现已完成",
		fmt.Sprintf("紧急提现已完成, 金额 %s USDT", amount),
		data); err != nil {
		return err
	}

	return p.notifications.NotifyMembers(model.NotifyEmergencyWithdrawDone,
		"紧急提现已完成",
		fmt.Sprintf("系统已执行紧急提现, 金额 %s USDT", amount),
		data)
}
