package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/blues/cmns/internal/chain"
	"github.com/blues/cmns/internal/logger"
	"github.com/blues/cmns/internal/logic"
	"github.com/blues/cmns/internal/model"
)

// MemberProcessor 会员生命周期事件处理器
type MemberProcessor struct {
	users         *logic.UserLogic
	transactions  *logic.TransactionLogic
	notifications *logic.NotificationLogic
	reader        ContractReader
}

// NewMemberProcessor 创建会员事件处理器
func NewMemberProcessor(users *logic.UserLogic, transactions *logic.TransactionLogic, notifications *logic.NotificationLogic, reader ContractReader) *MemberProcessor {
	return &MemberProcessor{
		users:         users,
		transactions:  transactions,
		notifications: notifications,
		reader:        reader,
	}
}

// HandleMemberRegistered 处理会员注册事件
func (p *MemberProcessor) HandleMemberRegistered(ctx context.Context, ev *chain.Event) error {
	member := ev.Address("member")
	upline := ev.Address("upline")
	planId := ev.Int64("planId")
	cycleNumber := ev.Int64("cycleNumber")
	wallet := strings.ToLower(member.Hex())

	logger.Info("MemberRegistered: %s, plan %d, cycle %d, tx %s",
		chain.ShortAddress(member), planId, cycleNumber, ev.TxHash)

	if err := p.users.UpsertMember(&model.Member{
		WalletAddress: wallet,
		PlanId:        planId,
		CycleNumber:   cycleNumber,
		UplineWallet:  strings.ToLower(upline.Hex()),
	}); err != nil {
		logger.Error("Failed to upsert member %s: %v", wallet, err)
	}

	user, err := p.users.GetUserByWallet(wallet)
	if err != nil {
		return err
	}

	tx := &model.Transaction{
		WalletAddress:   wallet,
		TransactionType: model.TransactionTypeRegister,
		TxHash:          ev.TxHash,
		PlanId:          planId,
		BlockNum:        int64(ev.BlockNumber),
		Status:          model.TransactionStatusCompleted,
	}
	if user != nil {
		tx.UserId = &user.ID
	}
	inserted, err := p.transactions.RecordTransaction(tx)
	if err != nil {
		return err
	}
	if !inserted {
		logger.Debug("Duplicate MemberRegistered event ignored: %s", ev.TxHash)
		return nil
	}

	if user != nil {
		if err := p.notifications.CreateNotification(user.ID, model.NotifyMemberRegistered,
			"注册成功",
			fmt.Sprintf("您已成功注册计划 %d, 当前周期 %d", planId, cycleNumber),
			map[string]interface{}{
				"plan_id":      planId,
				"cycle_number": cycleNumber,
				"tx_hash":      ev.TxHash,
			}); err != nil {
			logger.Error("Failed to notify registered member: %v", err)
		}
	}

	p.checkCycle(ctx, planId)
	return nil
}

// HandlePlanUpgraded 处理计划升级事件
func (p *MemberProcessor) HandlePlanUpgraded(ctx context.Context, ev *chain.Event) error {
	member := ev.Address("member")
	oldPlanId := ev.Int64("oldPlanId")
	newPlanId := ev.Int64("newPlanId")
	cycleNumber := ev.Int64("cycleNumber")
	wallet := strings.ToLower(member.Hex())

	logger.Info("PlanUpgraded: %s, plan %d -> %d, cycle %d, tx %s",
		chain.ShortAddress(member), oldPlanId, newPlanId, cycleNumber, ev.TxHash)

	if err := p.users.UpsertMember(&model.Member{
		WalletAddress: wallet,
		PlanId:        newPlanId,
		CycleNumber:   cycleNumber,
	}); err != nil {
		logger.Error("Failed to upsert member %s: %v", wallet, err)
	}

	user, err := p.users.GetUserByWallet(wallet)
	if err != nil {
		return err
	}

	tx := &model.Transaction{
		WalletAddress:   wallet,
		TransactionType: model.TransactionTypeUpgrade,
		TxHash:          ev.TxHash,
		PlanId:          newPlanId,
		BlockNum:        int64(ev.BlockNumber),
		Status:          model.TransactionStatusCompleted,
	}
	if user != nil {
		tx.UserId = &user.ID
	}
	inserted, err := p.transactions.RecordTransaction(tx)
	if err != nil {
		return err
	}
	if !inserted {
		logger.Debug("Duplicate PlanUpgraded event ignored: %s", ev.TxHash)
		return nil
	}

	if user != nil {
		if err := p.notifications.CreateNotification(user.ID, model.NotifyPlanUpgraded,
			"升级成功",
			fmt.Sprintf("您已从计划 %d 升级到计划 %d", oldPlanId, newPlanId),
			map[string]interface{}{
				"old_plan_id":  oldPlanId,
				"new_plan_id":  newPlanId,
				"cycle_number": cycleNumber,
				"tx_hash":      ev.TxHash,
			}); err != nil {
			logger.Error("Failed to notify upgraded member: %v", err)
		}
	}

	p.checkCycle(ctx, newPlanId)
	return nil
}

// HandleMemberExited 处理会员退出事件
func (p *MemberProcessor) HandleMemberExited(ctx context.Context, ev *chain.Event) error {
	member := ev.Address("member")
	refund := ev.BigInt("refundAmount")
	wallet := strings.ToLower(member.Hex())
	refundAmount := chain.FromWei(refund)

	logger.Info("MemberExited: %s, refund %s, tx %s",
		chain.ShortAddress(member), refundAmount, ev.TxHash)

	user, err := p.users.GetUserByWallet(wallet)
	if err != nil {
		return err
	}

	tx := &model.Transaction{
		WalletAddress:   wallet,
		TransactionType: model.TransactionTypeExit,
		TxHash:          ev.TxHash,
		Amount:          refundAmount,
		BlockNum:        int64(ev.BlockNumber),
		Status:          model.TransactionStatusCompleted,
	}
	if user != nil {
		tx.UserId = &user.ID
	}
	inserted, err := p.transactions.RecordTransaction(tx)
	if err != nil {
		return err
	}
	if !inserted {
		logger.Debug("Duplicate MemberExited event ignored: %s", ev.TxHash)
		return nil
	}

	if err := p.users.DeleteMember(wallet); err != nil {
		logger.Error("Failed to delete exited member %s: %v", wallet, err)
	}

	if user != nil {
		if err := p.notifications.CreateNotification(user.ID, model.NotifyMemberExited,
			"退出会员",
			fmt.Sprintf("您已退出会员, 退款金额 %s USDT", refundAmount),
			map[string]interface{}{
				"refund_amount": refundAmount,
				"tx_hash":       ev.TxHash,
			}); err != nil {
			logger.Error("Failed to notify exited member: %v", err)
		}
	}
	return nil
}

// HandleUplineNotified 处理推荐人升级提醒事件
// 下级会员想升级到高于推荐人的计划时触发, 提醒推荐人先升级
func (p *MemberProcessor) HandleUplineNotified(ctx context.Context, ev *chain.Event) error {
	upline := ev.Address("upline")
	downline := ev.Address("downline")
	currentPlan := ev.Int64("downlineCurrentPlan")
	targetPlan := ev.Int64("downlineTargetPlan")

	logger.Info("UplineNotified: upline %s, downline %s, plan %d -> %d",
		chain.ShortAddress(upline), chain.ShortAddress(downline), currentPlan, targetPlan)

	user, err := p.users.GetUserByWallet(strings.ToLower(upline.Hex()))
	if err != nil {
		return err
	}
	if user == nil {
		logger.Debug("Upline %s has no account, notification skipped", chain.ShortAddress(upline))
		return nil
	}

	return p.notifications.CreateNotification(user.ID, model.NotifyUplineNotification,
		"您推荐的会员需要升级",
		fmt.Sprintf("您推荐的会员 %s 想从计划 %d 升级到计划 %d, 请先升级您的计划",
			chain.ShortAddress(downline), currentPlan, targetPlan),
		map[string]interface{}{
			"upline":                strings.ToLower(upline.Hex()),
			"downline":              strings.ToLower(downline.Hex()),
			"downline_current_plan": currentPlan,
			"downline_target_plan":  targetPlan,
		})
}

// checkCycle 做一次链上即时读取, 周期满员时发出整批通知
func (p *MemberProcessor) checkCycle(ctx context.Context, planId int64) {
	status, err := p.reader.CheckCycleStatus(ctx, planId)
	if err != nil {
		logger.Warn("Failed to check cycle status for plan %d: %v", planId, err)
		return
	}
	if !status.IsComplete {
		return
	}
	if err := p.notifications.NotifyCycleCompleted(planId, status.CurrentCycle); err != nil {
		logger.Error("Failed to send cycle completion notifications: %v", err)
	}
}
