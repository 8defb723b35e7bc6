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

// ReferralProcessor 推荐佣金事件处理器
type ReferralProcessor struct {
	users         *logic.UserLogic
	transactions  *logic.TransactionLogic
	referrals     *logic.ReferralLogic
	notifications *logic.NotificationLogic
	reader        ContractReader
}

// NewReferralProcessor 创建推荐佣金事件处理器
func NewReferralProcessor(users *logic.UserLogic, transactions *logic.TransactionLogic, referrals *logic.ReferralLogic, notifications *logic.NotificationLogic, reader ContractReader) *ReferralProcessor {
	return &ReferralProcessor{
		users:         users,
		transactions:  transactions,
		referrals:     referrals,
		notifications: notifications,
		reader:        reader,
	}
}

// HandleReferralPaid 处理推荐佣金发放事件
// from为被推荐人, to为获得佣金的推荐人
func (p *ReferralProcessor) HandleReferralPaid(ctx context.Context, ev *chain.Event) error {
	from := ev.Address("from")
	to := ev.Address("to")
	amount := ev.BigInt("amount")
	commission := chain.FromWei(amount)
	referrerWallet := strings.ToLower(to.Hex())
	refereeWallet := strings.ToLower(from.Hex())

	logger.Info("ReferralPaid: %s -> %s, amount %s, tx %s",
		chain.ShortAddress(from), chain.ShortAddress(to), commission, ev.TxHash)

	// 佣金对应的计划取被推荐人的当前计划
	planId := int64(0)
	if info, err := p.reader.GetMemberInfo(ctx, from); err != nil {
		logger.Warn("Failed to read member info for %s: %v", chain.ShortAddress(from), err)
	} else {
		planId = info.PlanId
	}

	referrer, err := p.users.GetUserByWallet(referrerWallet)
	if err != nil {
		return err
	}
	referee, err := p.users.GetUserByWallet(refereeWallet)
	if err != nil {
		return err
	}

	referral := &model.Referral{
		ReferrerWallet: referrerWallet,
		RefereeWallet:  refereeWallet,
		PlanId:         planId,
		Commission:     commission,
		TxHash:         ev.TxHash,
		BlockNum:       int64(ev.BlockNumber),
	}
	if referrer != nil {
		referral.ReferrerId = &referrer.ID
	}
	if referee != nil {
		referral.RefereeId = &referee.ID
	}
	inserted, err := p.referrals.RecordReferral(referral)
	if err != nil {
		return err
	}
	if !inserted {
		logger.Debug("Duplicate ReferralPaid event ignored: %s", ev.TxHash)
		return nil
	}

	// 佣金同时计入推荐人的交易记录
	tx := &model.Transaction{
		WalletAddress:   referrerWallet,
		TransactionType: model.TransactionTypeReferral,
		TxHash:          ev.TxHash,
		PlanId:          planId,
		Amount:          commission,
		BlockNum:        int64(ev.BlockNumber),
		Status:          model.TransactionStatusCompleted,
	}
	if referrer != nil {
		tx.UserId = &referrer.ID
	}
	if _, err := p.transactions.RecordTransaction(tx); err != nil {
		logger.Error("Failed to record referral transaction: %v", err)
	}

	if err := p.users.IncrementReferrals(referrerWallet); err != nil {
		logger.Error("Failed to increment referral count for %s: %v", referrerWallet, err)
	}

	if referrer != nil {
		if err := p.notifications.CreateNotification(referrer.ID, model.NotifyReferralCommission,
			"获得推荐佣金",
			fmt.Sprintf("您推荐的会员 %s 为您带来了 %s USDT 佣金", chain.ShortAddress(from), commission),
			map[string]interface{}{
				"referee":    refereeWallet,
				"commission": commission,
				"plan_id":    planId,
				"tx_hash":    ev.TxHash,
			}); err != nil {
			logger.Error("Failed to notify referrer: %v", err)
		}
	}
	return nil
}
