package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blues/cmns/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RegisterMember 注册新会员
func (g *Gateway) RegisterMember(ctx context.Context, from common.Address, planId int64, upline common.Address) (*types.Transaction, error) {
	return g.transact(ctx, from, "registerMember", big.NewInt(planId), upline)
}

// UpgradePlan 升级会员计划
func (g *Gateway) UpgradePlan(ctx context.Context, from common.Address, newPlanId int64) (*types.Transaction, error) {
	return g.transact(ctx, from, "upgradePlan", big.NewInt(newPlanId))
}

// ExitMembership 退出会员
func (g *Gateway) ExitMembership(ctx context.Context, from common.Address) (*types.Transaction, error) {
	return g.transact(ctx, from, "exitMembership")
}

// WithdrawBalance 按余额类型提现
func (g *Gateway) WithdrawBalance(ctx context.Context, from common.Address, amount string, balanceType uint8) (*types.Transaction, error) {
	wei, err := chain.ToWei(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid withdrawal amount: %w", err)
	}

	switch balanceType {
	case BalanceTypeOwner:
		return g.transact(ctx, from, "withdrawOwnerBalance", wei)
	case BalanceTypeFee:
		return g.transact(ctx, from, "withdrawFeeSystemBalance", wei)
	case BalanceTypeFund:
		return g.transact(ctx, from, "withdrawFundBalance", wei)
	default:
		return nil, fmt.Errorf("unknown balance type: %d", balanceType)
	}
}

// BatchWithdraw 批量提现
func (g *Gateway) BatchWithdraw(ctx context.Context, from common.Address, requests []WithdrawalRequest) (*types.Transaction, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("no withdrawal requests")
	}

	// 合约侧的请求结构, 金额以wei表示
	type contractRequest struct {
		Recipient   common.Address
		Amount      *big.Int
		BalanceType uint8
	}

	converted := make([]contractRequest, 0, len(requests))
	for i, req := range requests {
		wei, err := chain.ToWei(req.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in request %d: %w", i, err)
		}
		converted = append(converted, contractRequest{
			Recipient:   req.Recipient,
			Amount:      wei,
			BalanceType: req.BalanceType,
		})
	}

	return g.transact(ctx, from, "batchWithdraw", converted)
}

// RequestEmergencyWithdraw 发起紧急提现请求
func (g *Gateway) RequestEmergencyWithdraw(ctx context.Context, from common.Address) (*types.Transaction, error) {
	return g.transact(ctx, from, "requestEmergencyWithdraw")
}

// EmergencyWithdraw 执行紧急提现 (锁定期结束后)
func (g *Gateway) EmergencyWithdraw(ctx context.Context, from common.Address) (*types.Transaction, error) {
	return g.transact(ctx, from, "emergencyWithdraw")
}

// CancelEmergencyWithdraw 取消紧急提现请求
func (g *Gateway) CancelEmergencyWithdraw(ctx context.Context, from common.Address) (*types.Transaction, error) {
	return g.transact(ctx, from, "cancelEmergencyWithdraw")
}

// SetPaused 设置合约暂停状态
func (g *Gateway) SetPaused(ctx context.Context, from common.Address, paused bool) (*types.Transaction, error) {
	return g.transact(ctx, from, "setPaused", paused)
}

// SetPlanStatus 启用或停用计划
func (g *Gateway) SetPlanStatus(ctx context.Context, from common.Address, planId int64, isActive bool) (*types.Transaction, error) {
	return g.transact(ctx, from, "setPlanStatus", big.NewInt(planId), isActive)
}

// SetPlanDefaultImage 设置计划默认图片
func (g *Gateway) SetPlanDefaultImage(ctx context.Context, from common.Address, planId int64, imageURI string) (*types.Transaction, error) {
	return g.transact(ctx, from, "setPlanDefaultImage", big.NewInt(planId), imageURI)
}

// SetBaseURI 设置NFT元数据基础URI
func (g *Gateway) SetBaseURI(ctx context.Context, from common.Address, baseURI string) (*types.Transaction, error) {
	return g.transact(ctx, from, "setBaseURI", baseURI)
}

// UpdateMembersPerCycle 更新计划的每周期会员数
func (g *Gateway) UpdateMembersPerCycle(ctx context.Context, from common.Address, planId int64, membersPerCycle int64) (*types.Transaction, error) {
	return g.transact(ctx, from, "updateMembersPerCycle", big.NewInt(planId), big.NewInt(membersPerCycle))
}

// SetPriceFeed 设置价格预言机地址
func (g *Gateway) SetPriceFeed(ctx context.Context, from common.Address, priceFeed common.Address) (*types.Transaction, error) {
	return g.transact(ctx, from, "setPriceFeed", priceFeed)
}
