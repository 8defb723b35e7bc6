package gateway

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/blues/cmns/internal/chain"
	"github.com/blues/cmns/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

// IsMember 检查地址是否为会员 (以链上状态为准)
// 合约owner视为会员, 其余地址按NFT持有量判断
func (g *Gateway) IsMember(ctx context.Context, address common.Address) (bool, error) {
	out, err := g.call(ctx, "owner")
	if err != nil {
		return false, err
	}
	if outAddress(out, 0) == address {
		return true, nil
	}

	out, err = g.call(ctx, "balanceOf", address)
	if err != nil {
		return false, err
	}
	return outBig(out, 0).Sign() > 0, nil
}

// GetMemberInfo 获取链上会员信息
func (g *Gateway) GetMemberInfo(ctx context.Context, address common.Address) (*MemberInfo, error) {
	out, err := g.call(ctx, "members", address)
	if err != nil {
		return nil, err
	}
	return &MemberInfo{
		Upline:         outAddress(out, 0),
		TotalReferrals: outInt64(out, 1),
		TotalEarnings:  chain.FromWei(outBig(out, 2)),
		PlanId:         outInt64(out, 3),
		CycleNumber:    outInt64(out, 4),
		RegisteredAt:   time.Unix(outInt64(out, 5), 0),
	}, nil
}

// GetPlanCycleInfo 获取计划的周期进度
func (g *Gateway) GetPlanCycleInfo(ctx context.Context, planId int64) (currentCycle, membersInCurrentCycle int64, err error) {
	out, err := g.call(ctx, "getPlanCycleInfo", big.NewInt(planId))
	if err != nil {
		return 0, 0, err
	}
	return outInt64(out, 0), outInt64(out, 1), nil
}

// CheckCycleStatus 获取计划周期的即时状态, 判断当前周期是否已满
func (g *Gateway) CheckCycleStatus(ctx context.Context, planId int64) (*CycleStatus, error) {
	planOut, err := g.call(ctx, "plans", big.NewInt(planId))
	if err != nil {
		return nil, err
	}
	membersPerCycle := outInt64(planOut, 2)

	currentCycle, membersIn, err := g.GetPlanCycleInfo(ctx, planId)
	if err != nil {
		return nil, err
	}

	return &CycleStatus{
		PlanId:                planId,
		CurrentCycle:          currentCycle,
		MembersInCurrentCycle: membersIn,
		MembersPerCycle:       membersPerCycle,
		IsComplete:            membersPerCycle > 0 && membersIn >= membersPerCycle,
	}, nil
}

// GetAllPlans 探测式读取全部计划
// 合约不暴露计划总数, 从1开始逐个读取, 遇到不存在的计划即停止
func (g *Gateway) GetAllPlans(ctx context.Context) ([]*PlanInfo, error) {
	plans := make([]*PlanInfo, 0, g.maxPlanProbe)

	for i := int64(1); i <= int64(g.maxPlanProbe); i++ {
		planOut, err := g.call(ctx, "plans", big.NewInt(i))
		if err != nil {
			if isMissingPlanError(err) {
				break
			}
			logger.Warn("Error fetching plan %d: %v", i, err)
			continue
		}

		currentCycle, membersIn, err := g.GetPlanCycleInfo(ctx, i)
		if err != nil {
			logger.Warn("Error fetching cycle info for plan %d: %v", i, err)
			continue
		}

		// 计划图片读取失败不阻塞计划列表
		imageURI := ""
		if imgOut, imgErr := g.call(ctx, "planDefaultImages", big.NewInt(i)); imgErr != nil {
			logger.Warn("Error fetching plan image for plan %d: %v", i, imgErr)
		} else {
			imageURI = outString(imgOut, 0)
		}

		plans = append(plans, &PlanInfo{
			Id:                    i,
			Name:                  outString(planOut, 0),
			Price:                 chain.FromWei(outBig(planOut, 1)),
			MembersPerCycle:       outInt64(planOut, 2),
			IsActive:              outBool(planOut, 3),
			CurrentCycle:          currentCycle,
			MembersInCurrentCycle: membersIn,
			ImageURI:              imageURI,
		})
	}

	return plans, nil
}

// isMissingPlanError 判断读取错误是否表示计划不存在
// 错误已经过翻译, 需要先还原到原始节点错误再做判断
func isMissingPlanError(err error) bool {
	if IsRevertCode(err, "InvalidPlanID") {
		return true
	}
	var ce *ContractError
	if errors.As(err, &ce) && ce.Raw != nil {
		err = ce.Raw
	}
	s := err.Error()
	return strings.Contains(s, "invalid opcode") ||
		strings.Contains(s, "revert") ||
		strings.Contains(s, "out of gas")
}

// GetSystemStats 获取系统统计数据
func (g *Gateway) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	out, err := g.call(ctx, "getSystemStats")
	if err != nil {
		return nil, err
	}
	return &SystemStats{
		TotalMembers:    outInt64(out, 0),
		TotalRevenue:    chain.FromWei(outBig(out, 1)),
		TotalCommission: chain.FromWei(outBig(out, 2)),
		OwnerFunds:      chain.FromWei(outBig(out, 3)),
		FeeFunds:        chain.FromWei(outBig(out, 4)),
		FundFunds:       chain.FromWei(outBig(out, 5)),
	}, nil
}

// GetContractStatus 获取合约运行状态
func (g *Gateway) GetContractStatus(ctx context.Context) (*ContractStatus, error) {
	out, err := g.call(ctx, "getContractStatus")
	if err != nil {
		return nil, err
	}
	return &ContractStatus{
		IsPaused:               outBool(out, 0),
		TotalBalance:           chain.FromWei(outBig(out, 1)),
		MemberCount:            outInt64(out, 2),
		CurrentPlanCount:       outInt64(out, 3),
		HasEmergencyRequest:    outBool(out, 4),
		EmergencyTimeRemaining: outInt64(out, 5),
	}, nil
}

// ValidateContractBalance 校验合约余额与内部账本是否一致
func (g *Gateway) ValidateContractBalance(ctx context.Context) (*BalanceValidation, error) {
	out, err := g.call(ctx, "validateContractBalance")
	if err != nil {
		return nil, err
	}
	return &BalanceValidation{
		IsValid:         outBool(out, 0),
		ExpectedBalance: chain.FromWei(outBig(out, 1)),
		ActualBalance:   chain.FromWei(outBig(out, 2)),
	}, nil
}

// GetReferralChain 获取会员的推荐链
func (g *Gateway) GetReferralChain(ctx context.Context, address common.Address) ([]common.Address, error) {
	out, err := g.call(ctx, "getReferralChain", address)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		if addrs, ok := out[0].([]common.Address); ok {
			return addrs, nil
		}
	}
	return []common.Address{}, nil
}
