package gateway

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MemberInfo 链上会员信息
type MemberInfo struct {
	Upline         common.Address `json:"upline"`
	TotalReferrals int64          `json:"total_referrals"`
	TotalEarnings  string         `json:"total_earnings"`
	PlanId         int64          `json:"plan_id"`
	CycleNumber    int64          `json:"cycle_number"`
	RegisteredAt   time.Time      `json:"registered_at"`
}

// PlanInfo 链上计划信息
type PlanInfo struct {
	Id                    int64  `json:"id"`
	Name                  string `json:"name"`
	Price                 string `json:"price"`
	MembersPerCycle       int64  `json:"members_per_cycle"`
	IsActive              bool   `json:"is_active"`
	CurrentCycle          int64  `json:"current_cycle"`
	MembersInCurrentCycle int64  `json:"members_in_current_cycle"`
	ImageURI              string `json:"image_uri"`
}

// CycleStatus 计划周期的即时状态
type CycleStatus struct {
	PlanId                int64 `json:"plan_id"`
	CurrentCycle          int64 `json:"current_cycle"`
	MembersInCurrentCycle int64 `json:"members_in_current_cycle"`
	MembersPerCycle       int64 `json:"members_per_cycle"`
	IsComplete            bool  `json:"is_complete"`
}

// SystemStats 系统统计数据
type SystemStats struct {
	TotalMembers    int64  `json:"total_members"`
	TotalRevenue    string `json:"total_revenue"`
	TotalCommission string `json:"total_commission"`
	OwnerFunds      string `json:"owner_funds"`
	FeeFunds        string `json:"fee_funds"`
	FundFunds       string `json:"fund_funds"`
}

// ContractStatus 合约运行状态
type ContractStatus struct {
	IsPaused               bool   `json:"is_paused"`
	TotalBalance           string `json:"total_balance"`
	MemberCount            int64  `json:"member_count"`
	CurrentPlanCount       int64  `json:"current_plan_count"`
	HasEmergencyRequest    bool   `json:"has_emergency_request"`
	EmergencyTimeRemaining int64  `json:"emergency_time_remaining"`
}

// BalanceValidation 合约余额校验结果
type BalanceValidation struct {
	IsValid         bool   `json:"is_valid"`
	ExpectedBalance string `json:"expected_balance"`
	ActualBalance   string `json:"actual_balance"`
}

// 提现余额类型
const (
	BalanceTypeOwner uint8 = 0
	BalanceTypeFee   uint8 = 1
	BalanceTypeFund  uint8 = 2
)

// WithdrawalRequest 一条批量提现请求
type WithdrawalRequest struct {
	Recipient   common.Address `json:"recipient"`
	Amount      string         `json:"amount"`
	BalanceType uint8          `json:"balance_type"`
}
