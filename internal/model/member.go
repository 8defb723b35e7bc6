package model

import (
	"time"
)

// Member 本地会员记录 (链上会员在本地的缓存, 用于按计划/轮次定位通知对象)
type Member struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	WalletAddress  string `json:"wallet_address" gorm:"uniqueIndex;not null"`
	PlanId         int64  `json:"plan_id" gorm:"index"`
	CycleNumber    int64  `json:"cycle_number" gorm:"index"`
	UplineWallet   string `json:"upline_wallet"`
	TotalReferrals int64  `json:"total_referrals" gorm:"default:0"`
}

// TableName 自定义表名
func (Member) TableName() string {
	return "members"
}
