package model

import (
	"time"
)

// Referral 推荐佣金记录, 每个 ReferralPaid 事件一条
type Referral struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ReferrerId     *uint  `json:"referrer_id" gorm:"index"`
	RefereeId      *uint  `json:"referee_id"`
	ReferrerWallet string `json:"referrer_wallet" gorm:"index;not null"`
	RefereeWallet  string `json:"referee_wallet" gorm:"not null"`
	PlanId         int64  `json:"plan_id"`
	Commission     string `json:"commission" gorm:"type:decimal(36,18);default:0"`
	TxHash         string `json:"tx_hash" gorm:"uniqueIndex;not null"`
	BlockNum       int64  `json:"block_num"`
}

// TableName 自定义表名
func (Referral) TableName() string {
	return "referrals"
}
