package model

import (
	"time"
)

// TransactionType 交易类型
type TransactionType string

const (
	TransactionTypeRegister TransactionType = "register"
	TransactionTypeUpgrade  TransactionType = "upgrade"
	TransactionTypeExit     TransactionType = "exit"
	TransactionTypeReferral TransactionType = "referral"
)

// TransactionStatus 交易状态
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// Transaction 链上交易的本地记录
// (tx_hash, transaction_type) 唯一约束保证重复投递不会产生重复行
type Transaction struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserId          *uint             `json:"user_id" gorm:"index"` // 本地账户可能不存在
	WalletAddress   string            `json:"wallet_address" gorm:"index;not null"`
	TransactionType TransactionType   `json:"transaction_type" gorm:"uniqueIndex:idx_tx_hash_type;not null"`
	PlanId          int64             `json:"plan_id"`
	Amount          string            `json:"amount" gorm:"type:decimal(36,18);default:0"`
	TxHash          string            `json:"tx_hash" gorm:"uniqueIndex:idx_tx_hash_type;not null"`
	BlockNum        int64             `json:"block_num"`
	Status          TransactionStatus `json:"status" gorm:"default:'pending'"`
}

// TableName 自定义表名
func (Transaction) TableName() string {
	return "transactions"
}
