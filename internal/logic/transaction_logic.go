package logic

import (
	"fmt"
	"strings"

	"github.com/blues/cmns/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionLogic 交易记录业务逻辑
type TransactionLogic struct {
	db *gorm.DB
}

// NewTransactionLogic 创建交易记录业务逻辑
func NewTransactionLogic(db *gorm.DB) *TransactionLogic {
	return &TransactionLogic{db: db}
}

// RecordTransaction 记录一笔链上交易
// 以 (tx_hash, transaction_type) 为唯一键, 重复投递静默忽略
// 返回值表示本次是否实际插入了新行
func (l *TransactionLogic) RecordTransaction(tx *model.Transaction) (bool, error) {
	if tx.TxHash == "" {
		return false, fmt.Errorf("transaction hash is empty")
	}
	if tx.TransactionType == "" {
		return false, fmt.Errorf("transaction type is empty")
	}
	tx.WalletAddress = strings.ToLower(tx.WalletAddress)
	if tx.Status == "" {
		tx.Status = model.TransactionStatusCompleted
	}

	result := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "transaction_type"}},
		DoNothing: true,
	}).Create(tx)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record transaction: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// normalizePage 矫正分页参数, 防止非法输入产生负偏移或零限制
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// GetUserTransactions 分页查询用户的交易记录
func (l *TransactionLogic) GetUserTransactions(userId uint, page, pageSize int) ([]model.Transaction, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	var transactions []model.Transaction
	var total int64

	query := l.db.Model(&model.Transaction{}).Where("user_id = ?", userId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	err := query.Order("block_num DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	return transactions, total, nil
}

// GetWalletTransactions 分页查询钱包地址的交易记录
func (l *TransactionLogic) GetWalletTransactions(wallet string, page, pageSize int) ([]model.Transaction, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	var transactions []model.Transaction
	var total int64

	query := l.db.Model(&model.Transaction{}).
		Where("LOWER(wallet_address) = ?", strings.ToLower(wallet))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	err := query.Order("block_num DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	return transactions, total, nil
}
