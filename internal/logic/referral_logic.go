package logic

import (
	"fmt"
	"strings"

	"github.com/blues/cmns/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralLogic 推荐佣金业务逻辑
type ReferralLogic struct {
	db *gorm.DB
}

// NewReferralLogic 创建推荐佣金业务逻辑
func NewReferralLogic(db *gorm.DB) *ReferralLogic {
	return &ReferralLogic{db: db}
}

// RecordReferral 记录一笔推荐佣金
// 以tx_hash为唯一键, 重复投递静默忽略
// 返回值表示本次是否实际插入了新行
func (l *ReferralLogic) RecordReferral(referral *model.Referral) (bool, error) {
	if referral.TxHash == "" {
		return false, fmt.Errorf("referral tx hash is empty")
	}
	referral.ReferrerWallet = strings.ToLower(referral.ReferrerWallet)
	referral.RefereeWallet = strings.ToLower(referral.RefereeWallet)

	result := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}},
		DoNothing: true,
	}).Create(referral)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record referral: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetReferralsByWallet 分页查询推荐人获得的佣金记录
func (l *ReferralLogic) GetReferralsByWallet(wallet string, page, pageSize int) ([]model.Referral, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	var referrals []model.Referral
	var total int64

	query := l.db.Model(&model.Referral{}).
		Where("LOWER(referrer_wallet) = ?", strings.ToLower(wallet))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count referrals: %w", err)
	}

	err := query.Order("block_num DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&referrals).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query referrals: %w", err)
	}
	return referrals, total, nil
}
