package logic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blues/cmns/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserLogic 用户业务逻辑
type UserLogic struct {
	db *gorm.DB
}

// NewUserLogic 创建用户业务逻辑
func NewUserLogic(db *gorm.DB) *UserLogic {
	return &UserLogic{db: db}
}

// GetUserByWallet 根据钱包地址查询用户, 未找到时返回nil
func (l *UserLogic) GetUserByWallet(wallet string) (*model.User, error) {
	var user model.User
	err := l.db.Where("LOWER(wallet_address) = ?", strings.ToLower(wallet)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by wallet: %w", err)
	}
	return &user, nil
}

// GetAdminIds 获取全部管理员用户ID (含owner)
func (l *UserLogic) GetAdminIds() ([]uint, error) {
	var ids []uint
	err := l.db.Model(&model.User{}).
		Where("role IN ? AND is_active = ?", []model.UserRole{model.UserRoleAdmin, model.UserRoleOwner}, true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query admin users: %w", err)
	}
	return ids, nil
}

// GetMemberUserIds 获取全部有链上会员记录的用户ID
func (l *UserLogic) GetMemberUserIds() ([]uint, error) {
	var ids []uint
	err := l.db.Model(&model.User{}).
		Joins("JOIN members ON LOWER(members.wallet_address) = LOWER(users.wallet_address)").
		Where("users.is_active = ?", true).
		Pluck("users.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query member users: %w", err)
	}
	return ids, nil
}

// GetPlanCycleMemberIds 获取指定计划指定周期内会员的用户ID
func (l *UserLogic) GetPlanCycleMemberIds(planId int64, cycleNumber int64) ([]uint, error) {
	var ids []uint
	err := l.db.Model(&model.User{}).
		Joins("JOIN members ON LOWER(members.wallet_address) = LOWER(users.wallet_address)").
		Where("members.plan_id = ? AND members.cycle_number = ? AND users.is_active = ?", planId, cycleNumber, true).
		Pluck("users.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle members: %w", err)
	}
	return ids, nil
}

// UpsertMember 按钱包地址更新会员记录, 不存在时创建
func (l *UserLogic) UpsertMember(member *model.Member) error {
	if member.WalletAddress == "" {
		return fmt.Errorf("member wallet address is empty")
	}
	member.WalletAddress = strings.ToLower(member.WalletAddress)
	member.UplineWallet = strings.ToLower(member.UplineWallet)

	// 推荐人只在注册事件携带, 升级事件的空值不能覆盖既有推荐人
	columns := []string{"plan_id", "cycle_number", "updated_at"}
	if member.UplineWallet != "" {
		columns = append(columns, "upline_wallet")
	}

	err := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(member).Error
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// DeleteMember 删除会员记录 (会员退出时)
func (l *UserLogic) DeleteMember(wallet string) error {
	err := l.db.Where("LOWER(wallet_address) = ?", strings.ToLower(wallet)).
		Delete(&model.Member{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}

// IncrementReferrals 推荐人的推荐计数加一
func (l *UserLogic) IncrementReferrals(wallet string) error {
	err := l.db.Model(&model.Member{}).
		Where("LOWER(wallet_address) = ?", strings.ToLower(wallet)).
		UpdateColumn("total_referrals", gorm.Expr("total_referrals + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment referrals: %w", err)
	}
	return nil
}
