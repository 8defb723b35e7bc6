package model

import (
	"time"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotifyMemberRegistered          NotificationType = "member_registered"
	NotifyPlanUpgraded              NotificationType = "plan_upgraded"
	NotifyMemberExited              NotificationType = "member_exited"
	NotifyReferralCommission        NotificationType = "referral_commission"
	NotifyCycleCompleted            NotificationType = "cycle_completed"
	NotifyAdminCycleCompleted       NotificationType = "admin_cycle_completed"
	NotifyNewCycle                  NotificationType = "new_cycle"
	NotifyContractStatus            NotificationType = "contract_status"
	NotifyPlanCreated               NotificationType = "plan_created"
	NotifyPlanImageUpdated          NotificationType = "plan_image_updated"
	NotifyUplineNotification        NotificationType = "upline_notification"
	NotifyEmergencyWithdrawRequest  NotificationType = "emergency_withdraw_requested"
	NotifyEmergencyWithdrawWarning  NotificationType = "emergency_withdraw_warning"
	NotifyEmergencyWithdrawCanceled NotificationType = "emergency_withdraw_canceled"
	NotifyEmergencyWithdrawDone     NotificationType = "emergency_withdraw_completed"
)

// Notification 用户通知, 每个 (事件, 接收人) 一行
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	UserId  uint             `json:"user_id" gorm:"index;not null"`
	Type    NotificationType `json:"type" gorm:"not null"`
	Title   string           `json:"title" gorm:"not null"`
	Message string           `json:"message" gorm:"type:text;not null"`
	Data    string           `json:"data" gorm:"type:text"` // JSON负载
	IsRead  bool             `json:"is_read" gorm:"default:false"`
}

// TableName 自定义表名
func (Notification) TableName() string {
	return "notifications"
}
