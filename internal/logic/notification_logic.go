package logic

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/blues/cmns/internal/logger"
	"github.com/blues/cmns/internal/model"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// NotificationLogic 通知业务逻辑
// 使用协程池并发写入通知, 单条通知的失败不影响其他接收者
type NotificationLogic struct {
	db    *gorm.DB
	users *UserLogic
	pool  *ants.Pool
}

// NewNotificationLogic 创建通知业务逻辑
func NewNotificationLogic(db *gorm.DB, users *UserLogic) *NotificationLogic {
	pool, _ := ants.NewPool(16)
	return &NotificationLogic{
		db:    db,
		users: users,
		pool:  pool,
	}
}

// Release 释放协程池
func (l *NotificationLogic) Release() {
	l.pool.Release()
}

// CreateNotification 创建单条通知
func (l *NotificationLogic) CreateNotification(userId uint, typ model.NotificationType, title, message string, data map[string]interface{}) error {
	payload := ""
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		payload = string(raw)
	}

	notification := &model.Notification{
		UserId:  userId,
		Type:    typ,
		Title:   title,
		Message: message,
		Data:    payload,
	}
	if err := l.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// Notify 向一组用户投递同一条通知
// 每个接收者独立一行, 部分失败只记录日志
func (l *NotificationLogic) Notify(userIds []uint, typ model.NotificationType, title, message string, data map[string]interface{}) error {
	if len(userIds) == 0 {
		return nil
	}

	payload := ""
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}
		payload = string(raw)
	}

	var wg sync.WaitGroup
	for _, userId := range userIds {
		userId := userId
		wg.Add(1)
		err := l.pool.Submit(func() {
			defer wg.Done()
			notification := &model.Notification{
				UserId:  userId,
				Type:    typ,
				Title:   title,
				Message: message,
				Data:    payload,
			}
			if err := l.db.Create(notification).Error; err != nil {
				logger.Error("Failed to deliver notification to user %d: %v", userId, err)
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit notification task for user %d: %v", userId, err)
		}
	}
	wg.Wait()

	logger.Debug("Notification %s delivered to %d users", typ, len(userIds))
	return nil
}

// NotifyAdmins 向全部管理员投递通知
func (l *NotificationLogic) NotifyAdmins(typ model.NotificationType, title, message string, data map[string]interface{}) error {
	adminIds, err := l.users.GetAdminIds()
	if err != nil {
		return err
	}
	return l.Notify(adminIds, typ, title, message, data)
}

// NotifyMembers 向全部会员用户投递通知
func (l *NotificationLogic) NotifyMembers(typ model.NotificationType, title, message string, data map[string]interface{}) error {
	memberIds, err := l.users.GetMemberUserIds()
	if err != nil {
		return err
	}
	return l.Notify(memberIds, typ, title, message, data)
}

// NotifyCycleCompleted 周期完成时通知该周期内的会员与管理员
func (l *NotificationLogic) NotifyCycleCompleted(planId int64, cycleNumber int64) error {
	data := map[string]interface{}{
		"plan_id":      planId,
		"cycle_number": cycleNumber,
	}

	memberIds, err := l.users.GetPlanCycleMemberIds(planId, cycleNumber)
	if err != nil {
		return err
	}
	if err := l.Notify(memberIds, model.NotifyCycleCompleted,
		"周期已完成",
		fmt.Sprintf("计划 %d 的第 %d 周期已满员", planId, cycleNumber),
		data); err != nil {
		return err
	}

	return l.NotifyAdmins(model.NotifyAdminCycleCompleted,
		"周期已完成",
		fmt.Sprintf("计划 %d 的第 %d 周期已满员, 即将进入下一周期", planId, cycleNumber),
		data)
}

// GetUserNotifications 查询用户的通知列表
func (l *NotificationLogic) GetUserNotifications(userId uint, limit int, onlyUnread bool) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := l.db.Where("user_id = ?", userId)
	if onlyUnread {
		query = query.Where("is_read = ?", false)
	}

	var notifications []model.Notification
	err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount 查询用户的未读通知数
func (l *NotificationLogic) UnreadCount(userId uint) (int64, error) {
	var count int64
	err := l.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead 将一条通知标记为已读
func (l *NotificationLogic) MarkAsRead(id uint, userId uint) error {
	result := l.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userId).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification %d not found for user %d", id, userId)
	}
	return nil
}

// MarkAllAsRead 将用户的全部通知标记为已读
func (l *NotificationLogic) MarkAllAsRead(userId uint) error {
	err := l.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}
