package logic

import (
	"testing"

	"github.com/blues/cmns/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationLogic_Notify_FanOut(t *testing.T) {
	db := testDB(t)
	users := NewUserLogic(db)
	l := NewNotificationLogic(db, users)
	defer l.Release()

	u1 := createUser(t, db, "alice", "0xa1", model.UserRoleMember)
	u2 := createUser(t, db, "bob", "0xa2", model.UserRoleMember)
	u3 := createUser(t, db, "carol", "0xa3", model.UserRoleMember)

	err := l.Notify([]uint{u1.ID, u2.ID, u3.ID}, model.NotifyNewCycle,
		"新周期开始", "计划 1 已进入第 2 周期",
		map[string]interface{}{"plan_id": 1, "cycle_number": 2})
	require.NoError(t, err)

	var count int64
	db.Model(&model.Notification{}).Count(&count)
	assert.Equal(t, int64(3), count, "one row per recipient")

	var stored model.Notification
	require.NoError(t, db.Where("user_id = ?", u2.ID).First(&stored).Error)
	assert.Equal(t, model.NotifyNewCycle, stored.Type)
	assert.Contains(t, stored.Data, "plan_id")
	assert.False(t, stored.IsRead)
}

func TestNotificationLogic_Notify_Empty(t *testing.T) {
	db := testDB(t)
	l := NewNotificationLogic(db, NewUserLogic(db))
	defer l.Release()

	require.NoError(t, l.Notify(nil, model.NotifyNewCycle, "t", "m", nil))

	var count int64
	db.Model(&model.Notification{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestNotificationLogic_NotifyAdmins(t *testing.T) {
	db := testDB(t)
	l := NewNotificationLogic(db, NewUserLogic(db))
	defer l.Release()

	admin := createUser(t, db, "admin", "0xad", model.UserRoleAdmin)
	owner := createUser(t, db, "owner", "0xow", model.UserRoleOwner)
	createUser(t, db, "member", "0xme", model.UserRoleMember)

	require.NoError(t, l.NotifyAdmins(model.NotifyContractStatus, "系统已暂停", "链上操作暂时不可用", nil))

	var userIds []uint
	db.Model(&model.Notification{}).Pluck("user_id", &userIds)
	assert.ElementsMatch(t, []uint{admin.ID, owner.ID}, userIds, "members must not receive admin notifications")
}

func TestNotificationLogic_NotifyCycleCompleted(t *testing.T) {
	db := testDB(t)
	users := NewUserLogic(db)
	l := NewNotificationLogic(db, users)
	defer l.Release()

	admin := createUser(t, db, "admin", "0xad", model.UserRoleAdmin)
	inCycle := createUser(t, db, "alice", "0xa1", model.UserRoleMember)
	outOfCycle := createUser(t, db, "bob", "0xb1", model.UserRoleMember)

	require.NoError(t, users.UpsertMember(&model.Member{WalletAddress: "0xa1", PlanId: 1, CycleNumber: 2}))
	require.NoError(t, users.UpsertMember(&model.Member{WalletAddress: "0xb1", PlanId: 1, CycleNumber: 1}))

	require.NoError(t, l.NotifyCycleCompleted(1, 2))

	var memberNotes []model.Notification
	db.Where("type = ?", model.NotifyCycleCompleted).Find(&memberNotes)
	require.Len(t, memberNotes, 1, "only members of the completed cycle are notified")
	assert.Equal(t, inCycle.ID, memberNotes[0].UserId)

	var adminNotes []model.Notification
	db.Where("type = ?", model.NotifyAdminCycleCompleted).Find(&adminNotes)
	require.Len(t, adminNotes, 1)
	assert.Equal(t, admin.ID, adminNotes[0].UserId)

	var all int64
	db.Model(&model.Notification{}).Where("user_id = ?", outOfCycle.ID).Count(&all)
	assert.Equal(t, int64(0), all)
}

func TestNotificationLogic_MarkAsRead(t *testing.T) {
	db := testDB(t)
	l := NewNotificationLogic(db, NewUserLogic(db))
	defer l.Release()

	user := createUser(t, db, "alice", "0xa1", model.UserRoleMember)
	require.NoError(t, l.CreateNotification(user.ID, model.NotifyMemberRegistered, "注册成功", "欢迎", nil))

	notifications, err := l.GetUserNotifications(user.ID, 10, true)
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	require.NoError(t, l.MarkAsRead(notifications[0].ID, user.ID))

	unread, err := l.UnreadCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	// 其他用户不能标记别人的通知
	assert.Error(t, l.MarkAsRead(notifications[0].ID, user.ID+1))
}

func TestNotificationLogic_MarkAllAsRead(t *testing.T) {
	db := testDB(t)
	l := NewNotificationLogic(db, NewUserLogic(db))
	defer l.Release()

	user := createUser(t, db, "alice", "0xa1", model.UserRoleMember)
	for i := 0; i < 3; i++ {
		require.NoError(t, l.CreateNotification(user.ID, model.NotifyNewCycle, "t", "m", nil))
	}

	require.NoError(t, l.MarkAllAsRead(user.ID))
	unread, err := l.UnreadCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}
