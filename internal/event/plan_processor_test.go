package event

import (
	"context"
	"math/big"
	"testing"

	"github.com/blues/cmns/internal/chain"
	"github.com/blues/cmns/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanProcessor_HandlePlanCreated(t *testing.T) {
	db := testDB(t)
	d := NewDispatcher(db, &fakeReader{})
	defer d.Release()

	admin := createUser(t, db, "admin", "0xad", model.UserRoleAdmin)
	createUser(t, db, "member", "0xm1", model.UserRoleMember)

	price, _ := new(big.Int).SetString("100000000000000000000", 10)
	ev := &chain.Event{
		Name:   "PlanCreated",
		TxHash: "0x01",
		Fields: map[string]interface{}{
			"planId":          big.NewInt(3),
			"name":            "黄金计划",
			"price":           price,
			"membersPerCycle": big.NewInt(4),
		},
	}
	require.NoError(t, d.plans.HandlePlanCreated(context.Background(), ev))

	var plan model.Plan
	require.NoError(t, db.First(&plan, 3).Error)
	assert.Equal(t, "黄金计划", plan.Name)
	assert.Equal(t, "100", plan.Price)
	assert.Equal(t, int64(4), plan.MembersPerCycle)
	assert.Equal(t, int64(1), plan.CurrentCycle)
	assert.True(t, plan.IsActive)

	// 只有管理员收到通知
	assert.Equal(t, int64(1), countRows(t, db, &model.Notification{},
		"type = ?", model.NotifyPlanCreated))
	assert.Equal(t, int64(1), countRows(t, db, &model.Notification{},
		"user_id = ?", admin.ID))
}

func TestPlanProcessor_HandleNewCycleStarted(t *testing.T) {
	db := testDB(t)
	d := NewDispatcher(db, &fakeReader{})
	defer d.Release()

	createUser(t, db, "admin", "0xad", model.UserRoleAdmin)

	require.NoError(t, db.Create(&model.Plan{
		Id:                    1,
		Name:                  "基础计划",
		Price:                 "50",
		MembersPerCycle:       4,
		CurrentCycle:          1,
		MembersInCurrentCycle: 4,
		IsActive:              true,
	}).Error)

	ev := &chain.Event{
		Name:   "NewCycleStarted",
		TxHash: "0x01",
		Fields: map[string]interface{}{
			"planId":      big.NewInt(1),
			"cycleNumber": big.NewInt(2),
		},
	}
	require.NoError(t, d.plans.HandleNewCycleStarted(context.Background(), ev))

	// 周期推进且在场人数清零
	var plan model.Plan
	require.NoError(t, db.First(&plan, 1).Error)
	assert.Equal(t, int64(2), plan.CurrentCycle)
	assert.Equal(t, int64(0), plan.MembersInCurrentCycle)

	assert.Equal(t, int64(1), countRows(t, db, &model.Notification{},
		"type = ?", model.NotifyNewCycle))
}

func TestPlanProcessor_HandlePlanDefaultImageSet(t *testing.T) {
	db := testDB(t)
	d := NewDispatcher(db, &fakeReader{})
	defer d.Release()

	createUser(t, db, "admin", "0xad", model.UserRoleAdmin)

	require.NoError(t, db.Create(&model.Plan{
		Id:           1,
		Name:         "基础计划",
		Price:        "50",
		CurrentCycle: 1,
		IsActive:     true,
	}).Error)

	ev := &chain.Event{
		Name:   "PlanDefaultImageSet",
		TxHash: "0x01",
		Fields: map[string]interface{}{
			"planId":   big.NewInt(1),
			"imageURI": "ipfs://QmPlanImage",
		},
	}
	require.NoError(t, d.plans.HandlePlanDefaultImageSet(context.Background(), ev))

	var plan model.Plan
	require.NoError(t, db.First(&plan, 1).Error)
	assert.Equal(t, "ipfs://QmPlanImage", plan.ImageURI)

	assert.Equal(t, int64(1), countRows(t, db, &model.Notification{},
		"type = ?", model.NotifyPlanImageUpdated))
}
