package event

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/blues/cmns/internal/chain"
	"github.com/blues/cmns/internal/database"
	"github.com/blues/cmns/internal/gateway"
	"github.com/blues/cmns/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testDB 内存sqlite数据库, 每个测试独立一份
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username, wallet string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		Username:      username,
		Role:          role,
		WalletAddress: wallet,
		IsActive:      true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// fakeReader 可编排的链上读取桩
type fakeReader struct {
	mu           sync.Mutex
	cycleStatus  *gateway.CycleStatus
	cycleErr     error
	memberInfo   *gateway.MemberInfo
	memberErr    error
	cycleCalls   int
	completeOnce bool // 为true时只有填满周期的那次读取返回IsComplete
	fillAt       int
}

func (f *fakeReader) CheckCycleStatus(ctx context.Context, planId int64) (*gateway.CycleStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cycleCalls++
	if f.cycleErr != nil {
		return nil, f.cycleErr
	}
	if f.completeOnce {
		status := &gateway.CycleStatus{
			PlanId:                planId,
			CurrentCycle:          1,
			MembersInCurrentCycle: int64(f.cycleCalls),
			MembersPerCycle:       int64(f.fillAt),
			IsComplete:            f.cycleCalls == f.fillAt,
		}
		return status, nil
	}
	if f.cycleStatus != nil {
		return f.cycleStatus, nil
	}
	return &gateway.CycleStatus{PlanId: planId, MembersPerCycle: 4}, nil
}

func (f *fakeReader) GetMemberInfo(ctx context.Context, address common.Address) (*gateway.MemberInfo, error) {
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	if f.memberInfo != nil {
		return f.memberInfo, nil
	}
	return &gateway.MemberInfo{PlanId: 1}, nil
}

func (f *fakeReader) cycleCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cycleCalls
}

func registeredEvent(member, upline common.Address, planId, cycle int64, txHash string) *chain.Event {
	return &chain.Event{
		Name:        "MemberRegistered",
		TxHash:      txHash,
		BlockNumber: 100,
		Fields: map[string]interface{}{
			"member":      member,
			"upline":      upline,
			"planId":      big.NewInt(planId),
			"cycleNumber": big.NewInt(cycle),
		},
	}
}

func countRows(t *testing.T, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	q := db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&count).Error)
	return count
}
