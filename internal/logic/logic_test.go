package logic

import (
	"testing"

	"github.com/blues/cmns/internal/database"
	"github.com/blues/cmns/internal/model"
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
