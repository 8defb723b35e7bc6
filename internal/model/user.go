package model

import (
	"time"
)

// UserRole 用户角色
type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
	UserRoleOwner  UserRole = "owner"
)

// User 本地用户目录 (admin/owner 账户与已绑定钱包的会员)
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username      string   `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash  string   `json:"-" gorm:"column:password_hash"`
	Role          UserRole `json:"role" gorm:"default:'member'"`
	WalletAddress string   `json:"wallet_address" gorm:"index"`
	LastLogin     *time.Time `json:"last_login"`
	IsActive      bool     `json:"is_active" gorm:"default:true"`
}

// TableName 自定义表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 是否为管理员角色 (admin 或 owner)
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleOwner
}
