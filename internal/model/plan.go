package model

import (
	"time"
)

// Plan 计划快照, 链上为权威数据, 本地仅做可查询缓存
type Plan struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`

	Name                  string    `json:"name" gorm:"not null"`
	Price                 string    `json:"price" gorm:"type:decimal(36,18);not null"`
	MembersPerCycle       int64     `json:"members_per_cycle" gorm:"not null"`
	CurrentCycle          int64     `json:"current_cycle" gorm:"default:1"`
	MembersInCurrentCycle int64     `json:"members_in_current_cycle" gorm:"default:0"`
	IsActive              bool      `json:"is_active" gorm:"default:true"`
	ImageURI              string    `json:"image_uri"`
	LastSynced            time.Time `json:"last_synced"`
}

// TableName 自定义表名
func (Plan) TableName() string {
	return "plans"
}
