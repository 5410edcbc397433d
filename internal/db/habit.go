package db

import (
	"gorm.io/gorm"
)

// Habit 定义了习惯目录中的条目
// 名称全局唯一；存在任何 ClientHabit 引用时禁止删除
// Description 允许 Markdown，渲染在 handler 层完成
type Habit struct {
	gorm.Model
	Name        string `gorm:"size:100;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
}

// ClientHabit 将习惯分配给某个来访者
// (client_id, habit_id) 与 (client_id, display_order) 仅在未删除的行之间唯一，
// 通过带 WHERE 的部分唯一索引实现，墓碑行不占用唯一性
type ClientHabit struct {
	gorm.Model
	ClientID     uint   `gorm:"not null;uniqueIndex:idx_client_habit_live,where:deleted_at IS NULL;uniqueIndex:idx_client_order_live,where:deleted_at IS NULL"`
	HabitID      uint   `gorm:"not null;index;uniqueIndex:idx_client_habit_live,where:deleted_at IS NULL"`
	Habit        Habit  `gorm:"constraint:OnDelete:RESTRICT"`
	CustomLabel  string `gorm:"size:100"`
	DisplayOrder *int   `gorm:"uniqueIndex:idx_client_order_live,where:deleted_at IS NULL"`
}

// TableName 固定表名，级联与历史查询中的原生 SQL 片段依赖该名称
func (ClientHabit) TableName() string {
	return "client_habits"
}
