package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WeeklyAssessment 记录来访者某一周的评估
// WellbeingScore 是其有效 HabitScore 的均值缓存，只允许 wellbeing.Recompute 写入
// (client_id, week_start_date) 在未删除的行之间唯一
type WeeklyAssessment struct {
	gorm.Model
	ClientID       uint            `gorm:"not null;uniqueIndex:idx_client_week_live,where:deleted_at IS NULL"`
	WeekStartDate  time.Time       `gorm:"type:date;not null;uniqueIndex:idx_client_week_live,where:deleted_at IS NULL"`
	WellbeingScore decimal.Decimal `gorm:"type:numeric(4,1);not null"`
	OverallComment string          `gorm:"size:500"`
	SubmittedAt    time.Time       `gorm:"not null"`
	Scores         []HabitScore    `gorm:"foreignKey:AssessmentID"`
}

// HabitScore 是一次打分，score 取值 0-10，保留一位小数
// 同一 (assessment, client_habit) 最多 7 条有效记录，由 wellbeing.CreateScore 保证
type HabitScore struct {
	gorm.Model
	AssessmentID  uint            `gorm:"not null;index:idx_score_assessment_habit"`
	ClientHabitID uint            `gorm:"not null;index:idx_score_assessment_habit;index"`
	ClientHabit   ClientHabit     `gorm:"constraint:OnDelete:RESTRICT"`
	Score         decimal.Decimal `gorm:"type:numeric(3,1);not null"`
	Note          string          `gorm:"size:500"`
}

// Live 判断记录是否未被软删除
func (s HabitScore) Live() bool {
	return !s.DeletedAt.Valid
}

// NormalizeWeekStart 将周起始日截断到 UTC 零点，保证唯一索引与区间查询的比较一致
func NormalizeWeekStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
