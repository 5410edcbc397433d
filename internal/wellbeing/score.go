// Package wellbeing keeps a weekly assessment's cached wellbeing score in
// step with its habit scores and derives short term trends from them.
//
// Every function that touches the database takes the caller's *gorm.DB and
// never commits it; the service layer owns the transaction.
package wellbeing

import (
	"github.com/resiliencetracker/internal/db"
	"github.com/shopspring/decimal"
)

const (
	// WeeklyScoreLimit 是同一 (assessment, client_habit) 可保留的有效打分上限
	WeeklyScoreLimit = 7
	// TrendWindow 是趋势计算使用的最近周数
	TrendWindow = 4
)

var (
	MinScore = decimal.Zero
	MaxScore = decimal.NewFromInt(10)
)

// Mean 计算有效打分的均值，按银行家舍入保留一位小数；没有有效打分时为 0
func Mean(scores []db.HabitScore) decimal.Decimal {
	sum := decimal.Zero
	count := int64(0)
	for _, score := range scores {
		if !score.Live() {
			continue
		}
		sum = sum.Add(score.Score)
		count++
	}
	if count == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(count)).RoundBank(1)
}

// InRange reports whether value lies within [MinScore, MaxScore].
func InRange(value decimal.Decimal) bool {
	return !value.LessThan(MinScore) && !value.GreaterThan(MaxScore)
}
