package wellbeing

import (
	"github.com/resiliencetracker/internal/db"
	"github.com/shopspring/decimal"
)

// Trend 是最近一周的得分以及与上一周的差值
// 只有一周数据时 Delta 为 nil
type Trend struct {
	LatestScore decimal.Decimal
	Delta       *decimal.Decimal
}

// ComputeTrend derives the latest score and its delta from assessments sorted
// oldest first. The caller filters to live rows and applies the window.
// Scores are recomputed from the loaded HabitScores, not read from the cache.
func ComputeTrend(assessments []db.WeeklyAssessment) *Trend {
	if len(assessments) == 0 {
		return nil
	}

	latest := Mean(assessments[len(assessments)-1].Scores)
	trend := &Trend{LatestScore: latest}
	if len(assessments) < 2 {
		return trend
	}

	delta := latest.Sub(Mean(assessments[len(assessments)-2].Scores))
	trend.Delta = &delta
	return trend
}
