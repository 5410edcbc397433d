package service

import (
	"fmt"

	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/wellbeing"
	"gorm.io/gorm"
)

// InsightService 计算来访者最近几周的趋势
type InsightService struct {
	db *gorm.DB
}

// NewInsightService 构造 InsightService
func NewInsightService(gdb *gorm.DB) *InsightService {
	return &InsightService{db: gdb}
}

// Latest 取最近 wellbeing.TrendWindow 周的有效评估计算趋势；没有评估时返回 nil
func (s *InsightService) Latest(clientID uint) (*wellbeing.Trend, error) {
	if _, err := findClient(s.db, clientID); err != nil {
		return nil, err
	}

	var recent []db.WeeklyAssessment
	if err := s.db.Preload("Scores").
		Where("client_id = ?", clientID).
		Order("week_start_date DESC").
		Limit(wellbeing.TrendWindow).
		Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("load recent assessments: %w", err)
	}

	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return wellbeing.ComputeTrend(recent), nil
}
