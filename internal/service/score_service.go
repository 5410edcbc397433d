package service

import (
	"errors"
	"fmt"

	"github.com/resiliencetracker/internal/apperr"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/metrics"
	"github.com/resiliencetracker/internal/wellbeing"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrScoreNotFound 在打分不存在或已删除时返回
var ErrScoreNotFound = apperr.NotFound("score not found")

// ScoreService 是打分写入的事务边界：每次写入先锁定评估，再交给 wellbeing 校验、写入并重算
type ScoreService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// ScoreInput 定义新增打分的输入
type ScoreInput struct {
	ClientHabitID uint
	Score         *decimal.Decimal
	Note          string
}

// ScoreUpdate 描述局部修改，nil 表示保持不变
type ScoreUpdate struct {
	Score *decimal.Decimal
	Note  *string
}

// NewScoreService 构造 ScoreService
func NewScoreService(gdb *gorm.DB, m *metrics.Metrics) *ScoreService {
	return &ScoreService{db: gdb, metrics: m}
}

// ListForAssessment 返回评估的有效打分
func (s *ScoreService) ListForAssessment(assessmentID uint) ([]db.HabitScore, error) {
	var assessment db.WeeklyAssessment
	if err := s.db.Select("id").First(&assessment, assessmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}

	var scores []db.HabitScore
	if err := s.db.Preload("ClientHabit.Habit").
		Where("assessment_id = ?", assessmentID).
		Order("id ASC").
		Find(&scores).Error; err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// Get 获取有效打分
func (s *ScoreService) Get(id uint) (*db.HabitScore, error) {
	return findScore(s.db, id)
}

// Create 在评估中新增一条打分
func (s *ScoreService) Create(assessmentID uint, input ScoreInput) (*db.HabitScore, error) {
	v := violations{}
	if input.ClientHabitID == 0 {
		v["client_habit_id"] = "required"
	}
	if input.Score == nil {
		v["score"] = "required"
	}
	v.maxLen("note", input.Note, maxCommentLength)
	if err := v.err("invalid score"); err != nil {
		return nil, err
	}

	var created *db.HabitScore
	err := s.db.Transaction(func(tx *gorm.DB) error {
		assessment, err := wellbeing.LockAssessment(tx, assessmentID)
		if err != nil {
			return err
		}
		clientHabit, err := findClientHabit(tx, input.ClientHabitID)
		if err != nil {
			return err
		}

		score, err := wellbeing.CreateScore(tx, assessment, clientHabit, *input.Score, input.Note)
		if err != nil {
			return err
		}
		score.ClientHabit = *clientHabit
		if err := tx.First(&score.ClientHabit.Habit, clientHabit.HabitID).Error; err != nil {
			return fmt.Errorf("load habit: %w", err)
		}
		created = score
		return nil
	})
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}
	s.metrics.ScoreMutation("create")
	return created, nil
}

// Update 修改分值或备注并重算所属评估
func (s *ScoreService) Update(id uint, input ScoreUpdate) (*db.HabitScore, error) {
	if input.Note != nil {
		v := violations{}
		v.maxLen("note", *input.Note, maxCommentLength)
		if err := v.err("invalid score"); err != nil {
			return nil, err
		}
	}

	var updated *db.HabitScore
	err := s.db.Transaction(func(tx *gorm.DB) error {
		score, err := findScore(tx, id)
		if err != nil {
			return err
		}
		if _, err := wellbeing.LockAssessment(tx, score.AssessmentID); err != nil {
			return err
		}
		// 加锁后重新读取，排除等待期间被删除的打分
		if score, err = findScore(tx, id); err != nil {
			return err
		}

		updated, err = wellbeing.UpdateScore(tx, score, input.Score, input.Note)
		return err
	})
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}
	s.metrics.ScoreMutation("update")
	return updated, nil
}

// Delete 软删除打分并重算所属评估
func (s *ScoreService) Delete(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		score, err := findScore(tx, id)
		if err != nil {
			return err
		}
		if _, err := wellbeing.LockAssessment(tx, score.AssessmentID); err != nil {
			return err
		}
		// 加锁后重新读取，排除等待期间被删除的打分
		if score, err = findScore(tx, id); err != nil {
			return err
		}
		return wellbeing.DeleteScore(tx, score)
	})
	if err != nil {
		return err
	}
	s.metrics.ScoreMutation("delete")
	return nil
}

func (s *ScoreService) recordRejection(err error) {
	switch {
	case errors.Is(err, wellbeing.ErrScoreLimitReached):
		s.metrics.ScoreRejected("limit")
	case errors.Is(err, wellbeing.ErrScoreOutOfRange):
		s.metrics.ScoreRejected("range")
	case errors.Is(err, wellbeing.ErrHabitNotAssigned):
		s.metrics.ScoreRejected("ownership")
	}
}

func findScore(tx *gorm.DB, id uint) (*db.HabitScore, error) {
	var score db.HabitScore
	if err := tx.Preload("ClientHabit.Habit").First(&score, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScoreNotFound
		}
		return nil, fmt.Errorf("get score: %w", err)
	}
	return &score, nil
}
