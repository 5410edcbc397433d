package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/resiliencetracker/internal/apperr"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/metrics"
	"github.com/resiliencetracker/internal/wellbeing"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrAssessmentNotFound 在评估不存在或已删除时返回
	ErrAssessmentNotFound = wellbeing.ErrAssessmentNotFound
	// ErrDuplicateWeek 在同一来访者同一周已有有效评估时返回
	ErrDuplicateWeek = apperr.Conflict("an assessment for that week already exists")
	// ErrWeekStartRequired 在缺少 week_start_date 时返回
	ErrWeekStartRequired = apperr.Validation("week_start_date is required", map[string]string{"week_start_date": "required"})
	// ErrInvalidDateRange 在 from 晚于 to 时返回
	ErrInvalidDateRange = apperr.Validation("'from' must not be after 'to'", map[string]string{"from": "after_to"})
)

const maxCommentLength = 500

// AssessmentService 管理每周评估，打分写入由 ScoreService 负责
type AssessmentService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// AssessmentFilter 描述列表过滤与分页
type AssessmentFilter struct {
	From *time.Time
	To   *time.Time
	Page Page
}

// AssessmentInput 定义创建评估时的输入
type AssessmentInput struct {
	WeekStartDate time.Time
	Comment       string
}

// NewAssessmentService 构造 AssessmentService
func NewAssessmentService(gdb *gorm.DB, m *metrics.Metrics) *AssessmentService {
	return &AssessmentService{db: gdb, metrics: m}
}

// ListForClient 返回来访者的有效评估，按周起始日倒序
func (s *AssessmentService) ListForClient(clientID uint, filter AssessmentFilter) ([]db.WeeklyAssessment, error) {
	if _, err := findClient(s.db, clientID); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, ErrInvalidDateRange
	}

	query := withScores(s.db).Where("client_id = ?", clientID)
	if filter.From != nil {
		query = query.Where("week_start_date >= ?", db.NormalizeWeekStart(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("week_start_date <= ?", db.NormalizeWeekStart(*filter.To))
	}

	var assessments []db.WeeklyAssessment
	if err := filter.Page.apply(query.Order("week_start_date DESC")).Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// Create 为来访者新建一周的评估，初始 wellbeing_score 为 0
func (s *AssessmentService) Create(clientID uint, input AssessmentInput) (*db.WeeklyAssessment, error) {
	if input.WeekStartDate.IsZero() {
		return nil, ErrWeekStartRequired
	}
	comment := strings.TrimSpace(input.Comment)
	if err := validateComment(comment); err != nil {
		return nil, err
	}

	assessment := db.WeeklyAssessment{
		ClientID:       clientID,
		WeekStartDate:  db.NormalizeWeekStart(input.WeekStartDate),
		WellbeingScore: decimal.Zero,
		OverallComment: comment,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := findClient(tx, clientID); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&db.WeeklyAssessment{}).
			Where("client_id = ? AND week_start_date = ?", clientID, assessment.WeekStartDate).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check week: %w", err)
		}
		if existing > 0 {
			return ErrDuplicateWeek
		}

		assessment.SubmittedAt = tx.NowFunc()
		if err := tx.Omit(clause.Associations).Create(&assessment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateWeek
			}
			return fmt.Errorf("create assessment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	assessment.Scores = []db.HabitScore{}
	return &assessment, nil
}

// Get 获取有效评估及其有效打分
func (s *AssessmentService) Get(id uint) (*db.WeeklyAssessment, error) {
	var assessment db.WeeklyAssessment
	if err := withScores(s.db).First(&assessment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return &assessment, nil
}

// UpdateComment 修改总体评语，不影响 wellbeing_score
func (s *AssessmentService) UpdateComment(id uint, comment *string) (*db.WeeklyAssessment, error) {
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if err := validateComment(trimmed); err != nil {
			return nil, err
		}

		result := s.db.Model(&db.WeeklyAssessment{}).Where("id = ?", id).Update("overall_comment", trimmed)
		if result.Error != nil {
			return nil, fmt.Errorf("update assessment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrAssessmentNotFound
		}
	}
	return s.Get(id)
}

// Delete 软删除评估及其打分
func (s *AssessmentService) Delete(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		assessment, err := wellbeing.LockAssessment(tx, id)
		if err != nil {
			return err
		}
		return wellbeing.SoftDeleteAssessment(tx, assessment)
	})
	if err != nil {
		return err
	}
	s.metrics.Cascade("assessment")
	return nil
}

func validateComment(comment string) error {
	v := violations{}
	v.maxLen("overall_comment", comment, maxCommentLength)
	return v.err("invalid assessment")
}

// withScores 预加载有效打分及其习惯，打分按 ID 升序
func withScores(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Scores", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("habit_scores.id ASC")
		}).
		Preload("Scores.ClientHabit.Habit")
}
