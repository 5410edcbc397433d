package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/resiliencetracker/internal/apperr"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/metrics"
	"github.com/resiliencetracker/internal/wellbeing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrClientHabitNotFound 在习惯分配不存在或已删除时返回
	ErrClientHabitNotFound = apperr.NotFound("client habit not found")
	// ErrHabitAlreadyAssigned 在同一来访者重复分配同一习惯时返回
	ErrHabitAlreadyAssigned = apperr.Conflict("habit already assigned to client")
	// ErrDisplayOrderTaken 在同一来访者的显示顺序重复时返回
	ErrDisplayOrderTaken = apperr.Conflict("display order already used by another habit")
	// ErrInvalidDisplayOrder 在显示顺序为负数时返回
	ErrInvalidDisplayOrder = apperr.Validation("order must be zero or greater", map[string]string{"order": "must_be_non_negative"})
)

const maxCustomLabelLength = 100

// ClientHabitService 管理来访者的习惯分配以及单个习惯的历史打分
type ClientHabitService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// AssignInput 定义分配习惯时的输入
type AssignInput struct {
	HabitID     uint
	CustomLabel string
	Order       *int
}

// ClientHabitUpdate 描述局部修改；OrderSet 为 true 时 Order 为 nil 表示清除顺序
type ClientHabitUpdate struct {
	CustomLabel *string
	OrderSet    bool
	Order       *int
}

// NewClientHabitService 构造 ClientHabitService
func NewClientHabitService(gdb *gorm.DB, m *metrics.Metrics) *ClientHabitService {
	return &ClientHabitService{db: gdb, metrics: m}
}

// ListForClient 返回来访者的有效分配，按显示顺序排列，未设置顺序的排在最后
func (s *ClientHabitService) ListForClient(clientID uint) ([]db.ClientHabit, error) {
	if _, err := findClient(s.db, clientID); err != nil {
		return nil, err
	}

	var habits []db.ClientHabit
	if err := s.db.Preload("Habit").
		Where("client_id = ?", clientID).
		Order("display_order IS NULL, display_order ASC, id ASC").
		Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list client habits: %w", err)
	}
	return habits, nil
}

// Get 获取有效的习惯分配
func (s *ClientHabitService) Get(id uint) (*db.ClientHabit, error) {
	return findClientHabit(s.db.Preload("Habit"), id)
}

// Assign 为来访者分配习惯
func (s *ClientHabitService) Assign(clientID uint, input AssignInput) (*db.ClientHabit, error) {
	v := violations{}
	if input.HabitID == 0 {
		v["habit_id"] = "required"
	}
	label := strings.TrimSpace(input.CustomLabel)
	v.maxLen("custom_label", label, maxCustomLabelLength)
	if err := v.err("invalid habit assignment"); err != nil {
		return nil, err
	}
	if input.Order != nil && *input.Order < 0 {
		return nil, ErrInvalidDisplayOrder
	}

	var created *db.ClientHabit
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := findClient(tx, clientID); err != nil {
			return err
		}
		habit, err := findHabit(tx, input.HabitID)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&db.ClientHabit{}).Where("client_id = ? AND habit_id = ?", clientID, habit.ID).Count(&existing).Error; err != nil {
			return fmt.Errorf("check assignment: %w", err)
		}
		if existing > 0 {
			return ErrHabitAlreadyAssigned
		}
		if err := ensureOrderFree(tx, clientID, input.Order, 0); err != nil {
			return err
		}

		clientHabit := db.ClientHabit{
			ClientID:     clientID,
			HabitID:      habit.ID,
			CustomLabel:  label,
			DisplayOrder: input.Order,
		}
		if err := tx.Omit(clause.Associations).Create(&clientHabit).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrHabitAlreadyAssigned
			}
			return fmt.Errorf("assign habit: %w", err)
		}
		clientHabit.Habit = *habit
		created = &clientHabit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update 修改自定义标签与显示顺序
func (s *ClientHabitService) Update(id uint, input ClientHabitUpdate) (*db.ClientHabit, error) {
	if input.OrderSet && input.Order != nil && *input.Order < 0 {
		return nil, ErrInvalidDisplayOrder
	}

	var updated *db.ClientHabit
	err := s.db.Transaction(func(tx *gorm.DB) error {
		clientHabit, err := findClientHabit(tx.Preload("Habit"), id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if input.CustomLabel != nil {
			label := strings.TrimSpace(*input.CustomLabel)
			v := violations{}
			v.maxLen("custom_label", label, maxCustomLabelLength)
			if err := v.err("invalid habit assignment"); err != nil {
				return err
			}
			updates["custom_label"] = label
			clientHabit.CustomLabel = label
		}
		if input.OrderSet {
			if err := ensureOrderFree(tx, clientHabit.ClientID, input.Order, clientHabit.ID); err != nil {
				return err
			}
			updates["display_order"] = input.Order
			clientHabit.DisplayOrder = input.Order
		}
		if len(updates) == 0 {
			updated = clientHabit
			return nil
		}

		if err := tx.Model(&db.ClientHabit{}).Where("id = ?", clientHabit.ID).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDisplayOrderTaken
			}
			return fmt.Errorf("update client habit: %w", err)
		}
		updated = clientHabit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Unassign 取消分配：没有任何打分时物理删除，否则连同打分软删除并重算受影响的评估
func (s *ClientHabitService) Unassign(id uint) error {
	cascaded := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		clientHabit, err := findClientHabit(tx, id)
		if err != nil {
			return err
		}

		var scores int64
		if err := tx.Unscoped().Model(&db.HabitScore{}).Where("client_habit_id = ?", clientHabit.ID).Count(&scores).Error; err != nil {
			return fmt.Errorf("count habit scores: %w", err)
		}
		if scores == 0 {
			if err := tx.Unscoped().Delete(&db.ClientHabit{}, clientHabit.ID).Error; err != nil {
				return fmt.Errorf("delete client habit: %w", err)
			}
			return nil
		}

		if _, err := wellbeing.SoftDeleteClientHabit(tx, clientHabit); err != nil {
			return err
		}
		cascaded = true
		return nil
	})
	if err != nil {
		return err
	}
	if cascaded {
		s.metrics.Cascade("client_habit")
	}
	return nil
}

// ScoreHistory 返回某个习惯分配在各周的有效打分，按周起始日升序
func (s *ClientHabitService) ScoreHistory(id uint) ([]db.HabitScore, error) {
	clientHabit, err := findClientHabit(s.db, id)
	if err != nil {
		return nil, err
	}

	var scores []db.HabitScore
	if err := s.db.Model(&db.HabitScore{}).
		Preload("ClientHabit.Habit").
		Joins("JOIN weekly_assessments ON weekly_assessments.id = habit_scores.assessment_id AND weekly_assessments.deleted_at IS NULL").
		Where("habit_scores.client_habit_id = ?", clientHabit.ID).
		Order("weekly_assessments.week_start_date ASC, habit_scores.id ASC").
		Find(&scores).Error; err != nil {
		return nil, fmt.Errorf("list habit score history: %w", err)
	}
	return scores, nil
}

func ensureOrderFree(tx *gorm.DB, clientID uint, order *int, selfID uint) error {
	if order == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&db.ClientHabit{}).
		Where("client_id = ? AND display_order = ? AND id <> ?", clientID, *order, selfID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check display order: %w", err)
	}
	if count > 0 {
		return ErrDisplayOrderTaken
	}
	return nil
}

func findClientHabit(tx *gorm.DB, id uint) (*db.ClientHabit, error) {
	var clientHabit db.ClientHabit
	if err := tx.First(&clientHabit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientHabitNotFound
		}
		return nil, fmt.Errorf("get client habit: %w", err)
	}
	return &clientHabit, nil
}
