package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/resiliencetracker/internal/apperr"
	"github.com/resiliencetracker/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = apperr.NotFound("habit not found")
	// ErrHabitNameTaken 在习惯名称重复时返回
	ErrHabitNameTaken = apperr.Conflict("a habit with that name already exists")
	// ErrHabitInUse 在习惯仍被来访者引用时阻止删除
	ErrHabitInUse = apperr.Conflict("cannot delete habit assigned to clients")
)

const (
	maxHabitNameLength        = 100
	maxHabitDescriptionLength = 255
)

// HabitService 负责习惯目录的增删改查
// 名称全局唯一；只要存在 ClientHabit 引用（包括已删除的分配）就禁止删除
type HabitService struct {
	db *gorm.DB
}

// HabitFilter 描述列表过滤条件
type HabitFilter struct {
	Search string
}

// HabitInput 定义创建习惯时的字段
type HabitInput struct {
	Name        string
	Description string
}

// HabitUpdate 描述局部修改；Name 为 nil 或空白时保持不变
type HabitUpdate struct {
	Name        *string
	Description *string
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// List 按名称升序返回习惯目录
func (s *HabitService) List(filter HabitFilter) ([]db.Habit, error) {
	var habits []db.Habit

	query := s.db.Model(&db.Habit{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := fmt.Sprintf("%%%s%%", search)
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	if err := query.Order("name ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id uint) (*db.Habit, error) {
	return findHabit(s.db, id)
}

// Create 新建习惯
func (s *HabitService) Create(input HabitInput) (*db.Habit, error) {
	habit := db.Habit{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
	}
	if err := validateHabit(habit); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureHabitNameFree(tx, habit.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(&habit).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrHabitNameTaken
			}
			return fmt.Errorf("create habit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

// Update 更新习惯
func (s *HabitService) Update(id uint, input HabitUpdate) (*db.Habit, error) {
	var updated *db.Habit
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := findHabit(tx, id)
		if err != nil {
			return err
		}

		if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
			existing.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			existing.Description = strings.TrimSpace(*input.Description)
		}
		if err := validateHabit(*existing); err != nil {
			return err
		}
		if err := ensureHabitNameFree(tx, existing.Name, existing.ID); err != nil {
			return err
		}

		if err := tx.Save(existing).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrHabitNameTaken
			}
			return fmt.Errorf("update habit: %w", err)
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete 物理删除未被任何来访者引用的习惯
func (s *HabitService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		habit, err := findHabit(tx, id)
		if err != nil {
			return err
		}

		var refs int64
		if err := tx.Unscoped().Model(&db.ClientHabit{}).Where("habit_id = ?", habit.ID).Count(&refs).Error; err != nil {
			return fmt.Errorf("count habit assignments: %w", err)
		}
		if refs > 0 {
			return ErrHabitInUse
		}

		if err := tx.Unscoped().Delete(habit).Error; err != nil {
			return fmt.Errorf("delete habit: %w", err)
		}
		return nil
	})
}

func validateHabit(habit db.Habit) error {
	v := violations{}
	v.required("name", habit.Name)
	v.maxLen("name", habit.Name, maxHabitNameLength)
	v.maxLen("description", habit.Description, maxHabitDescriptionLength)
	return v.err("invalid habit")
}

func ensureHabitNameFree(tx *gorm.DB, name string, selfID uint) error {
	var count int64
	if err := tx.Unscoped().Model(&db.Habit{}).Where("name = ? AND id <> ?", name, selfID).Count(&count).Error; err != nil {
		return fmt.Errorf("check habit name: %w", err)
	}
	if count > 0 {
		return ErrHabitNameTaken
	}
	return nil
}

func findHabit(tx *gorm.DB, id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := tx.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}
