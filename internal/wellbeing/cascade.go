package wellbeing

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/resiliencetracker/internal/db"
	"gorm.io/gorm"
)

// SoftDeleteClient 用同一个时间戳软删除来访者及其全部下属数据：
// client habit 与其打分、每周评估与其打分。
// 两条路径可能到达同一条打分，先按 ID 去重再统一写入；
// 所有写入都带 deleted_at IS NULL 条件，重复调用不会改动已有时间戳。
func SoftDeleteClient(tx *gorm.DB, user *db.User) error {
	return tx.Transaction(func(tx *gorm.DB) error {
		now := tx.NowFunc()

		var clientHabitIDs []uint
		if err := tx.Unscoped().Model(&db.ClientHabit{}).Where("client_id = ?", user.ID).Pluck("id", &clientHabitIDs).Error; err != nil {
			return fmt.Errorf("collect client habits: %w", err)
		}

		var assessmentIDs []uint
		if err := tx.Unscoped().Model(&db.WeeklyAssessment{}).Where("client_id = ?", user.ID).Pluck("id", &assessmentIDs).Error; err != nil {
			return fmt.Errorf("collect assessments: %w", err)
		}

		scoreIDs := newIDSet()
		if len(clientHabitIDs) > 0 {
			var ids []uint
			if err := tx.Unscoped().Model(&db.HabitScore{}).Where("client_habit_id IN ?", clientHabitIDs).Pluck("id", &ids).Error; err != nil {
				return fmt.Errorf("collect habit scores: %w", err)
			}
			scoreIDs.add(ids...)
		}
		if len(assessmentIDs) > 0 {
			var ids []uint
			if err := tx.Unscoped().Model(&db.HabitScore{}).Where("assessment_id IN ?", assessmentIDs).Pluck("id", &ids).Error; err != nil {
				return fmt.Errorf("collect assessment scores: %w", err)
			}
			scoreIDs.add(ids...)
		}

		if err := tombstone(tx, &db.User{}, []uint{user.ID}, now); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if err := tombstone(tx, &db.ClientHabit{}, clientHabitIDs, now); err != nil {
			return fmt.Errorf("delete client habits: %w", err)
		}
		if err := tombstone(tx, &db.WeeklyAssessment{}, assessmentIDs, now); err != nil {
			return fmt.Errorf("delete assessments: %w", err)
		}
		if err := tombstone(tx, &db.HabitScore{}, scoreIDs.sorted(), now); err != nil {
			return fmt.Errorf("delete scores: %w", err)
		}

		if !user.DeletedAt.Valid {
			user.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
		}
		return nil
	})
}

// SoftDeleteAssessment 软删除评估及其打分，wellbeing_score 保留删除前的值
func SoftDeleteAssessment(tx *gorm.DB, assessment *db.WeeklyAssessment) error {
	return tx.Transaction(func(tx *gorm.DB) error {
		now := tx.NowFunc()

		var scoreIDs []uint
		if err := tx.Model(&db.HabitScore{}).Where("assessment_id = ?", assessment.ID).Pluck("id", &scoreIDs).Error; err != nil {
			return fmt.Errorf("collect assessment scores: %w", err)
		}
		if err := tombstone(tx, &db.HabitScore{}, scoreIDs, now); err != nil {
			return fmt.Errorf("delete scores: %w", err)
		}
		if err := tombstone(tx, &db.WeeklyAssessment{}, []uint{assessment.ID}, now); err != nil {
			return fmt.Errorf("delete assessment: %w", err)
		}

		if !assessment.DeletedAt.Valid {
			assessment.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
		}
		return nil
	})
}

// SoftDeleteClientHabit 软删除习惯分配及其打分，并重新计算受影响的有效评估。
// 返回受影响评估的 ID（升序）。
func SoftDeleteClientHabit(tx *gorm.DB, clientHabit *db.ClientHabit) ([]uint, error) {
	var affected []uint
	err := tx.Transaction(func(tx *gorm.DB) error {
		now := tx.NowFunc()

		var scores []db.HabitScore
		if err := tx.Where("client_habit_id = ?", clientHabit.ID).Find(&scores).Error; err != nil {
			return fmt.Errorf("collect habit scores: %w", err)
		}

		scoreIDs := make([]uint, 0, len(scores))
		assessments := newIDSet()
		for _, score := range scores {
			scoreIDs = append(scoreIDs, score.ID)
			assessments.add(score.AssessmentID)
		}
		affected = assessments.sorted()

		if err := tombstone(tx, &db.HabitScore{}, scoreIDs, now); err != nil {
			return fmt.Errorf("delete scores: %w", err)
		}
		if err := tombstone(tx, &db.ClientHabit{}, []uint{clientHabit.ID}, now); err != nil {
			return fmt.Errorf("delete client habit: %w", err)
		}

		for _, id := range affected {
			assessment, err := LockAssessment(tx, id)
			if errors.Is(err, ErrAssessmentNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if _, err := Recompute(tx, assessment); err != nil {
				return err
			}
		}

		if !clientHabit.DeletedAt.Valid {
			clientHabit.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// tombstone 为仍有效的行写入删除时间；gorm 的软删除作用域会追加 deleted_at IS NULL
func tombstone(tx *gorm.DB, model interface{}, ids []uint, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(model).Where("id IN ?", ids).UpdateColumn("deleted_at", now).Error
}

type idSet map[uint]struct{}

func newIDSet() idSet {
	return idSet{}
}

func (s idSet) add(ids ...uint) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s idSet) sorted() []uint {
	out := make([]uint, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
