package wellbeing

import (
	"errors"
	"fmt"

	"github.com/resiliencetracker/internal/apperr"
	"github.com/resiliencetracker/internal/db"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrScoreOutOfRange 在分值不在 0-10 之间时返回
	ErrScoreOutOfRange = apperr.Validation("score must be between 0 and 10", map[string]string{"score": "must be between 0 and 10"})
	// ErrHabitNotAssigned 在 client habit 不属于评估所有者时返回
	ErrHabitNotAssigned = apperr.Validation("habit is not assigned to this client", map[string]string{"client_habit_id": "not assigned to the assessment owner"})
	// ErrScoreLimitReached 在本周该习惯的有效打分已达上限时返回
	ErrScoreLimitReached = apperr.Conflict(fmt.Sprintf("limit exceeded: at most %d scores per habit per week", WeeklyScoreLimit))
	// ErrAssessmentNotFound 在评估不存在或已删除时返回
	ErrAssessmentNotFound = apperr.NotFound("assessment not found")
)

// LockAssessment 以 SELECT ... FOR UPDATE 读取有效评估，同一评估上的打分变更因此串行执行
func LockAssessment(tx *gorm.DB, id uint) (*db.WeeklyAssessment, error) {
	var assessment db.WeeklyAssessment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&assessment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("lock assessment: %w", err)
	}
	return &assessment, nil
}

// Recompute 重新计算评估的 wellbeing_score 并写回，只更新这一列
func Recompute(tx *gorm.DB, assessment *db.WeeklyAssessment) (decimal.Decimal, error) {
	var scores []db.HabitScore
	if err := tx.Unscoped().Where("assessment_id = ?", assessment.ID).Find(&scores).Error; err != nil {
		return decimal.Zero, fmt.Errorf("load scores: %w", err)
	}

	mean := Mean(scores)
	if err := tx.Model(&db.WeeklyAssessment{}).
		Where("id = ?", assessment.ID).
		UpdateColumn("wellbeing_score", mean).Error; err != nil {
		return decimal.Zero, fmt.Errorf("update wellbeing score: %w", err)
	}

	assessment.WellbeingScore = mean
	return mean, nil
}

// CreateScore 校验并写入一条打分，随后重新计算评估均值
// 任何校验失败都不会写入数据
func CreateScore(tx *gorm.DB, assessment *db.WeeklyAssessment, clientHabit *db.ClientHabit, value decimal.Decimal, note string) (*db.HabitScore, error) {
	if !InRange(value) {
		return nil, ErrScoreOutOfRange
	}
	if clientHabit.ClientID != assessment.ClientID {
		return nil, ErrHabitNotAssigned
	}

	var live int64
	if err := tx.Model(&db.HabitScore{}).
		Where("assessment_id = ? AND client_habit_id = ?", assessment.ID, clientHabit.ID).
		Count(&live).Error; err != nil {
		return nil, fmt.Errorf("count scores: %w", err)
	}
	if live >= WeeklyScoreLimit {
		return nil, ErrScoreLimitReached
	}

	score := db.HabitScore{
		AssessmentID:  assessment.ID,
		ClientHabitID: clientHabit.ID,
		Score:         value.RoundBank(1),
		Note:          note,
	}
	if err := tx.Omit(clause.Associations).Create(&score).Error; err != nil {
		return nil, fmt.Errorf("create score: %w", err)
	}

	if _, err := Recompute(tx, assessment); err != nil {
		return nil, err
	}
	return &score, nil
}

// UpdateScore 修改分值和/或备注，nil 表示保持不变
func UpdateScore(tx *gorm.DB, score *db.HabitScore, value *decimal.Decimal, note *string) (*db.HabitScore, error) {
	updates := map[string]interface{}{}
	if value != nil {
		if !InRange(*value) {
			return nil, ErrScoreOutOfRange
		}
		updates["score"] = value.RoundBank(1)
	}
	if note != nil {
		updates["note"] = *note
	}

	assessment, err := owningAssessment(tx, score)
	if err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := tx.Model(&db.HabitScore{}).Where("id = ?", score.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update score: %w", err)
		}
		if value != nil {
			score.Score = value.RoundBank(1)
		}
		if note != nil {
			score.Note = *note
		}
	}

	if _, err := Recompute(tx, assessment); err != nil {
		return nil, err
	}
	return score, nil
}

// DeleteScore 软删除打分并重新计算评估均值，已删除的打分不再计入上限与均值
func DeleteScore(tx *gorm.DB, score *db.HabitScore) error {
	assessment, err := owningAssessment(tx, score)
	if err != nil {
		return err
	}

	now := tx.NowFunc()
	result := tx.Model(&db.HabitScore{}).Where("id = ?", score.ID).UpdateColumn("deleted_at", now)
	if result.Error != nil {
		return fmt.Errorf("delete score: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		score.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
	}

	_, err = Recompute(tx, assessment)
	return err
}

// owningAssessment 读取打分所属评估；打分存在而评估缺失属于数据缺陷
func owningAssessment(tx *gorm.DB, score *db.HabitScore) (*db.WeeklyAssessment, error) {
	var assessment db.WeeklyAssessment
	if err := tx.Unscoped().First(&assessment, score.AssessmentID).Error; err != nil {
		return nil, fmt.Errorf("load assessment %d for score %d: %w", score.AssessmentID, score.ID, err)
	}
	return &assessment, nil
}
