package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/wellbeing"
)

func userJSON(user *db.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
		"role":       user.Role,
		"created_at": user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func habitJSON(habit *db.Habit) gin.H {
	return gin.H{
		"id":               habit.ID,
		"name":             habit.Name,
		"description":      habit.Description,
		"description_html": renderMarkdown(habit.Description),
	}
}

func habitSummaryJSON(habit *db.Habit) gin.H {
	return gin.H{
		"id":          habit.ID,
		"name":        habit.Name,
		"description": habit.Description,
	}
}

func clientHabitJSON(ch *db.ClientHabit) gin.H {
	var order interface{}
	if ch.DisplayOrder != nil {
		order = *ch.DisplayOrder
	}
	return gin.H{
		"id":           ch.ID,
		"client_id":    ch.ClientID,
		"habit_id":     ch.HabitID,
		"custom_label": ch.CustomLabel,
		"order":        order,
		"habit":        habitSummaryJSON(&ch.Habit),
	}
}

func scoreJSON(score *db.HabitScore) gin.H {
	payload := gin.H{
		"id":              score.ID,
		"assessment_id":   score.AssessmentID,
		"client_habit_id": score.ClientHabitID,
		"score":           score.Score.InexactFloat64(),
		"note":            score.Note,
		"created_at":      score.CreatedAt.UTC().Format(time.RFC3339),
	}
	if score.ClientHabit.ID != 0 {
		payload["client_habit"] = gin.H{
			"id":           score.ClientHabit.ID,
			"custom_label": score.ClientHabit.CustomLabel,
			"habit":        habitSummaryJSON(&score.ClientHabit.Habit),
		}
	}
	return payload
}

func assessmentJSON(assessment *db.WeeklyAssessment) gin.H {
	return gin.H{
		"id":              assessment.ID,
		"client_id":       assessment.ClientID,
		"week_start_date": assessment.WeekStartDate.Format(dateFormat),
		"wellbeing_score": assessment.WellbeingScore.InexactFloat64(),
		"overall_comment": assessment.OverallComment,
		"submitted_at":    assessment.SubmittedAt.UTC().Format(time.RFC3339),
		"scores":          listJSON(assessment.Scores, scoreJSON),
	}
}

func trendJSON(trend *wellbeing.Trend) gin.H {
	var delta interface{}
	if trend.Delta != nil {
		delta = trend.Delta.InexactFloat64()
	}
	return gin.H{
		"latest_score": trend.LatestScore.InexactFloat64(),
		"delta":        delta,
	}
}

func listJSON[T any](items []T, render func(*T) gin.H) []gin.H {
	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, render(&items[i]))
	}
	return out
}
