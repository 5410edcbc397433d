package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/service"
	"github.com/shopspring/decimal"
)

type scoreRequest struct {
	ClientHabitID uint             `json:"client_habit_id"`
	Score         *decimal.Decimal `json:"score"`
	Note          string           `json:"note"`
}

type scoreUpdateRequest struct {
	Score *decimal.Decimal `json:"score"`
	Note  *string          `json:"note"`
}

// ListScores 列出评估中的有效打分
func (a *API) ListScores(c *gin.Context) {
	assessment, ok := a.loadAssessment(c)
	if !ok {
		return
	}

	scores, err := a.scores.ListForAssessment(assessment.ID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listJSON(scores, scoreJSON))
}

// CreateScore 新增打分并重算 wellbeing_score
func (a *API) CreateScore(c *gin.Context) {
	assessment, ok := a.loadAssessment(c)
	if !ok {
		return
	}

	var req scoreRequest
	if !bindJSON(c, &req) {
		return
	}

	score, err := a.scores.Create(assessment.ID, service.ScoreInput{
		ClientHabitID: req.ClientHabitID,
		Score:         req.Score,
		Note:          cleanText(req.Note),
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scoreJSON(score))
}

// UpdateScore 修改分值或备注
func (a *API) UpdateScore(c *gin.Context) {
	score, ok := a.loadScore(c)
	if !ok {
		return
	}

	var req scoreUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := a.scores.Update(score.ID, service.ScoreUpdate{
		Score: req.Score,
		Note:  cleanTextPtr(req.Note),
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scoreJSON(updated))
}

// DeleteScore 软删除打分
func (a *API) DeleteScore(c *gin.Context) {
	score, ok := a.loadScore(c)
	if !ok {
		return
	}

	if err := a.scores.Delete(score.ID); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Score deleted."})
}

func (a *API) loadScore(c *gin.Context) (*db.HabitScore, bool) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return nil, false
	}

	score, err := a.scores.Get(id)
	if err != nil {
		a.respondError(c, err)
		return nil, false
	}
	if !a.authorizeClient(c, score.ClientHabit.ClientID) {
		return nil, false
	}
	return score, true
}
