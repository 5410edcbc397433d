package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/service"
)

type assessmentRequest struct {
	WeekStartDate  string `json:"week_start_date"`
	OverallComment string `json:"overall_comment"`
}

type assessmentUpdateRequest struct {
	OverallComment *string `json:"overall_comment"`
}

// ListAssessments 按周倒序列出评估，支持 from/to 与分页
func (a *API) ListAssessments(c *gin.Context) {
	clientID, ok := parseUintParam(c, "id")
	if !ok || !a.authorizeClient(c, clientID) {
		return
	}

	from, err := parseDate(c.Query("from"), "from")
	if err != nil {
		a.respondError(c, err)
		return
	}
	to, err := parseDate(c.Query("to"), "to")
	if err != nil {
		a.respondError(c, err)
		return
	}
	page, err := service.ParsePage(c.Query("limit"), c.Query("offset"))
	if err != nil {
		a.respondError(c, err)
		return
	}

	assessments, err := a.assessments.ListForClient(clientID, service.AssessmentFilter{From: from, To: to, Page: page})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listJSON(assessments, assessmentJSON))
}

// CreateAssessment 新建一周的评估
func (a *API) CreateAssessment(c *gin.Context) {
	clientID, ok := parseUintParam(c, "id")
	if !ok || !a.authorizeClient(c, clientID) {
		return
	}

	var req assessmentRequest
	if !bindJSON(c, &req) {
		return
	}

	week, err := parseDate(req.WeekStartDate, "week_start_date")
	if err != nil {
		a.respondError(c, err)
		return
	}
	input := service.AssessmentInput{Comment: cleanText(req.OverallComment)}
	if week != nil {
		input.WeekStartDate = *week
	}

	assessment, err := a.assessments.Create(clientID, input)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assessmentJSON(assessment))
}

// GetAssessment 获取评估及其有效打分
func (a *API) GetAssessment(c *gin.Context) {
	assessment, ok := a.loadAssessment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, assessmentJSON(assessment))
}

// UpdateAssessment 修改总体评语
func (a *API) UpdateAssessment(c *gin.Context) {
	assessment, ok := a.loadAssessment(c)
	if !ok {
		return
	}

	var req assessmentUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := a.assessments.UpdateComment(assessment.ID, cleanTextPtr(req.OverallComment))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessmentJSON(updated))
}

// DeleteAssessment 软删除评估及其打分
func (a *API) DeleteAssessment(c *gin.Context) {
	assessment, ok := a.loadAssessment(c)
	if !ok {
		return
	}

	if err := a.assessments.Delete(assessment.ID); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assessment deleted."})
}

func (a *API) loadAssessment(c *gin.Context) (*db.WeeklyAssessment, bool) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return nil, false
	}

	assessment, err := a.assessments.Get(id)
	if err != nil {
		a.respondError(c, err)
		return nil, false
	}
	if !a.authorizeClient(c, assessment.ClientID) {
		return nil, false
	}
	return assessment, true
}
