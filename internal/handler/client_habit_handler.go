package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/service"
)

type assignRequest struct {
	HabitID     uint   `json:"habit_id"`
	CustomLabel string `json:"custom_label"`
	Order       *int   `json:"order"`
}

// optionalInt 区分字段缺失与显式 null
type optionalInt struct {
	Set   bool
	Value *int
}

func (o *optionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

type clientHabitUpdateRequest struct {
	CustomLabel *string     `json:"custom_label"`
	Order       optionalInt `json:"order"`
}

// ListClientHabits 列出来访者当前分配的习惯
func (a *API) ListClientHabits(c *gin.Context) {
	clientID, ok := parseUintParam(c, "id")
	if !ok || !a.authorizeClient(c, clientID) {
		return
	}

	list, err := a.clientHabits.ListForClient(clientID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listJSON(list, clientHabitJSON))
}

// AssignHabit 为来访者分配习惯
func (a *API) AssignHabit(c *gin.Context) {
	clientID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req assignRequest
	if !bindJSON(c, &req) {
		return
	}

	assigned, err := a.clientHabits.Assign(clientID, service.AssignInput{
		HabitID:     req.HabitID,
		CustomLabel: cleanText(req.CustomLabel),
		Order:       req.Order,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, clientHabitJSON(assigned))
}

// UpdateClientHabit 修改自定义标签或显示顺序，order 为 null 时清除顺序
func (a *API) UpdateClientHabit(c *gin.Context) {
	ch, ok := a.loadClientHabit(c)
	if !ok {
		return
	}

	var req clientHabitUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := a.clientHabits.Update(ch.ID, service.ClientHabitUpdate{
		CustomLabel: cleanTextPtr(req.CustomLabel),
		OrderSet:    req.Order.Set,
		Order:       req.Order.Value,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clientHabitJSON(updated))
}

// UnassignHabit 取消分配，已有打分时级联软删除并重算相关评估
func (a *API) UnassignHabit(c *gin.Context) {
	ch, ok := a.loadClientHabit(c)
	if !ok {
		return
	}

	if err := a.clientHabits.Unassign(ch.ID); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client habit unassigned."})
}

// ClientHabitScores 返回该习惯在各周的有效打分，按周升序
func (a *API) ClientHabitScores(c *gin.Context) {
	ch, ok := a.loadClientHabit(c)
	if !ok {
		return
	}

	history, err := a.clientHabits.ScoreHistory(ch.ID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listJSON(history, scoreJSON))
}

func (a *API) loadClientHabit(c *gin.Context) (*db.ClientHabit, bool) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return nil, false
	}

	ch, err := a.clientHabits.Get(id)
	if err != nil {
		a.respondError(c, err)
		return nil, false
	}
	if !a.authorizeClient(c, ch.ClientID) {
		return nil, false
	}
	return ch, true
}
