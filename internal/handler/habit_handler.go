package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resiliencetracker/internal/service"
)

type habitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type habitUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ListHabits 返回习惯目录，支持 search 过滤
func (a *API) ListHabits(c *gin.Context) {
	habits, err := a.habits.List(service.HabitFilter{Search: c.Query("search")})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listJSON(habits, habitJSON))
}

// GetHabit 获取单个习惯
func (a *API) GetHabit(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	habit, err := a.habits.Get(id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, habitJSON(habit))
}

// CreateHabit 新增习惯
func (a *API) CreateHabit(c *gin.Context) {
	var req habitRequest
	if !bindJSON(c, &req) {
		return
	}

	habit, err := a.habits.Create(service.HabitInput{
		Name:        cleanText(req.Name),
		Description: cleanText(req.Description),
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, habitJSON(habit))
}

// UpdateHabit 更新习惯
func (a *API) UpdateHabit(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req habitUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	habit, err := a.habits.Update(id, service.HabitUpdate{
		Name:        cleanTextPtr(req.Name),
		Description: cleanTextPtr(req.Description),
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, habitJSON(habit))
}

// DeleteHabit 删除未被分配过的习惯
func (a *API) DeleteHabit(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := a.habits.Delete(id); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Habit deleted."})
}
