package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resiliencetracker/internal/service"
)

type clientRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type clientUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// ListClients 分页列出有效来访者
func (a *API) ListClients(c *gin.Context) {
	page, err := service.ParsePage(c.Query("limit"), c.Query("offset"))
	if err != nil {
		a.respondError(c, err)
		return
	}

	clients, err := a.users.ListClients(page)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listJSON(clients, userJSON))
}

// CreateClient 创建来访者，未提供密码时返回一次性生成的临时密码
func (a *API) CreateClient(c *gin.Context) {
	var req clientRequest
	if !bindJSON(c, &req) {
		return
	}

	user, generated, err := a.users.CreateClient(service.ClientInput{
		FirstName: cleanText(req.FirstName),
		LastName:  cleanText(req.LastName),
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}

	payload := userJSON(user)
	if generated != "" {
		payload["temporary_password"] = generated
	}
	c.JSON(http.StatusCreated, payload)
}

// GetClient 获取来访者资料
func (a *API) GetClient(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok || !a.authorizeClient(c, id) {
		return
	}

	user, err := a.users.GetClient(id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userJSON(user))
}

// UpdateClient 修改来访者姓名或邮箱
func (a *API) UpdateClient(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok || !a.authorizeClient(c, id) {
		return
	}

	var req clientUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.users.UpdateClient(id, service.ClientUpdate{
		FirstName: cleanTextPtr(req.FirstName),
		LastName:  cleanTextPtr(req.LastName),
		Email:     req.Email,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userJSON(user))
}

// DeleteClient 软删除来访者及其全部数据
func (a *API) DeleteClient(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := a.users.DeleteClient(id); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted."})
}
