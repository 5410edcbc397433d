package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resiliencetracker/internal/service"
)

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register 创建新用户，未指定角色时为 client
func (a *API) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.users.Register(service.RegisterInput{
		FirstName: cleanText(req.FirstName),
		LastName:  cleanText(req.LastName),
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userJSON(user))
}

// Login 校验邮箱密码并签发访问令牌
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.users.Authenticate(req.Email, req.Password)
	if err != nil {
		a.respondError(c, err)
		return
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"user":         userJSON(user),
	})
}

// Me 返回当前令牌对应的用户
func (a *API) Me(c *gin.Context) {
	user, err := a.users.GetUser(principalFrom(c).UserID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userJSON(user))
}
