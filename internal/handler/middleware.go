package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/resiliencetracker/internal/apperr"
	"github.com/resiliencetracker/internal/auth"
	"github.com/resiliencetracker/internal/service"
	"go.uber.org/zap"
)

const (
	principalKey    = "principal"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

var (
	// ErrMissingToken 在请求未携带 Bearer 令牌时返回
	ErrMissingToken = apperr.Unauthorized("missing bearer token")
	// ErrForbidden 在调用者无权访问目标来访者的数据时返回
	ErrForbidden = apperr.Forbidden("forbidden")
	// ErrCounsellorOnly 在非咨询师调用咨询师接口时返回
	ErrCounsellorOnly = apperr.Forbidden("counsellor role required")
)

// RequestLogger 为每个请求分配 X-Request-ID 并在结束后记录一条日志
func (a *API) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if principal, ok := c.Get(principalKey); ok {
			fields = append(fields, zap.Uint("user_id", principal.(auth.Principal).UserID))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			a.logger.Error("request", fields...)
		case status >= 400:
			a.logger.Warn("request", fields...)
		default:
			a.logger.Info("request", fields...)
		}
	}
}

// ObserveRequests 按路由模板记录请求数与耗时
func (a *API) ObserveRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.metrics.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// AuthRequired 校验 Bearer 令牌并确认账号仍然有效
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			a.respondError(c, ErrMissingToken)
			return
		}

		principal, err := a.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			a.respondError(c, err)
			return
		}

		// 已删除的账号不能继续使用旧令牌
		user, err := a.users.GetUser(principal.UserID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				a.respondError(c, auth.ErrInvalidToken)
				return
			}
			a.respondError(c, err)
			return
		}
		principal.Role = user.Role

		c.Set(principalKey, principal)
		c.Next()
	}
}

// CounsellorOnly 必须放在 AuthRequired 之后
func (a *API) CounsellorOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principalFrom(c).IsCounsellor() {
			a.respondError(c, ErrCounsellorOnly)
			return
		}
		c.Next()
	}
}

func principalFrom(c *gin.Context) auth.Principal {
	if value, ok := c.Get(principalKey); ok {
		if principal, ok := value.(auth.Principal); ok {
			return principal
		}
	}
	return auth.Principal{}
}

// authorizeClient 在调用者既不是咨询师也不是该来访者本人时返回 403
func (a *API) authorizeClient(c *gin.Context, clientID uint) bool {
	if !auth.CanAccessClient(principalFrom(c), clientID) {
		a.respondError(c, ErrForbidden)
		return false
	}
	return true
}
