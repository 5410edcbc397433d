package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/resiliencetracker/internal/apperr"
	"go.uber.org/zap"
)

const dateFormat = "2006-01-02"

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindConflict:     http.StatusConflict,
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindForbidden:    http.StatusForbidden,
	apperr.KindUnauthorized: http.StatusUnauthorized,
}

// errorBody 与所有错误响应共用一个结构：{"error":{"code","message","fields"}}
func errorBody(code, message string, fields map[string]string) gin.H {
	body := gin.H{"code": code, "message": message}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	return gin.H{"error": body}
}

// respondError 将服务层错误映射为 HTTP 状态码，未分类的错误记录日志并返回 500
func (a *API) respondError(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		status, known := statusByKind[appErr.Kind]
		if known {
			c.AbortWithStatusJSON(status, errorBody(string(appErr.Kind), appErr.Message, appErr.Fields))
			return
		}
	}

	a.logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", "internal server error", nil))
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody(string(apperr.KindValidation), "invalid JSON body", nil))
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, bool) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody(string(apperr.KindNotFound), fmt.Sprintf("invalid %s", key), nil))
		return 0, false
	}
	return uint(id), true
}

// parseDate 解析 YYYY-MM-DD，空字符串返回 nil
func parseDate(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateFormat, raw)
	if err != nil {
		return nil, apperr.Validation(
			fmt.Sprintf("invalid '%s' date, use YYYY-MM-DD", field),
			map[string]string{field: "invalid_date"},
		)
	}
	return &parsed, nil
}
