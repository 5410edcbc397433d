package service

import (
	"strconv"
	"strings"

	"github.com/resiliencetracker/internal/apperr"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 25
	MaxPageLimit     = 100
)

// ErrInvalidPagination 在 limit 不是正整数或 offset 为负时返回
var ErrInvalidPagination = apperr.Validation("invalid pagination parameters", map[string]string{"limit": "positive_integer", "offset": "non_negative_integer"})

// Page 描述列表分页
type Page struct {
	Limit  int
	Offset int
}

// ParsePage 解析查询参数中的 limit 与 offset，空值使用默认值，limit 超过上限时截断
func ParsePage(rawLimit, rawOffset string) (Page, error) {
	page := Page{Limit: DefaultPageLimit}

	if raw := strings.TrimSpace(rawLimit); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return Page{}, ErrInvalidPagination
		}
		page.Limit = limit
	}
	if page.Limit > MaxPageLimit {
		page.Limit = MaxPageLimit
	}

	if raw := strings.TrimSpace(rawOffset); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return Page{}, ErrInvalidPagination
		}
		page.Offset = offset
	}

	return page, nil
}

func (p Page) apply(query *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return query.Limit(limit).Offset(p.Offset)
}
