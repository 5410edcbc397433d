package service

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/resiliencetracker/internal/apperr"
)

// fieldValidator 复用 gin 绑定所用的校验器
var fieldValidator = validator.New()

// violations 收集字段级校验错误，key 为 JSON 字段名
type violations map[string]string

func (v violations) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func (v violations) maxLen(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		v[field] = "too_long"
	}
}

func (v violations) email(field, value string) {
	if value == "" {
		return
	}
	if err := fieldValidator.Var(value, "email"); err != nil {
		v[field] = "invalid_email"
	}
}

func (v violations) err(message string) error {
	if len(v) == 0 {
		return nil
	}
	return apperr.Validation(message, v)
}
