// Package logging builds the zap logger shared by the server, the HTTP
// middleware and gorm.
package logging

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

var connCredentials = regexp.MustCompile(`://[^:/@\s]+:[^@\s]+@`)

// New 生产环境输出 JSON，其余环境使用带颜色的开发格式
func New(env string) (*zap.Logger, error) {
	if strings.EqualFold(strings.TrimSpace(env), "production") {
		return zap.NewProduction()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

// RedactDSN hides credentials in a database URL before it is logged.
func RedactDSN(dsn string) string {
	return connCredentials.ReplaceAllString(dsn, "://"+redacted+"@")
}
