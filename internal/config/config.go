package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "resilience-dev-secret"

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr   string `env:"LISTEN_ADDR"`
	Port         string `env:"PORT" env-default:"8080"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabasePath string `env:"DATABASE_PATH" env-default:"resilience.db"`
	GinMode      string `env:"GIN_MODE" env-default:"release"`
	Env          string `env:"APP_ENV" env-default:"development"`

	JWTSecret      string        `env:"JWT_SECRET_KEY" env-default:"resilience-dev-secret"`
	AccessTokenTTL time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"24h"`

	BootstrapCounsellorEmail    string `env:"BOOTSTRAP_COUNSELLOR_EMAIL"`
	BootstrapCounsellorPassword string `env:"BOOTSTRAP_COUNSELLOR_PASSWORD"`
	SeedDemoData                bool   `env:"SEED_DEMO_DATA" env-default:"false"`
}

// Load 读取可选的 .env 文件后从环境变量解析配置，并为缺失项提供默认值。
// 生产环境必须显式设置 JWT_SECRET_KEY。
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	var cfg AppConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("read environment: %w", err)
	}

	cfg.Port = strings.TrimSpace(cfg.Port)
	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))

	if cfg.AccessTokenTTL <= 0 {
		return AppConfig{}, errors.New("JWT_ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.IsProduction() && (cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret) {
		return AppConfig{}, errors.New("JWT_SECRET_KEY must be set in production")
	}

	return cfg, nil
}

// IsProduction 判断是否运行在生产环境
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}
