package handler

import (
	"github.com/resiliencetracker/internal/auth"
	"github.com/resiliencetracker/internal/metrics"
	"github.com/resiliencetracker/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	users        *service.UserService
	habits       *service.HabitService
	clientHabits *service.ClientHabitService
	assessments  *service.AssessmentService
	scores       *service.ScoreService
	insights     *service.InsightService
	tokens       *auth.TokenIssuer
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// NewAPI constructs a handler set with shared services.
// logger 与 m 允许为 nil
func NewAPI(gdb *gorm.DB, tokens *auth.TokenIssuer, logger *zap.Logger, m *metrics.Metrics) *API {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &API{
		db:           gdb,
		users:        service.NewUserService(gdb, m),
		habits:       service.NewHabitService(gdb),
		clientHabits: service.NewClientHabitService(gdb, m),
		assessments:  service.NewAssessmentService(gdb, m),
		scores:       service.NewScoreService(gdb, m),
		insights:     service.NewInsightService(gdb),
		tokens:       tokens,
		logger:       logger,
		metrics:      m,
	}
}
