package router

import (
	"github.com/gin-gonic/gin"
	"github.com/resiliencetracker/internal/handler"
	"github.com/resiliencetracker/internal/metrics"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(), api.ObserveRequests())

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	public := r.Group("/api")
	{
		public.GET("/health", api.Health)
		public.POST("/register", api.Register)
		public.POST("/login", api.Login)
	}

	// 需要认证的路由
	authed := r.Group("/api")
	authed.Use(api.AuthRequired())
	{
		authed.GET("/me", api.Me)

		authed.GET("/habits", api.ListHabits)
		authed.GET("/habits/:id", api.GetHabit)

		authed.GET("/clients/:id", api.GetClient)
		authed.PUT("/clients/:id", api.UpdateClient)
		authed.GET("/clients/:id/habits", api.ListClientHabits)
		authed.GET("/clients/:id/assessments", api.ListAssessments)
		authed.POST("/clients/:id/assessments", api.CreateAssessment)
		authed.GET("/clients/:id/insights/latest", api.LatestInsight)

		authed.GET("/assessments/:id", api.GetAssessment)
		authed.PUT("/assessments/:id", api.UpdateAssessment)
		authed.DELETE("/assessments/:id", api.DeleteAssessment)
		authed.GET("/assessments/:id/scores", api.ListScores)
		authed.POST("/assessments/:id/scores", api.CreateScore)

		authed.PUT("/scores/:id", api.UpdateScore)
		authed.DELETE("/scores/:id", api.DeleteScore)

		authed.PUT("/client-habits/:id", api.UpdateClientHabit)
		authed.DELETE("/client-habits/:id", api.UnassignHabit)
		authed.GET("/client-habits/:id/scores", api.ClientHabitScores)
	}

	// 咨询师专用
	counsellor := authed.Group("")
	counsellor.Use(api.CounsellorOnly())
	{
		counsellor.GET("/clients", api.ListClients)
		counsellor.POST("/clients", api.CreateClient)
		counsellor.DELETE("/clients/:id", api.DeleteClient)
		counsellor.POST("/clients/:id/habits", api.AssignHabit)

		counsellor.POST("/habits", api.CreateHabit)
		counsellor.PUT("/habits/:id", api.UpdateHabit)
		counsellor.DELETE("/habits/:id", api.DeleteHabit)
	}

	return r
}
