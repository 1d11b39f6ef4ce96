package router

import (
	"net/http"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("spotlight_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/api/auth/login", api.Login)
	r.POST("/api/auth/logout", api.Logout)

	// 需要登录的路由
	auth := r.Group("/api")
	auth.Use(handler.AuthRequired())
	{
		auth.GET("/auth/me", api.Me)
		auth.GET("/form", api.FormConfig)

		auth.GET("/publications", api.ListPublications)
		auth.GET("/publications/active", api.ActivePublication)
		auth.GET("/publications/upcoming", api.UpcomingPublications)
		auth.GET("/publications/published", api.PublishedPublications)
		auth.GET("/publications/:id", api.GetPublication)

		auth.POST("/submissions", api.CreateSubmission)
		auth.GET("/submissions", api.ListMySubmissions)
		auth.GET("/submissions/:id", api.GetSubmission)
		auth.PUT("/submissions/:id", api.UpdateSubmission)
		auth.POST("/submissions/:id/submit", api.SubmitSubmission)

		auth.POST("/submissions/:id/suggestions", api.GenerateSuggestion)
		auth.GET("/submissions/:id/suggestions", api.ListSuggestions)
		auth.POST("/submissions/:id/suggestions/:suggestionId/accept", api.AcceptSuggestion)

		// 审核人专属路由
		approver := auth.Group("/approver")
		approver.Use(handler.ApproverRequired())
		{
			approver.GET("/publications/:id/submissions", api.ListPublicationSubmissions)
			approver.POST("/submissions/:id/review", api.ReviewSubmission)

			approver.POST("/publications/cycles", api.GenerateCycles)
			approver.POST("/publications/:id/close", api.ClosePublication)
			approver.POST("/publications/:id/publish", api.PublishPublication)

			approver.GET("/settings", api.GetSystemSettings)
			approver.PUT("/settings", api.UpdateSystemSettings)
			approver.POST("/settings/test-ai", api.TestAIConnection)
			approver.POST("/settings/test-email", api.SendTestEmail)
		}
	}

	return r
}
