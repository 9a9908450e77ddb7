package app

import (
	"lingua_edu_backend/docs"
	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/middleware"
	"lingua_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.GetProfile)

		// 测评
		authGroup.POST("/assessments", c.assessment.Start)
		authGroup.GET("/assessments/latest", c.assessment.Latest)
		authGroup.POST("/assessments/:id/placement", c.assessment.SubmitPlacement)
		authGroup.POST("/assessments/:id/diagnostic", c.assessment.SubmitDiagnostic)

		// 等级与画像
		authGroup.GET("/levels/current", c.level.Current)
		authGroup.GET("/levels/history", c.level.History)
		authGroup.GET("/profiles/latest", c.level.LatestProfile)
		authGroup.GET("/profiles/history", c.level.ProfileHistory)
		authGroup.POST("/profiles/recompute", c.level.Recompute)

		// 间隔复习
		authGroup.POST("/review/items", c.review.CreateItem)
		authGroup.GET("/review/items", c.review.ListItems)
		authGroup.GET("/review/due", c.review.Due)
		authGroup.POST("/review/items/:id/review", c.review.SubmitReview)

		// 母语干扰
		authGroup.POST("/interference/analyze", c.interference.Analyze)
		authGroup.GET("/interference", c.interference.Summary)
		authGroup.POST("/interference/:id/overcome", c.interference.MarkOvercome)

		// 学习样本
		authGroup.POST("/samples/speaking", c.sample.UploadSpeaking)
		authGroup.GET("/samples/speaking", c.sample.ListSpeaking)
	}
}
