package app

import (
	"medqcm_backend/docs"
	"medqcm_backend/internal/middleware"

	"medqcm_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(a.Cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
	}

	a.registerAdminRoutes(router, c, repos)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/signup", c.auth.Signup)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	// account
	rg.GET("/user/me", c.auth.GetMe)
	rg.PUT("/user/me", c.auth.UpdateMe)
	rg.POST("/user/password", c.auth.ChangePassword)
	rg.POST("/user/activate", c.auth.Activate)

	// catalog
	rg.GET("/modules/my", c.content.MyModules)
	rg.GET("/qcm", c.content.Questions)

	// quiz sessions
	rg.POST("/sessions", c.session.Start)
	rg.GET("/sessions/active", c.session.Active)
	rg.GET("/sessions/mine", c.session.ListMine)
	rg.GET("/sessions/:id/answers", c.session.AnsweredQuestions)
	rg.POST("/sessions/answer", c.session.Answer)
	rg.POST("/sessions/finish", c.session.Finish)

	// progress
	rg.GET("/progress/mine", c.progress.MyProgress)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(a.Cfg), middleware.ActivityMiddleware(repos.user), middleware.AdminMiddleware())
	{
		admin.GET("/users", c.admin.ListUsers)
		admin.POST("/users", c.admin.CreateUser)
		admin.GET("/users/:id", c.admin.UserDetail)
		admin.PATCH("/users/:id/status", c.admin.SetUserStatus)
		admin.POST("/users/promote", c.admin.PromoteUser)

		admin.GET("/modules", c.admin.ListModules)
		admin.POST("/modules", c.admin.CreateModule)
		admin.DELETE("/modules/:id", c.admin.DeleteModule)

		admin.GET("/qcm", c.admin.ListQuestions)
		admin.POST("/qcm", c.admin.CreateQuestion)
		admin.PUT("/qcm/:id", c.admin.UpdateQuestion)
		admin.DELETE("/qcm/:id", c.admin.DeleteQuestion)
		admin.POST("/qcm/import", c.admin.ImportQuestions)
	}
}
