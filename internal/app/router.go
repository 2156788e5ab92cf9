package app

import (
	"learnhub_backend/docs"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.NoRoute(util.NotFound)

	// 1. 公共路由(可选登录)
	a.registerPublicRoutes(router, c, cfg)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(a.Store.Users))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerInstructorRoutes(authGroup, c)
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		// 课程目录与详情：游客只能看到已发布课程，讲师登录后可看自己的草稿
		public.GET("/courses", c.course.ListCatalog)
		public.GET("/courses/:id", middleware.TryAuthMiddleware(cfg), c.course.GetCourse)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/courses/:id/enroll", c.enrollment.Enroll)
	rg.PUT("/courses/:id/progress", c.enrollment.UpdateProgress)
	rg.GET("/enrollments/my", c.enrollment.ListMyEnrollments)
	rg.POST("/enrollments/:id/cancel", c.enrollment.CancelEnrollment)

	rg.GET("/quizzes/:id", c.curriculum.GetQuiz)
	rg.POST("/quizzes/:id/attempts", c.curriculum.SubmitQuizAttempt)
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	instructor := rg.Group("/instructor")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		// 课程创建三步流程
		instructor.POST("/courses", c.course.CreateCourse)
		instructor.PUT("/courses/:id/basics", c.course.UpdateCourseBasics)
		instructor.POST("/courses/:id/media", c.course.UploadCourseMedia)
		instructor.POST("/courses/:id/publish", c.course.PublishCourse)

		instructor.GET("/courses", c.course.ListMyCourses)
		instructor.POST("/courses/:id/archive", c.course.ArchiveCourse)
		instructor.DELETE("/courses/:id", c.course.DeleteCourse)
		instructor.POST("/courses/:id/enrollments", c.enrollment.ManualEnroll)

		instructor.PUT("/quizzes/:id", c.curriculum.UpdateQuiz)
		instructor.POST("/modules/:id/summaries", c.curriculum.CreateSummary)
		instructor.PUT("/summaries/:id", c.curriculum.UpdateSummary)
		instructor.DELETE("/summaries/:id", c.curriculum.DeleteSummary)
	}
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/integrity", c.integrity.ScanIntegrity)
		admin.POST("/integrity/purge", c.integrity.PurgeOrphans)
	}
}
