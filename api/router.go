package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fyerfyer/pdf-replacer/api/handler"
	"github.com/fyerfyer/pdf-replacer/api/middleware"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(
	fileHandler *handler.FileHandler,
	replaceHandler *handler.ReplaceHandler,
	jobHandler *handler.JobHandler,
	taskHandler *handler.TaskHandler,
) *gin.Engine {
	router := gin.Default()

	// 应用全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())

	// 在调试模式下记录请求体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	api := router.Group("/api")
	{
		// 文件管理API
		fileGroup := api.Group("/files")
		{
			// 上传文件 - POST /api/files
			fileGroup.POST("", fileHandler.UploadFile)

			// 获取文件列表 - GET /api/files
			fileGroup.GET("", fileHandler.ListFiles)

			// 删除文件 - DELETE /api/files/:id
			fileGroup.DELETE("/:id", fileHandler.DeleteFile)
		}

		// 单文档同步替换API
		api.POST("/replace", replaceHandler.Replace)

		// 批量替换任务API
		jobGroup := api.Group("/jobs")
		{
			// 创建任务 - POST /api/jobs
			jobGroup.POST("", jobHandler.CreateJob)

			// 获取任务状态 - GET /api/jobs/:id
			jobGroup.GET("/:id", jobHandler.GetJob)

			// 获取任务列表 - GET /api/jobs
			jobGroup.GET("", jobHandler.ListJobs)

			// 删除任务 - DELETE /api/jobs/:id
			jobGroup.DELETE("/:id", jobHandler.DeleteJob)

			// 生成任务报告 - GET /api/jobs/:id/report
			jobGroup.GET("/:id/report", jobHandler.GetJobReport)

			// 获取任务的队列任务列表 - GET /api/jobs/:id/tasks
			if taskHandler != nil {
				jobGroup.GET("/:id/tasks", taskHandler.GetJobTasks)
			}
		}

		// 队列任务API，仅在配置了任务队列时启用
		if taskHandler != nil {
			taskGroup := api.Group("/tasks")
			{
				// 获取队列任务状态 - GET /api/tasks/:id
				taskGroup.GET("/:id", taskHandler.GetTaskStatus)

				// 删除队列任务 - DELETE /api/tasks/:id
				taskGroup.DELETE("/:id", taskHandler.DeleteTask)
			}
		}

		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors 跨域资源共享中间件
// 如果需要支持跨域请求，可以启用此中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
