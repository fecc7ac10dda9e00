package api

import "github.com/gin-gonic/gin"

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/options", h.GetOptions)
		apiV1.GET("/clients", h.SearchClients)

		reports := apiV1.Group("/reports")
		{
			reports.POST("/extract", h.ExtractReport)
			reports.GET("/:id", h.GetReport)
			reports.POST("/:id/submit", h.SubmitReport)
		}
	}

	return r
}
