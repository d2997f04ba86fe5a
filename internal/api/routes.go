package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers every endpoint at the root and again under /api,
// the prefix the frontend proxies through.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.Health)

	registerRoutes(router.Group("/"), handler)
	registerRoutes(router.Group("/api"), handler)
}

func registerRoutes(group *gin.RouterGroup, handler *Handler) {
	group.POST("/analyze/", handler.Analyze)
	group.POST("/upload/", handler.Upload)
	group.GET("/download/", handler.Download)
	group.GET("/locations/", handler.Locations)

	records := group.Group("/records")
	{
		records.GET("/", handler.ListRecords)
		records.POST("/", handler.CreateRecord)
		records.GET("/:id", handler.GetRecord)
		records.PUT("/:id", handler.UpdateRecord)
	}
}
