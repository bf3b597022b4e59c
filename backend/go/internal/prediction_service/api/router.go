package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all the routes for the prediction service.
func RegisterRoutes(router *gin.Engine, api *API) {
	// All routes will be under /api/v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/predictions/recent", api.RecentHandler)
		v1.GET("/recommend", api.RecommendHandler)
		v1.GET("/report", api.ReportHandler)
	}
}
