package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler, allowOrigins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		venues := api.Group("/venues")
		{
			venues.GET("", handler.ListVenues)
			venues.GET("/:id", handler.GetVenue)
			venues.PATCH("/:id", handler.UpdateVenue)
			venues.POST("/:id/visit", handler.MarkVisited)
			venues.PUT("/:id/status", handler.EditStatus)
			venues.PUT("/:id/priority", handler.SetPriority)
		}

		api.GET("/stats", handler.GetStatistics)
		api.GET("/wards", handler.GetWardStatistics)
		api.GET("/filters", handler.GetFilterOptions)
		api.GET("/map", handler.GetMap)
		api.POST("/import", handler.ImportCSV)
		api.GET("/export", handler.ExportCSV)
		api.POST("/reset", handler.ResetSurvey)
		api.POST("/update-coordinates", handler.UpdateCoordinates)
	}
}
