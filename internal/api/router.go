package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yhzhou/mobility-backend-go/internal/config"
	"github.com/yhzhou/mobility-backend-go/internal/database"
	"github.com/yhzhou/mobility-backend-go/internal/handler"
	"github.com/yhzhou/mobility-backend-go/internal/middleware"
	"github.com/yhzhou/mobility-backend-go/internal/repository"
	"github.com/yhzhou/mobility-backend-go/internal/service"
)

// SetupRouter wires repositories, services and handlers onto the gin engine
func SetupRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(300, time.Minute))

	db := database.GetDB()

	positionfixHandler := handler.NewPositionfixHandler(
		service.NewPositionfixService(repository.NewPositionfixRepository(db)))
	staypointHandler := handler.NewStaypointHandler(
		service.NewStaypointService(repository.NewStaypointRepository(db)))
	triplegHandler := handler.NewTriplegHandler(
		service.NewTriplegService(repository.NewTriplegRepository(db)))
	tripHandler := handler.NewTripHandler(
		service.NewTripService(repository.NewTripRepository(db)))
	tourHandler := handler.NewTourHandler(
		service.NewTourService(repository.NewTourRepository(db)))
	analysisHandler := handler.NewAnalysisTaskHandler(
		service.NewAnalysisTaskService(repository.NewAnalysisTaskRepository(db), db))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Mobility Backend API is running",
		})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/positionfixes", positionfixHandler.GetPositionfixes)
		api.GET("/staypoints", staypointHandler.GetStaypoints)
		api.GET("/triplegs", triplegHandler.GetTriplegs)
		api.GET("/trips", tripHandler.GetTrips)
		api.GET("/trips/:id", tripHandler.GetTripByID)
		api.GET("/tours", tourHandler.GetTours)
		api.GET("/tours/:id", tourHandler.GetTourByID)

		api.GET("/analysis/tasks", analysisHandler.ListTasks)
		api.GET("/analysis/tasks/:id", analysisHandler.GetTask)

		// mutating endpoints require a token
		auth := api.Group("", middleware.Auth(cfg.JWTSecret))
		{
			auth.POST("/positionfixes", positionfixHandler.Ingest)
			auth.POST("/analysis/run", analysisHandler.RunAnalysis)
			auth.POST("/analysis/pipeline", analysisHandler.RunPipeline)
		}
	}

	return r
}
