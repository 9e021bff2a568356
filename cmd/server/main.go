package main

import (
	"log"

	"github.com/yhzhou/mobility-backend-go/internal/api"
	"github.com/yhzhou/mobility-backend-go/internal/config"
	"github.com/yhzhou/mobility-backend-go/internal/database"

	// register the pipeline analyzers
	_ "github.com/yhzhou/mobility-backend-go/internal/analysis/pipeline"
)

func main() {
	cfg := config.Load()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	router := api.SetupRouter(cfg)

	log.Printf("Server starting on %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
