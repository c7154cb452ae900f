package main

import (
	"log"

	"pulsefeed/internal/config"
	"pulsefeed/internal/db"
	"pulsefeed/internal/require"
	"pulsefeed/internal/router"
	"pulsefeed/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading config from environment")
	}

	cfg := config.Load()

	// Initialize Database
	db.Init(cfg)

	images, err := storage.NewImageStore(cfg.StoragePath)
	if err != nil {
		log.Fatalf("Failed to prepare image storage: %v", err)
	}

	// Initialize Gin
	r := gin.Default()
	r.MaxMultipartMemory = require.MaxBodyBytes

	router.RegisterRoutes(r, db.DB, images, cfg)

	log.Printf("pulsefeed server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
