package router

import (
	"net/http"

	"pulsefeed/internal/config"
	"pulsefeed/internal/handlers"
	"pulsefeed/internal/middleware"
	"pulsefeed/internal/require"
	"pulsefeed/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func RegisterRoutes(r *gin.Engine, database *gorm.DB, images *storage.ImageStore, cfg config.Config) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOriginFunc = func(string) bool { return true }
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, require.MaxBodyBytes)
		c.Next()
	})

	// The transaction scope must open before the identity middleware: token
	// lookups run on the request transaction like everything else.
	r.Use(middleware.Transaction(database))
	r.Use(middleware.Identity(cfg.HashParams()))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.Static("/storage", cfg.StoragePath)

	authHandler := handlers.NewAuthHandler(cfg.HashParams())
	postHandler := handlers.NewPostHandler(images)

	r.POST("/sign_in", authHandler.SignIn())
	r.POST("/sign_out", authHandler.SignOut())
	r.POST("/sign_up", authHandler.SignUp())

	r.GET("/posts", postHandler.List())
	r.POST("/posts", postHandler.Create())
	r.PUT("/posts/:post_id/rate", postHandler.SetReaction())
	r.DELETE("/posts/:post_id", postHandler.Delete())
}
