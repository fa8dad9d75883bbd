package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/connect4-engine/internal/transport/http/middleware"
)

type RouterConfig struct {
	Tables         *TableHandler
	Rounds         *RoundHandler
	WebSocket      gin.HandlerFunc
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	tableAuth := middleware.TableAuth(cfg.Tables.JWTSecret)

	api := router.Group("/api")
	{
		api.GET("/highscores", cfg.Tables.HighScores)
		api.POST("/tables", cfg.Tables.CreateTable)
		api.GET("/tables", cfg.Tables.ListTables)
		api.GET("/tables/:id", cfg.Tables.GetTable)
		api.GET("/tables/:id/rounds", cfg.Rounds.ListRounds)

		// Protected Routes
		protected := api.Group("/tables/:id")
		protected.Use(tableAuth)
		{
			protected.POST("/moves", cfg.Tables.SelectColumn)
			protected.POST("/reset", cfg.Tables.ResetTable)
			protected.DELETE("", cfg.Tables.DeleteTable)
		}
	}

	// auth handled inside the WS handler itself
	if cfg.WebSocket != nil {
		router.GET("/ws", cfg.WebSocket)
	}

	return router
}
