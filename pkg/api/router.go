package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"pinscraper/pkg/config"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/scraper"
)

// NewRouter wires the API routes for svc
func NewRouter(svc *scraper.Service, cfg *config.Config, log logger.Logger) *gin.Engine {
	router := gin.New()
	h := NewHandler(svc, cfg, log)

	// Middleware
	router.Use(RequestLogger(log))
	router.Use(ErrorHandler(log))
	router.Use(CORS(cfg.Server.AllowedOrigins))

	router.GET("/", h.Index)
	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		api.POST("/scrape", h.StartScrape)
		api.GET("/progress", h.Progress)
		api.POST("/stop", h.Stop)
		api.GET("/downloads", h.ListDownloads)
		api.GET("/downloads/:name/thumbnail", h.Thumbnail)
	}

	// unknown paths, including preflights the CORS middleware has not answered
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	return router
}
