package api

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"pinscraper/pkg/config"
	"pinscraper/pkg/errors"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"
	"pinscraper/pkg/scraper"
	"pinscraper/pkg/storage"
)

const (
	defaultThumbnailWidth = 200
	maxThumbnailWidth     = 2000
)

// Handler serves the scrape API on top of a Service
type Handler struct {
	svc     *scraper.Service
	cfg     *config.Config
	logger  logger.Logger
	started time.Time
}

// NewHandler creates a handler for svc
func NewHandler(svc *scraper.Service, cfg *config.Config, log logger.Logger) *Handler {
	return &Handler{svc: svc, cfg: cfg, logger: log, started: time.Now()}
}

// FormDefaults returns what a scrape form falls back to under cfg
func FormDefaults(cfg *config.Config) models.FormDefaults {
	return models.FormDefaults{
		NumImages: cfg.Scrape.DefaultImages,
		MaxImages: cfg.Scrape.MaxImages,
		Folder:    cfg.Output.BaseDirectory,
		Quality:   cfg.Scrape.DefaultQuality,
		Headless:  cfg.Browser.Headless,

		RestrictToBase: cfg.Output.RestrictToBase,
	}
}

// StartScrape handles POST /api/scrape
func (h *Handler) StartScrape(c *gin.Context) {
	var form models.ScrapeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
		return
	}

	req, err := form.Resolve(FormDefaults(h.cfg))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.Reason(err)})
		return
	}

	runID, err := h.svc.Start(req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": errors.Reason(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scraping started",
		"status":  "started",
		"run_id":  runID,
	})
}

// Progress handles GET /api/progress
func (h *Handler) Progress(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Read())
}

// Stop handles POST /api/stop
func (h *Handler) Stop(c *gin.Context) {
	if err := h.svc.Stop(); err != nil {
		c.JSON(statusFor(err), gin.H{"error": errors.Reason(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Scraping stopped"})
}

// ListDownloads handles GET /api/downloads
func (h *Handler) ListDownloads(c *gin.Context) {
	files, err := storage.List(h.cfg.Output.BaseDirectory)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list downloads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": files})
}

// Thumbnail handles GET /api/downloads/:name/thumbnail?width=N
func (h *Handler) Thumbnail(c *gin.Context) {
	width := defaultThumbnailWidth
	if raw := c.Query("width"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxThumbnailWidth {
			c.JSON(http.StatusBadRequest, gin.H{"error": "width must be between 1 and " + strconv.Itoa(maxThumbnailWidth)})
			return
		}
		width = n
	}

	img, err := storage.Thumbnail(h.cfg.Output.BaseDirectory, c.Param("name"), width)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "image/jpeg")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	if err := storage.EncodeJPEG(c.Writer, img); err != nil {
		h.logger.WithError(err).Warn("Failed to encode thumbnail")
	}
}

// Index handles GET /
func (h *Handler) Index(c *gin.Context) {
	content, err := os.ReadFile(h.cfg.Server.IndexFile)
	if err != nil {
		c.String(http.StatusNotFound, "%s not found. Please ensure the file exists in the same directory.", h.cfg.Server.IndexFile)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", content)
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"scrape": h.svc.Read().Status,
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrBusy), errors.Is(err, errors.ErrNotRunning):
		return http.StatusConflict
	case errors.IsUserError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
