// Package simserver is the dependency-free demo server. It serves the same
// web page and JSON API as the full server, but drives a simulated browser
// and synthetic images so it runs without Chrome or network access.
package simserver

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"pinscraper/pkg/config"
	"pinscraper/pkg/errors"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"
	"pinscraper/pkg/scraper"
)

const maxBodyBytes = 1 << 20

// Server answers the web page's API calls
type Server struct {
	svc    *scraper.Service
	cfg    *config.Config
	port   int
	logger logger.Logger
}

// New creates a server for svc. port is the one the page is rewritten to call.
func New(svc *scraper.Service, cfg *config.Config, port int, log logger.Logger) *Server {
	return &Server{svc: svc, cfg: cfg, port: port, logger: log}
}

// Handler returns the request router wrapped in request logging
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.route(rec, r)
		logger.LogRequest(s.logger, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		switch {
		case path == "/" || path == "/index.html":
			s.serveIndex(w)
		case path == "/api/progress":
			writeJSON(w, http.StatusOK, s.svc.Read())
		case strings.HasPrefix(path, "/api/"):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "API endpoint not found"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		}
	case http.MethodPost:
		if path == "/api/scrape" {
			s.handleScrape(w, r)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Endpoint not found"})
	case http.MethodOptions:
		setCORS(w.Header())
		w.WriteHeader(http.StatusOK)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}
}

// serveIndex serves the page with its API base rewritten to this server
func (s *Server) serveIndex(w http.ResponseWriter) {
	content, err := os.ReadFile(s.cfg.Server.IndexFile)
	if err != nil {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "<h1>%s not found</h1>", s.cfg.Server.IndexFile)
		return
	}
	page := strings.ReplaceAll(string(content),
		"http://localhost:"+strconv.Itoa(s.cfg.Server.Port),
		"http://localhost:"+strconv.Itoa(s.port))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, page)
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var form models.ScrapeForm
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON data"})
		return
	}

	req, err := form.Resolve(models.FormDefaults{
		NumImages: s.cfg.Scrape.DefaultImages,
		MaxImages: s.cfg.Scrape.MaxImages,
		Folder:    s.cfg.Output.BaseDirectory,
		Quality:   s.cfg.Scrape.DefaultQuality,
		Headless:  true,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errors.Reason(err)})
		return
	}

	runID, err := s.svc.Start(req)
	switch {
	case errors.Is(err, errors.ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": errors.Reason(err)})
		return
	case err != nil:
		s.logger.WithError(err).Error("Failed to start simulated scrape")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Scraping started",
		"status":  "started",
		"run_id":  runID,
	})
}

// Run listens on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	logger.LogComponentStart(s.logger, "simserver", map[string]interface{}{"addr": ln.Addr().String()})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.svc.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.LogComponentStop(s.logger, "simserver", "context cancelled")
	return nil
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	setCORS(h)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
