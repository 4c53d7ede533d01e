package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"pinscraper/pkg/config"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/scraper"
)

const shutdownTimeout = 10 * time.Second

// Server runs the API until its context is cancelled
type Server struct {
	http   *http.Server
	svc    *scraper.Service
	logger logger.Logger
}

// NewServer creates a server listening on addr
func NewServer(addr string, svc *scraper.Service, cfg *config.Config, log logger.Logger) *Server {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(svc, cfg, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:    svc,
		logger: log,
	}
}

// Addr joins host and port the way Server expects
func Addr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Run serves until ctx is done, then stops any active scrape and shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.LogComponentStart(s.logger, "api", map[string]interface{}{"addr": s.http.Addr})
		if err := s.http.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.svc.Shutdown(shutdownCtx); err != nil {
		s.logger.WithError(err).Warn("Scrape did not stop in time")
	}
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	logger.LogComponentStop(s.logger, "api", "context cancelled")
	return nil
}
