package scraper

import (
	"context"
	"sync"

	"pinscraper/internal/runner"
	"pinscraper/pkg/errors"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"
	"pinscraper/pkg/progress"
)

// Service is what front ends talk to: start a run in the background, read
// its progress and stop it.
type Service struct {
	mu      sync.Mutex
	scraper *Scraper
	runner  *runner.Runner
	logger  logger.Logger
}

// NewService wraps s with a single background worker
func NewService(s *Scraper, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{
		scraper: s,
		runner:  runner.New(log),
		logger:  log,
	}
}

// Start claims the progress store for req and launches the run. It returns
// errors.ErrBusy while another run is starting or running.
func (s *Service) Start(req models.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store := s.scraper.Store()
	if store.Read().Status.Active() {
		return "", errors.ErrBusy
	}
	// A finished run may still be releasing its worker.
	if s.runner.Running() {
		s.logger.Debug("Waiting for the previous worker to exit")
		s.runner.Wait()
	}

	runID, err := store.Begin(req)
	if err != nil {
		return "", err
	}

	err = s.runner.Launch(func(ctx context.Context) {
		s.scraper.Run(ctx, req)
	})
	if err != nil {
		store.Finish(progress.StatusError, "Failed to start scraper", err)
		return "", err
	}

	s.logger.InfoWithFields("Scrape started", map[string]interface{}{
		"run_id":      runID,
		"query":       req.Query,
		"target":      req.TargetCount,
		"destination": req.Destination,
	})
	return runID, nil
}

// Store returns the progress store runs report into
func (s *Service) Store() *progress.Store {
	return s.scraper.Store()
}

// Read returns a copy of the current progress record
func (s *Service) Read() progress.Snapshot {
	return s.scraper.Store().Read()
}

// Subscribe streams progress snapshots, see progress.Store.Subscribe
func (s *Service) Subscribe() (<-chan progress.Snapshot, func()) {
	return s.scraper.Store().Subscribe()
}

// Stop cancels the active run. The run finishes the candidate it is on,
// releases its browser and ends with status stopped. Stop returns
// errors.ErrNotRunning when there is nothing to stop.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Read().Status.Active() || !s.runner.Stop() {
		return errors.ErrNotRunning
	}
	s.logger.Info("Stop requested")
	return nil
}

// Wait blocks until the current run, if any, has ended
func (s *Service) Wait() {
	s.runner.Wait()
}

// Shutdown stops any active run and waits for it until ctx is done
func (s *Service) Shutdown(ctx context.Context) error {
	return s.runner.Shutdown(ctx)
}
