package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/corona10/goimagehash"
	"pinscraper/pkg/browser"
	"pinscraper/pkg/config"
	"pinscraper/pkg/errors"
	"pinscraper/pkg/filter"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"
	"pinscraper/pkg/progress"
	"pinscraper/pkg/ratelimit"
	"pinscraper/pkg/storage"
	"pinscraper/pkg/validator"
)

// Options tune the scan loop
type Options struct {
	SearchURL   string
	MaxScrolls  int
	SettleDelay time.Duration
	ScrollDelay time.Duration
	// SkipPatterns override the filter's default denylist when set
	SkipPatterns []string
	// DedupeSimilar rejects images perceptually close to one already saved
	DedupeSimilar       bool
	SimilarityThreshold int
}

// OptionsFromConfig reads the loop settings from cfg.Scrape
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SearchURL:           cfg.Scrape.SearchURL,
		MaxScrolls:          cfg.Scrape.MaxScrolls,
		SettleDelay:         cfg.Scrape.SettleDelay,
		ScrollDelay:         cfg.Scrape.ScrollDelay,
		SkipPatterns:        cfg.Scrape.SkipPatterns,
		DedupeSimilar:       cfg.Scrape.DedupeSimilar,
		SimilarityThreshold: cfg.Scrape.SimilarityThreshold,
	}
}

// Scraper runs the search, scroll and download loop for one request at a
// time and reports into a progress store.
type Scraper struct {
	launcher browser.Launcher
	fetcher  Fetcher
	limiter  ratelimit.Limiter
	store    *progress.Store
	opts     Options
	logger   logger.Logger
}

// New creates a Scraper. A nil logger falls back to the global one.
func New(launcher browser.Launcher, fetcher Fetcher, store *progress.Store, opts Options, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.MaxScrolls <= 0 {
		opts.MaxScrolls = 10
	}
	return &Scraper{
		launcher: launcher,
		fetcher:  fetcher,
		store:    store,
		opts:     opts,
		logger:   log,
	}
}

// SetLimiter paces image fetches. A nil limiter disables pacing.
func (s *Scraper) SetLimiter(l ratelimit.Limiter) {
	s.limiter = l
}

// Store returns the progress store the scraper reports into
func (s *Scraper) Store() *progress.Store {
	return s.store
}

// Run executes req and returns the terminal snapshot. The store must have
// been claimed with Begin. Failures never escape: they end up in the
// snapshot's status, message and error fields.
func (s *Scraper) Run(ctx context.Context, req models.Request) progress.Snapshot {
	log := s.logger.WithFields(map[string]interface{}{
		"query":  req.Query,
		"target": req.TargetCount,
	})
	start := time.Now()

	manager, err := storage.NewManager(req.Destination)
	if err != nil {
		log.WithError(err).Error("Failed to prepare destination")
		s.store.Finish(progress.StatusError, fmt.Sprintf("Error during scraping: %v", err), errors.Wrap(errors.ErrorTypeStorage, err.Error(), err))
		return s.store.Read()
	}

	s.store.SetStatus(progress.StatusRunning)
	s.store.Report(0, req.TargetCount, "Setting up browser...", nil)

	session, err := s.launcher.Launch(ctx, browser.LaunchOptions{Headless: req.Headless})
	if err != nil {
		if ctx.Err() != nil {
			s.store.Finish(progress.StatusStopped, "Scraping stopped by user", nil)
			return s.store.Read()
		}
		log.WithError(err).Error("Failed to setup browser")
		s.store.Finish(progress.StatusError, "Failed to setup browser", errors.ErrDriverUnavailable)
		return s.store.Read()
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if err := session.Quit(); err != nil {
			log.WithError(err).Warn("Failed to release browser session")
		}
	}
	defer release()

	tally, err := s.scan(ctx, session, req, manager, log)
	release()

	fields := map[string]interface{}{
		"accepted": tally.Accepted,
		"rejected": tally.Rejected,
		"skipped":  tally.Skipped,
		"scrolls":  tally.Scrolls,
		"saved":    manager.SavedCount(),
		"folder":   manager.OutputDir(),
		"duration": time.Since(start),
	}

	switch {
	case ctx.Err() != nil:
		log.InfoWithFields("Scraping stopped", fields)
		s.store.Finish(progress.StatusStopped, "Scraping stopped by user", nil)
	case err != nil:
		log.WithError(err).ErrorWithFields("Scraping failed", fields)
		s.store.Finish(progress.StatusError, fmt.Sprintf("Error during scraping: %v", err), err)
	default:
		log.InfoWithFields("Scraping completed", fields)
		s.store.Finish(progress.StatusCompleted, fmt.Sprintf("Download complete! %d images saved.", tally.Accepted), nil)
	}
	return s.store.Read()
}

// scan navigates to the search page and keeps collecting candidates until
// the target is reached or the scroll ceiling is hit.
func (s *Scraper) scan(ctx context.Context, session browser.Session, req models.Request, manager *storage.Manager, log logger.Logger) (tally Tally, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()

	target := req.TargetCount
	maxScrolls := s.opts.MaxScrolls
	if req.MaxScrolls > 0 {
		maxScrolls = req.MaxScrolls
	}

	s.store.Report(0, target, fmt.Sprintf("Searching for '%s' on Pinterest...", req.Query), nil)
	if err := session.Navigate(ctx, models.SearchURL(s.opts.SearchURL, req.Query)); err != nil {
		return tally, err
	}
	if err := sleep(ctx, s.opts.SettleDelay); err != nil {
		return tally, err
	}

	run := &candidateRun{
		Scraper: s,
		req:     req,
		manager: manager,
		filter:  filter.New(s.opts.SkipPatterns...),
		log:     log,
	}
	if s.opts.DedupeSimilar {
		run.similar = validator.NewSimilarIndex(s.opts.SimilarityThreshold)
	}
	defer func() {
		stats := map[string]interface{}{"unique_urls": run.filter.Seen()}
		if run.similar != nil {
			stats["hashes"] = run.similar.Len()
		}
		log.DebugWithFields("Candidate scan finished", stats)
	}()

	for tally.Accepted < target && tally.Scrolls < maxScrolls {
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		elements, err := session.Elements(ctx, "img")
		if err != nil {
			return tally, err
		}
		s.store.Report(tally.Accepted, target, fmt.Sprintf("Found %d images, processing...", len(elements)), nil)

		for _, element := range elements {
			if tally.Accepted >= target {
				break
			}
			if err := ctx.Err(); err != nil {
				return tally, err
			}

			outcome := run.process(ctx, element, tally.Accepted+1)
			tally.add(outcome)
			if outcome.Kind == Accepted {
				s.store.Accept(outcome.Image, target, fmt.Sprintf("Downloaded %d/%d images", tally.Accepted, target))
			}
		}

		if tally.Accepted < target {
			if err := session.ExecuteScript(ctx, browser.ScrollToBottomScript); err != nil {
				return tally, err
			}
			if err := sleep(ctx, s.opts.ScrollDelay); err != nil {
				return tally, err
			}
			tally.Scrolls++
		}
	}
	return tally, nil
}

// candidateRun holds the per-run state shared by candidate evaluations.
type candidateRun struct {
	*Scraper
	req     models.Request
	manager *storage.Manager
	filter  *filter.Filter
	similar *validator.SimilarIndex
	log     logger.Logger
}

// process turns one element into an outcome. Nothing a single candidate
// does can abort the run; panics become rejections too.
func (r *candidateRun) process(ctx context.Context, element browser.Element, index int) (outcome Outcome) {
	src, _ := element.Attribute("src")
	defer func() {
		if p := recover(); p != nil {
			outcome = rejected(fmt.Sprintf("panic: %v", p))
		}
		if outcome.Kind != Accepted {
			logger.LogCandidate(r.log, src, outcome.Kind.String(), outcome.Reason)
		}
	}()

	if src == "" {
		return skipped("no src")
	}
	if !r.filter.Accept(src) {
		return skipped("filtered")
	}

	name := models.FileName(r.req.Query, index, filter.Extension(src))
	r.store.Report(index-1, r.req.TargetCount, fmt.Sprintf("Downloading %s...", name), nil)

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return rejected(err.Error())
		}
	}
	if err := ctx.Err(); err != nil {
		return rejected(err.Error())
	}

	data, err := r.fetcher.Fetch(ctx, src)
	if err != nil {
		return rejected(errors.Reason(err))
	}

	result := validator.Validate(data, r.req.MinWidth, r.req.MinHeight)
	if !result.Accepted {
		return rejected(result.Message())
	}

	var hash *goimagehash.ImageHash
	if r.similar != nil {
		h, dup, err := r.similar.Check(data)
		if err != nil {
			return rejected(err.Error())
		}
		if dup {
			return rejected(string(validator.ReasonDuplicate))
		}
		hash = h
	}

	path, err := r.manager.Save(name, data)
	if err != nil {
		return rejected(err.Error())
	}
	if r.similar != nil {
		r.similar.Add(hash)
	}

	r.log.DebugWithFields("Image saved", map[string]interface{}{
		"name":   name,
		"width":  result.Width,
		"height": result.Height,
		"format": result.Format,
	})
	return Outcome{
		Kind:  Accepted,
		Image: models.AcceptedImage{Name: name, Path: path, URL: src},
	}
}

// sleep pauses for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
