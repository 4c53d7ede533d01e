// Package scraper implements the Pinterest scrape loop.
//
// A run navigates a browser session to the search page for a query, waits
// for the page to settle, then repeatedly enumerates the rendered img
// elements. Every candidate is filtered, fetched, validated and saved, and
// ends up as one Outcome: Accepted, Rejected or Skipped. When the page does
// not yet hold enough images the loop scrolls to the bottom and scans again,
// up to a scroll ceiling.
//
// Two stop conditions bound the loop:
//   - the target number of images has been saved (completed)
//   - the scroll ceiling has been reached (completed with fewer images)
//
// Only failing to acquire a browser, or an error from the session itself,
// ends a run with status error. Rejected candidates are dropped silently.
//
// Usage:
//
//	store := progress.NewStore()
//	s := scraper.New(launcher, fetcher.NewClient(10*time.Second, ua, log), store, scraper.OptionsFromConfig(cfg), log)
//	svc := scraper.NewService(s, log)
//
//	runID, err := svc.Start(models.Request{Query: "cats", TargetCount: 10, ...})
//	...
//	snap := svc.Read() // poll
//	svc.Stop()         // cooperative cancellation
//
// Stopping is cooperative: the run's context is checked between scans,
// before each fetch and during every pause.
package scraper
