package scraper

import "context"

// Fetcher retrieves the raw bytes of one image URL. Any error drops the
// candidate; fetches are never retried.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
