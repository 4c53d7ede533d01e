package fetcher

import (
	"context"
	"hash/fnv"
	"time"

	"pinscraper/internal/imagegen"
)

// Simulated returns synthetic PNG images instead of touching the network.
// Each URL maps to a stable image so repeated fetches agree.
type Simulated struct {
	Width  int
	Height int
	Delay  time.Duration
}

// Fetch waits Delay, then returns a generated image for url.
func (s *Simulated) Fetch(ctx context.Context, url string) ([]byte, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	h := fnv.New64a()
	h.Write([]byte(url))
	return imagegen.PNG(s.Width, s.Height, int64(h.Sum64()%1024)), nil
}
