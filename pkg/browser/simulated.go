package browser

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"time"
)

// SimulatedLauncher produces sessions that render an endless, synthetic
// results page. Each scroll reveals another batch of image URLs.
type SimulatedLauncher struct {
	// Delay is paid on launch, navigation and every scroll.
	Delay time.Duration
	// PerPage is the number of images revealed per scroll.
	PerPage int
}

// NewSimulatedLauncher creates a launcher revealing perPage images per scroll.
func NewSimulatedLauncher(perPage int, delay time.Duration) *SimulatedLauncher {
	if perPage <= 0 {
		perPage = 5
	}
	return &SimulatedLauncher{Delay: delay, PerPage: perPage}
}

func (l *SimulatedLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := sleep(ctx, l.Delay); err != nil {
		return nil, err
	}
	return &simulatedSession{delay: l.Delay, perPage: l.PerPage}, nil
}

type simulatedSession struct {
	delay   time.Duration
	perPage int
	bucket  uint32
	pages   int
	loaded  bool
	closed  bool
}

func (s *simulatedSession) Navigate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	h := fnv.New32a()
	h.Write([]byte(u.Query().Get("q")))
	s.bucket = h.Sum32()
	s.pages = 1
	s.loaded = true
	return sleep(ctx, s.delay)
}

// Elements returns the revealed pins plus the avatar and inline placeholder
// a real results page carries.
func (s *simulatedSession) Elements(ctx context.Context, tag string) ([]Element, error) {
	if !s.loaded || s.closed {
		return nil, fmt.Errorf("no page loaded")
	}
	if tag != "img" {
		return nil, nil
	}

	elements := []Element{
		NewElement(map[string]string{"src": "https://images.simulated.invalid/user/avatar_75x75.jpg", "alt": "avatar"}),
		NewElement(map[string]string{"src": "data:image/gif;base64,R0lGODlhAQABAAAAACw="}),
		NewElement(map[string]string{"alt": "lazy image without src"}),
	}
	for i := 1; i <= s.pages*s.perPage; i++ {
		elements = append(elements, NewElement(map[string]string{
			"src": fmt.Sprintf("https://images.simulated.invalid/%08x/736x/pin_%d.png", s.bucket, i),
			"alt": fmt.Sprintf("pin %d", i),
		}))
	}
	return elements, nil
}

func (s *simulatedSession) ExecuteScript(ctx context.Context, script string) error {
	if script == ScrollToBottomScript {
		s.pages++
	}
	return sleep(ctx, s.delay)
}

func (s *simulatedSession) Quit() error {
	s.closed = true
	return nil
}

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
