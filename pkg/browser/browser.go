// Package browser abstracts the automated browser the scrape loop drives.
//
// The scan loop only needs five capabilities: navigate, enumerate elements by
// tag, read an attribute, run a script and quit. Keeping them behind Session
// lets the loop run against headless Chrome, a static HTML fetcher, a
// simulated backend or a scripted fake in tests.
package browser

import (
	"context"
	"fmt"

	"pinscraper/pkg/config"
	"pinscraper/pkg/logger"
)

// ScrollToBottomScript scrolls the page so lazy-loaded pins render.
const ScrollToBottomScript = "window.scrollTo(0, document.body.scrollHeight);"

// Element is a snapshot of one DOM element's attributes.
type Element struct {
	attrs map[string]string
}

// NewElement creates an element from its attributes.
func NewElement(attrs map[string]string) Element {
	return Element{attrs: attrs}
}

// Attribute returns the named attribute and whether it was present.
func (e Element) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// Session is one acquired browser. It is owned by a single run.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Elements(ctx context.Context, tag string) ([]Element, error)
	ExecuteScript(ctx context.Context, script string) error
	Quit() error
}

// LaunchOptions are per-run hints for acquiring a session.
type LaunchOptions struct {
	Headless bool
}

// Launcher acquires sessions.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// NewLauncher builds the launcher selected by cfg.Browser.Driver.
func NewLauncher(cfg *config.Config, log logger.Logger) (Launcher, error) {
	switch cfg.Browser.Driver {
	case config.DriverChrome:
		return NewChromeLauncher(cfg.Browser, log), nil
	case config.DriverStatic:
		return NewStaticLauncher(cfg.Browser, cfg.Download.Timeout, log), nil
	case config.DriverSimulated:
		return NewSimulatedLauncher(cfg.Server.SimulatedPageSize, cfg.Server.SimulatedStepDelay), nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.Browser.Driver)
	}
}
