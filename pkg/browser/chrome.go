package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"pinscraper/pkg/config"
	"pinscraper/pkg/logger"
)

// elementsScript returns every element of a tag as an attribute map. src is
// read from the property so relative and lazy sources come back absolute.
const elementsScript = `Array.from(document.getElementsByTagName(%q)).map(e => {
	const attrs = {};
	for (const a of e.attributes) { attrs[a.name] = a.value; }
	if (e.hasAttribute('src') && e.src) { attrs.src = e.src; }
	return attrs;
})`

const operationTimeout = 30 * time.Second

// ChromeLauncher starts headless Chrome through chromedp.
type ChromeLauncher struct {
	cfg    config.BrowserConfig
	logger logger.Logger
}

// NewChromeLauncher creates a launcher for cfg.
func NewChromeLauncher(cfg config.BrowserConfig, log logger.Logger) *ChromeLauncher {
	return &ChromeLauncher{cfg: cfg, logger: log}
}

// Launch starts a browser process and waits until it answers. A missing or
// broken Chrome install surfaces here.
func (l *ChromeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(l.cfg.UserAgent),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(l.cfg.WindowWidth, l.cfg.WindowHeight),
	)
	if l.cfg.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if l.cfg.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.cfg.ExecPath))
	}

	// The browser outlives individual operations, so it hangs off a
	// background context and is torn down only by Quit.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	session := &chromeSession{
		ctx:    browserCtx,
		cancel: func() { cancelBrowser(); cancelAlloc() },
		logger: l.logger,
	}

	var startup []chromedp.Action
	if l.cfg.AcceptLanguage != "" {
		startup = append(startup, network.Enable(), network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": l.cfg.AcceptLanguage,
		}))
	}
	// The first Run allocates the browser and ties its lifetime to the
	// context it is given, so it must not carry a timeout.
	if err := chromedp.Run(browserCtx, startup...); err != nil {
		session.cancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	l.logger.DebugWithFields("chrome session started", map[string]interface{}{
		"headless": opts.Headless,
		"exec":     l.cfg.ExecPath,
	})
	return session, nil
}

type chromeSession struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger logger.Logger
}

// run executes actions on the browser, bounded by operationTimeout and
// aborted early when ctx is cancelled.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(s.ctx, operationTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

func (s *chromeSession) Elements(ctx context.Context, tag string) ([]Element, error) {
	var raw []map[string]string
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(elementsScript, tag), &raw)); err != nil {
		return nil, fmt.Errorf("enumerate %s elements: %w", tag, err)
	}
	elements := make([]Element, 0, len(raw))
	for _, attrs := range raw {
		elements = append(elements, NewElement(attrs))
	}
	return elements, nil
}

func (s *chromeSession) ExecuteScript(ctx context.Context, script string) error {
	return s.run(ctx, chromedp.Evaluate(script, nil))
}

// Quit closes the browser gracefully, then releases the allocator.
func (s *chromeSession) Quit() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	return err
}
