package browser

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"golang.org/x/net/publicsuffix"
	"pinscraper/pkg/config"
	"pinscraper/pkg/logger"
)

// StaticLauncher acquires sessions that fetch pages over plain HTTP and
// parse the returned HTML. No JavaScript runs, so scrolling loads nothing new.
type StaticLauncher struct {
	cfg     config.BrowserConfig
	timeout time.Duration
	logger  logger.Logger
}

// NewStaticLauncher creates a launcher whose page loads are bounded by timeout.
func NewStaticLauncher(cfg config.BrowserConfig, timeout time.Duration, log logger.Logger) *StaticLauncher {
	return &StaticLauncher{cfg: cfg, timeout: timeout, logger: log}
}

// Launch creates a session with its own cookie jar.
func (l *StaticLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &staticSession{
		client: &http.Client{Jar: jar, Timeout: l.timeout},
		cfg:    l.cfg,
		logger: l.logger,
	}, nil
}

type staticSession struct {
	client  *http.Client
	cfg     config.BrowserConfig
	logger  logger.Logger
	pageURL *url.URL
	doc     *goquery.Document
}

func (s *staticSession) Navigate(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, br")
	if s.cfg.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", s.cfg.AcceptLanguage)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("load page: HTTP %d", resp.StatusCode)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return fmt.Errorf("decode page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}

	s.pageURL = resp.Request.URL
	s.doc = doc
	s.logger.DebugWithFields("static page loaded", map[string]interface{}{
		"url":      s.pageURL.String(),
		"encoding": resp.Header.Get("Content-Encoding"),
	})
	return nil
}

// decodeBody undoes the content encodings the session advertises. net/http
// only decompresses gzip transparently when it set Accept-Encoding itself.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		return gzip.NewReader(resp.Body)
	default:
		return resp.Body, nil
	}
}

func (s *staticSession) Elements(ctx context.Context, tag string) ([]Element, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("no page loaded")
	}

	var elements []Element
	s.doc.Find(tag).Each(func(_ int, sel *goquery.Selection) {
		attrs := make(map[string]string)
		for _, a := range sel.Nodes[0].Attr {
			attrs[a.Key] = a.Val
		}
		if src, ok := attrs["src"]; ok && src != "" {
			attrs["src"] = s.resolve(src)
		}
		elements = append(elements, NewElement(attrs))
	})
	return elements, nil
}

// resolve mirrors the browser's src property, which is always absolute.
func (s *staticSession) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || s.pageURL == nil || u.Scheme == "data" {
		return ref
	}
	return s.pageURL.ResolveReference(u).String()
}

// ExecuteScript accepts the scroll script as a no-op; anything else would
// need a JavaScript engine.
func (s *staticSession) ExecuteScript(ctx context.Context, script string) error {
	if script == ScrollToBottomScript {
		return nil
	}
	return fmt.Errorf("static driver cannot execute scripts")
}

func (s *staticSession) Quit() error {
	s.client.CloseIdleConnections()
	s.doc = nil
	return nil
}
