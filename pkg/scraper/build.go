package scraper

import (
	"fmt"

	"pinscraper/pkg/browser"
	"pinscraper/pkg/config"
	"pinscraper/pkg/fetcher"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/progress"
	"pinscraper/pkg/ratelimit"
)

// simulatedImageSize is large enough to pass every quality preset
const simulatedImageSize = 800

// NewFetcher returns the image fetcher matching cfg's browser driver. The
// simulated driver gets synthetic images; everything else goes to the network.
func NewFetcher(cfg *config.Config, log logger.Logger) Fetcher {
	if cfg.Browser.Driver == config.DriverSimulated {
		return &fetcher.Simulated{
			Width:  simulatedImageSize,
			Height: simulatedImageSize,
			Delay:  cfg.Server.SimulatedImageDelay,
		}
	}

	client := fetcher.NewClient(cfg.Download.Timeout, cfg.Download.UserAgent, log)
	client.SetMaxBytes(cfg.Download.MaxFileSize)
	if cfg.Browser.AcceptLanguage != "" {
		client.SetHeader("Accept-Language", cfg.Browser.AcceptLanguage)
	}
	client.SetHeader("Referer", "https://www.pinterest.com/")
	return client
}

// NewServiceFromConfig wires launcher, fetcher, limiter and a fresh progress
// store from cfg.
func NewServiceFromConfig(cfg *config.Config, log logger.Logger) (*Service, error) {
	launcher, err := browser.NewLauncher(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("create browser launcher: %w", err)
	}

	opts := OptionsFromConfig(cfg)
	if cfg.Browser.Driver == config.DriverSimulated {
		opts.SettleDelay = cfg.Server.SimulatedStepDelay
		opts.ScrollDelay = cfg.Server.SimulatedStepDelay
	}

	s := New(launcher, NewFetcher(cfg, log), progress.NewStore(), opts, log)
	s.SetLimiter(ratelimit.PerMinute(cfg.Download.RequestsPerMinute, cfg.Download.BurstSize))

	logger.LogComponentStart(log, "scraper", map[string]interface{}{
		"driver":      cfg.Browser.Driver,
		"max_scrolls": opts.MaxScrolls,
		"rate_limit":  cfg.Download.RequestsPerMinute,
		"dedupe":      opts.DedupeSimilar,
	})
	return NewService(s, log), nil
}
