// Package fetcher downloads candidate images over plain HTTP.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pinscraper/pkg/errors"
	"pinscraper/pkg/logger"
)

// Client fetches image bytes with a browser-like identity
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	maxBytes   int64
	logger     logger.Logger
}

// NewClient creates a fetch client. timeout bounds the whole request
// including reading the body.
func NewClient(timeout time.Duration, userAgent string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "image/avif,image/webp,image/apng,image/*,*/*;q=0.8",
		},
		logger: log,
	}
}

// SetHeader sets a custom header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetMaxBytes caps the accepted body size; 0 disables the cap
func (c *Client) SetMaxBytes(n int64) {
	c.maxBytes = n
}

// Fetch GETs url. Only a 200 response counts as success; anything else is a
// typed error (status, network or too_large) the caller may drop.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, "invalid request", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugWithFields("image request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.DebugWithFields("image request rejected", map[string]interface{}{
			"url":    url,
			"status": resp.StatusCode,
		})
		return nil, errors.StatusError(resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, "read body", err)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, errors.New(errors.ErrorTypeTooLarge, fmt.Sprintf("response exceeds %d bytes", c.maxBytes))
	}

	c.logger.DebugWithFields("image fetched", map[string]interface{}{
		"url":      url,
		"bytes":    len(data),
		"duration": time.Since(start),
	})
	return data, nil
}
