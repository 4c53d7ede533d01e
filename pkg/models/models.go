package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"pinscraper/pkg/errors"
)

// Request describes one scrape run. It is not modified once the run starts.
type Request struct {
	Query       string `json:"query"`
	TargetCount int    `json:"target_count"`
	Destination string `json:"destination"`
	MinWidth    int    `json:"min_width"`
	MinHeight   int    `json:"min_height"`
	// Headless is a hint for drivers that can show a browser window.
	Headless bool `json:"headless"`
	// MaxScrolls overrides the configured scroll ceiling when positive.
	MaxScrolls int `json:"max_scrolls,omitempty"`
}

// Validate reports user input errors before a run is started.
func (r Request) Validate(maxImages int) error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New(errors.ErrorTypeInput, "Search query is required")
	}
	if r.TargetCount < 1 || r.TargetCount > maxImages {
		return errors.New(errors.ErrorTypeInput, fmt.Sprintf("Number of images must be between 1 and %d", maxImages))
	}
	if r.Destination == "" {
		return errors.New(errors.ErrorTypeInput, "Folder name is required")
	}
	if r.MinWidth <= 0 || r.MinHeight <= 0 {
		return errors.New(errors.ErrorTypeInput, "Image quality must be positive")
	}
	return nil
}

// AcceptedImage is an image that passed filtering, fetching and validation
// and was written to disk.
type AcceptedImage struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Quality is a named minimum-dimension preset.
type Quality struct {
	Label  string
	Width  int
	Height int
}

// String renders the preset in WxH form.
func (q Quality) String() string {
	return fmt.Sprintf("%dx%d", q.Width, q.Height)
}

// QualityPresets are the choices offered by the interactive UI.
var QualityPresets = []Quality{
	{Label: "Standard", Width: 200, Height: 200},
	{Label: "High", Width: 400, Height: 400},
	{Label: "HD", Width: 800, Height: 600},
}

// ParseQuality parses a "WxH" string such as "400x400".
func ParseQuality(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, errors.New(errors.ErrorTypeInput, fmt.Sprintf("Invalid image quality %q, expected WIDTHxHEIGHT", s))
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, errors.New(errors.ErrorTypeInput, fmt.Sprintf("Invalid image quality %q, expected WIDTHxHEIGHT", s))
	}
	return w, h, nil
}

var nameReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// FileName builds the on-disk name for the index-th accepted image of a query.
// index is 1-based, which keeps names unique within a run.
func FileName(query string, index int, ext string) string {
	return fmt.Sprintf("%s_%d.%s", nameReplacer.Replace(query), index, ext)
}

// SearchURL substitutes the percent-encoded query into a template containing %s.
// Spaces are encoded as %20 rather than '+'.
func SearchURL(template, query string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	return fmt.Sprintf(template, encoded)
}
