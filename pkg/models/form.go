package models

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"pinscraper/pkg/errors"
)

// ScrapeForm is the JSON body of POST /api/scrape as sent by the web page.
type ScrapeForm struct {
	SearchQuery  string      `json:"searchQuery"`
	NumImages    json.Number `json:"numImages"`
	FolderName   *string     `json:"folderName"`
	ImageQuality string      `json:"imageQuality"`
	Headless     *bool       `json:"headless,omitempty"`
}

// FormDefaults fill in what a form leaves out.
type FormDefaults struct {
	NumImages int
	MaxImages int
	Folder    string
	Quality   string
	Headless  bool

	// RestrictToBase keeps form folders inside Folder
	RestrictToBase bool
}

// Resolve applies defaults and validates the form, producing a Request.
// All errors are input errors carrying a user facing message.
func (f ScrapeForm) Resolve(d FormDefaults) (Request, error) {
	req := Request{
		Query:       strings.TrimSpace(f.SearchQuery),
		TargetCount: d.NumImages,
		Destination: d.Folder,
		Headless:    d.Headless,
	}

	if raw := strings.TrimSpace(f.NumImages.String()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Request{}, errors.New(errors.ErrorTypeInput, fmt.Sprintf("Number of images must be between 1 and %d", d.MaxImages))
		}
		req.TargetCount = n
	}
	var folderErr error
	if f.FolderName != nil {
		req.Destination = strings.TrimSpace(*f.FolderName)
		if d.RestrictToBase && req.Destination != "" {
			req.Destination, folderErr = underBase(d.Folder, req.Destination)
		}
	}
	if f.Headless != nil {
		req.Headless = *f.Headless
	}

	quality := f.ImageQuality
	if strings.TrimSpace(quality) == "" {
		quality = d.Quality
	}
	w, h, qualityErr := ParseQuality(quality)
	if qualityErr != nil {
		// report field errors in form order; quality comes last
		w, h = 1, 1
	}
	req.MinWidth, req.MinHeight = w, h

	if err := req.Validate(d.MaxImages); err != nil {
		return Request{}, err
	}
	if folderErr != nil {
		return Request{}, folderErr
	}
	if qualityErr != nil {
		return Request{}, qualityErr
	}
	return req, nil
}

// underBase resolves folder against base. A folder already inside base is
// kept; any other relative folder is taken as a subfolder of base. Absolute
// paths elsewhere and paths climbing out with ".." are rejected. Symlinks
// are not followed.
func underBase(base, folder string) (string, error) {
	if rel, err := filepath.Rel(base, folder); err == nil && filepath.IsLocal(rel) {
		return filepath.Clean(folder), nil
	}
	if !filepath.IsAbs(folder) && filepath.IsLocal(folder) {
		return filepath.Join(base, folder), nil
	}
	return "", errors.New(errors.ErrorTypeInput, fmt.Sprintf("Folder must be inside %s", base))
}
