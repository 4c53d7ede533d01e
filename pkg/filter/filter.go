// Package filter decides which discovered image URLs are worth fetching.
package filter

import "strings"

// DefaultPatterns mark thumbnails, spinners and other non-content images.
var DefaultPatterns = []string{"data:image", "placeholder", "1x1", "loading", "avatar", "profile"}

// Filter holds a denylist and the set of URLs already seen in one run.
// It is not safe for concurrent use; a run owns its filter.
type Filter struct {
	patterns []string
	seen     map[string]struct{}
}

// New creates a filter. With no patterns the defaults are used.
func New(patterns ...string) *Filter {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Filter{
		patterns: lowered,
		seen:     make(map[string]struct{}),
	}
}

// IsContentImage reports whether url looks like a real content image.
func (f *Filter) IsContentImage(url string) bool {
	if url == "" || !strings.HasPrefix(url, "http") {
		return false
	}
	lower := strings.ToLower(url)
	for _, p := range f.patterns {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

// Accept reports whether url should be fetched and records it as seen.
// A URL is accepted at most once per filter even if its fetch later fails.
func (f *Filter) Accept(url string) bool {
	if !f.IsContentImage(url) {
		return false
	}
	if _, ok := f.seen[url]; ok {
		return false
	}
	f.seen[url] = struct{}{}
	return true
}

// Seen returns the number of distinct URLs accepted so far.
func (f *Filter) Seen() int {
	return len(f.seen)
}

// Extension guesses the file extension from the URL.
func Extension(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, ".png"):
		return "png"
	case strings.Contains(lower, ".webp"):
		return "webp"
	default:
		return "jpg"
	}
}
