// Package storage manages the folder accepted images are written to.
//
// Files are written atomically through a temporary file and a rename so the
// downloads listing never shows half-written images. Listing re-derives its
// result from a directory scan each time; no manifest is kept.
package storage
