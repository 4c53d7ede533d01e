// Package validator checks that fetched bytes are a real image of a usable size.
package validator

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Reason explains why a payload was rejected.
type Reason string

const (
	ReasonInvalidFormat Reason = "invalid format"
	ReasonTooSmall      Reason = "too small"
	ReasonDuplicate     Reason = "duplicate"
)

// Result is the outcome of validating one payload.
type Result struct {
	Accepted bool
	Width    int
	Height   int
	Format   string
	Reason   Reason
}

// Message renders a rejection the way it is shown to users.
func (r Result) Message() string {
	switch r.Reason {
	case ReasonInvalidFormat:
		return "Invalid image format"
	case ReasonTooSmall:
		return fmt.Sprintf("Image too small (%d, %d)", r.Width, r.Height)
	case ReasonDuplicate:
		return "Near-duplicate of an image already saved"
	default:
		return "Valid image"
	}
}

// Validate decodes only the image header, so truncated bodies with a valid
// header are accepted. Either dimension strictly below its minimum rejects.
func Validate(data []byte, minWidth, minHeight int) Result {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{Reason: ReasonInvalidFormat}
	}

	res := Result{Width: cfg.Width, Height: cfg.Height, Format: format}
	if cfg.Width < minWidth || cfg.Height < minHeight {
		res.Reason = ReasonTooSmall
		return res
	}

	res.Accepted = true
	return res
}
